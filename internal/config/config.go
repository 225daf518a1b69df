package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// AuthType constants
const (
	AuthTypeBearer = "bearer"
	AuthTypeHMAC   = "hmac"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Editor   EditorConfig   `mapstructure:"editor"`
	Signer   SignerConfig   `mapstructure:"signer"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	Render   RenderConfig   `mapstructure:"render"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Port    int    `mapstructure:"port"`
	Env     string `mapstructure:"env"`
	BaseURL string `mapstructure:"base_url"`
}

// BackendConfig points at the external persistence/auth/storage API (API_BASE_URL).
type BackendConfig struct {
	AuthType string          `mapstructure:"auth_type"` // "bearer" or "hmac"
	BaseURL  string          `mapstructure:"base_url"`
	Timeout  time.Duration   `mapstructure:"timeout"`
	HMAC     HMACCredentials `mapstructure:"hmac"`
}

// HMACCredentials stores HMAC client credentials
type HMACCredentials struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// IsHMAC returns true if auth type is HMAC
func (b *BackendConfig) IsHMAC() bool {
	return b.AuthType == AuthTypeHMAC
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"` // lifetime of editor/signer state in Redis
}

type EditorConfig struct {
	DragThresholdPx float64       `mapstructure:"drag_threshold_px"`
	SettleWindow    time.Duration `mapstructure:"settle_window"`
	PreviewTTL      time.Duration `mapstructure:"preview_ttl"`
}

type SignerConfig struct {
	RedirectURL        string        `mapstructure:"redirect_url"`
	RedirectDelay      time.Duration `mapstructure:"redirect_delay"`
	GeolocationTimeout time.Duration `mapstructure:"geolocation_timeout"`
}

type MetadataConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	IPLookupURL string        `mapstructure:"ip_lookup_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RenderConfig struct {
	Scale        float64 `mapstructure:"scale"`         // rasterization scale for submitted pages
	DefaultWidth int     `mapstructure:"default_width"` // signer canvas width when none requested
	MaxWidth     int     `mapstructure:"max_width"`     // larger requested widths are clamped
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func NewConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Enable environment variable override
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "esign-canvas")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.env", "development")
	v.SetDefault("backend.auth_type", AuthTypeBearer)
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("session.cookie_name", "token")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("editor.drag_threshold_px", 3)
	v.SetDefault("editor.settle_window", "250ms")
	v.SetDefault("editor.preview_ttl", "1h")
	v.SetDefault("signer.redirect_delay", "2s")
	v.SetDefault("signer.geolocation_timeout", "5s")
	v.SetDefault("metadata.enabled", true)
	v.SetDefault("metadata.timeout", "5s")
	v.SetDefault("render.scale", 2)
	v.SetDefault("render.default_width", 1190)
	v.SetDefault("render.max_width", 2400)
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	if c.Backend.AuthType == "" {
		c.Backend.AuthType = AuthTypeBearer
	}
	if c.Editor.DragThresholdPx <= 0 {
		c.Editor.DragThresholdPx = 3
	}
	if c.Editor.SettleWindow <= 0 {
		c.Editor.SettleWindow = 250 * time.Millisecond
	}
	if c.Signer.GeolocationTimeout <= 0 {
		c.Signer.GeolocationTimeout = 5 * time.Second
	}
	if c.Metadata.Timeout <= 0 {
		c.Metadata.Timeout = 5 * time.Second
	}
	if c.Render.Scale <= 0 {
		c.Render.Scale = 2
	}
	if c.Render.DefaultWidth <= 0 {
		c.Render.DefaultWidth = 1190
	}
	if c.Render.MaxWidth <= 0 {
		c.Render.MaxWidth = 2400
	}
	if c.Render.DefaultWidth > c.Render.MaxWidth {
		c.Render.DefaultWidth = c.Render.MaxWidth
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = 24 * time.Hour
	}
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
