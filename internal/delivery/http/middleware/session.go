package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
)

const (
	localsSession = "session"
	localsToken   = "token"
)

// Claims are the author claims issued by the surrounding application.
type Claims struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"compOfUser"`
	jwt.RegisteredClaims
}

type SessionMiddleware struct {
	config *config.Config
	logger *zap.Logger
}

func NewSessionMiddleware(cfg *config.Config, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{config: cfg, logger: logger}
}

// RequireSession rejects requests without a valid HS256 session token, taken from the
// session cookie or an Authorization bearer header.
func (m *SessionMiddleware) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := m.rawToken(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(
				entity.NewErrorResponse("UNAUTHORIZED", "Session token is required"),
			)
		}

		sess, err := m.parse(raw)
		if err != nil {
			m.logger.Debug("Rejected session token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(
				entity.NewErrorResponse("UNAUTHORIZED", "Session token is invalid or expired"),
			)
		}

		c.Locals(localsSession, sess)
		c.Locals(localsToken, raw)
		return c.Next()
	}
}

// ForwardToken passes an optional raw token through to the backend without validating it.
// Signer links are authorized by the backend, not by this service.
func (m *SessionMiddleware) ForwardToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := m.rawToken(c); raw != "" {
			c.Locals(localsToken, raw)
		}
		return c.Next()
	}
}

func (m *SessionMiddleware) rawToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Cookies(m.config.Session.CookieName)
}

func (m *SessionMiddleware) parse(raw string) (entity.Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(m.config.Session.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return entity.Session{}, err
	}
	if claims.UserID == "" {
		return entity.Session{}, errors.New("token has no userId")
	}
	return entity.Session{UserID: claims.UserID, CompanyID: claims.CompanyID, Token: raw}, nil
}

// SessionFrom returns the author session stored by RequireSession.
func SessionFrom(c *fiber.Ctx) entity.Session {
	sess, _ := c.Locals(localsSession).(entity.Session)
	return sess
}

// TokenFrom returns the raw token of the request, if any.
func TokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(localsToken).(string)
	return token
}
