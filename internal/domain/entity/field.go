package entity

// FieldType is the tab_type of a placement.
type FieldType string

const (
	FieldSignature FieldType = "signature"
	FieldName      FieldType = "name"
	FieldEmail     FieldType = "email"
	FieldText      FieldType = "text"
	FieldPhone     FieldType = "phone"
	FieldDate      FieldType = "date"
	FieldCheckbox  FieldType = "checkbox"
)

// UnsetMarker is the sentinel the backend stores for an unset signer mail/name.
const UnsetMarker = "-"

var fieldTypes = map[FieldType]bool{
	FieldSignature: true,
	FieldName:      true,
	FieldEmail:     true,
	FieldText:      true,
	FieldPhone:     true,
	FieldDate:      true,
	FieldCheckbox:  true,
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	return fieldTypes[t]
}

// Editable reports whether the signer types the value in (text/date).
func (t FieldType) Editable() bool {
	return t == FieldText || t == FieldDate
}

// IsSet reports whether a signer identity value is present and not the "-" sentinel.
func IsSet(v string) bool {
	return v != "" && v != UnsetMarker
}

// Recipient is a party that must complete one or more fields.
type Recipient struct {
	Color       string `json:"color"`
	Signer      string `json:"Signer"` // email, unique key
	SignerName  string `json:"SignerName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Label       string `json:"label,omitempty"`
}

// PlacedItem is an author-side field placement with page-relative 0..1 coordinates.
type PlacedItem struct {
	ID           string    `json:"id"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Page         int       `json:"page"`
	Color        string    `json:"color"`
	Label        string    `json:"label"`
	TabType      FieldType `json:"tab_type"`
	ContentType  string    `json:"content_type"`
	Font         string    `json:"Font,omitempty"`
	FontSize     string    `json:"FontSize,omitempty"`
	RecipientKey string    `json:"recipientKey"`
	Signer       string    `json:"Signer"`
	SignerName   string    `json:"SignerName"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	Date         string    `json:"date,omitempty"`
}

// SavedTab is the persisted server shape of a placement.
// DocumentID references a page's server id, not a page number.
type SavedTab struct {
	SignerID    string    `json:"signerId"`
	SignerMail  string    `json:"signerMail"`
	SignerName  string    `json:"signerName"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	TabID       string    `json:"tabId"`
	DocumentID  string    `json:"documentId"`
	TabType     FieldType `json:"tab_type"`
	XPos        float64   `json:"x_pos"`
	YPos        float64   `json:"y_pos"`
	Label       string    `json:"label,omitempty"`
	IsSignature bool      `json:"isSignature,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Contents    string    `json:"contents,omitempty"`
	Font        string    `json:"font,omitempty"`
	FontSize    string    `json:"fontsize,omitempty"`
	Page        int       `json:"page,omitempty"`
}

// SignerTab is the flattened, read-only placement consumed by the signer canvas.
type SignerTab struct {
	SavedTab
	SignerGeneratedAuthCode *int  `json:"signerGeneratedAuthCode,omitempty"`
	IsSigned                *bool `json:"isSigned,omitempty"`
}

// Signed reports the backend's isSigned flag, false when absent.
func (t SignerTab) Signed() bool {
	return t.IsSigned != nil && *t.IsSigned
}
