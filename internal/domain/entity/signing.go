package entity

// SignatureArtifact is the captured ink of one signature tab.
type SignatureArtifact struct {
	DataURL  string `json:"dataUrl"`
	IsSigned bool   `json:"isSigned"`
}

// SigningPayload is the consolidated body posted to /api/signDocument.
type SigningPayload struct {
	DocumentGroup string           `json:"documentGroup"`
	SignerMail    string           `json:"signerMail"`
	SignerCode    int              `json:"signerCode"`
	Signatures    []SignatureEntry `json:"signatures"`
	Checkboxes    []CheckboxEntry  `json:"checkboxes"`
	Textboxes     []TextboxEntry   `json:"textboxes"`
	MetadataInfo  string           `json:"metadataInfo"`
}

type SignatureEntry struct {
	SignatureBase64 string `json:"signatureBase64"`
	DocumentID      string `json:"documentId"`
	SignerCode      int    `json:"signerCode"`
}

type CheckboxEntry struct {
	SignerID      string `json:"signerId"`
	Content       string `json:"content"` // "true" / "false"
	CheckboxDocID string `json:"checkboxDocId"`
}

type TextboxEntry struct {
	SignerID     string    `json:"signerId"`
	TabID        string    `json:"tabId"`
	Type         FieldType `json:"type"`
	Content      string    `json:"content"`
	TextboxDocID string    `json:"textboxDocId"`
}

// RejectPayload is the body posted to /api/rejectGroup.
type RejectPayload struct {
	DocGroupID   string `json:"docGroupId"`
	Reason       string `json:"reason"`
	MetadataInfo string `json:"metadataInfo"`
	SignerEmail  string `json:"signerEmail"`
}

// DeviceInfo is what the signer's browser reports about itself.
// Geolocation is nil when the browser denied or timed out.
type DeviceInfo struct {
	UserAgent   string       `json:"userAgent"`
	Language    string       `json:"language"`
	Platform    string       `json:"platform"`
	Timezone    string       `json:"timezone"`
	Geolocation *Geolocation `json:"geolocation,omitempty"`
	ClientIP    string       `json:"-"`
}

type Geolocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}
