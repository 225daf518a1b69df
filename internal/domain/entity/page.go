package entity

import "time"

// DocPage is one rasterized page of a document group.
type DocPage struct {
	ID              string    `json:"id"`
	DocumentGroupID string    `json:"documentGroupId"`
	DocumentS3Path  string    `json:"documentS3Path"` // base64 raster of the page
	Filename        string    `json:"filename,omitempty"`
	IsFirstPage     bool      `json:"isFirstPage"`
	IsItSigned      bool      `json:"isItSigned,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// DocumentSubmission is the payload posted to sendMailForSign / upload.
type DocumentSubmission struct {
	DocumentName        string           `json:"DocumentName"`
	DocumentDesc        string           `json:"DocumentDesc"`
	Writer              string           `json:"writer"`
	DocumentRelatedComp string           `json:"DocumentRelatedComp"`
	VisibilitySetting   string           `json:"VisibilitySetting"`
	IsTemplate          bool             `json:"isTemplate"`
	Pages               []SubmissionPage `json:"pages"`
}

type SubmissionPage struct {
	IsFirstPage bool        `json:"isFirstPage"`
	Filename    string      `json:"filename"`
	PDFBase64   string      `json:"pdf_base64"`
	IsItSigned  bool        `json:"isItSigned"`
	Signs       []SignEntry `json:"signs"`
}

// SignEntry is a PlacedItem enriched with its resolved content.
type SignEntry struct {
	PlacedItem
	Content string `json:"content"`
}

// PageSource is an uploaded document awaiting rasterization.
type PageSource struct {
	Filename  string `json:"filename"`
	MediaType string `json:"mediaType"` // application/pdf, image/png, image/jpeg
	Data      string `json:"data"`      // base64
	PageCount int    `json:"pageCount"`
}
