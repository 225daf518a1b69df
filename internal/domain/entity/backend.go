package entity

// ========== Backend request/response shapes ==========

// SignerPagesRequest is the body of /api/getPagesForSigner.
type SignerPagesRequest struct {
	DocumentGroup string `json:"documentGroup"`
	SignerMail    string `json:"signerMail"`
	SignerCode    int    `json:"signerCode"`
	DocumentID    string `json:"documentId"`
}

type SignerPagesResponse struct {
	Docs       []DocPage   `json:"docs"`
	SignerTabs []SignerTab `json:"vw_SignerTabs"`
}

// GroupRequest addresses a template or document group.
type GroupRequest struct {
	DocumentGroup string `json:"documentGroup"`
}

// GroupPagesResponse is returned by getAllPagesOfTemplate and getPagesForDocTakip.
type GroupPagesResponse struct {
	Docs []DocPage   `json:"docs"`
	Tabs []SignerTab `json:"tabs"`
}

// GroupInfo is returned by getGroupInfo.
type GroupInfo struct {
	DocumentGroup     string      `json:"documentGroup"`
	DocumentName      string      `json:"DocumentName"`
	DocumentDesc      string      `json:"DocumentDesc"`
	VisibilitySetting string      `json:"VisibilitySetting"`
	IsSent            bool        `json:"isSent"`
	Recipients        []Recipient `json:"recipients"`
}

type DeleteSignProcessRequest struct {
	DocumentGroup string `json:"documentGroup"`
}

// ConvertRequest asks the backend to rasterize a PDF.
type ConvertRequest struct {
	Filename  string  `json:"filename"`
	PDFBase64 string  `json:"pdf_base64"`
	Scale     float64 `json:"scale"`
}

type ConvertResponse struct {
	Pages []string `json:"pages"` // base64 PNG per page
}

// BackendResult is the generic success/error JSON of the backend.
// Success is nil when the backend omits it.
type BackendResult struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the backend answered 2xx but flagged the operation as failed.
func (r BackendResult) Failed() bool {
	return r.Error != "" || (r.Success != nil && !*r.Success)
}

// Reason is the backend's explanation of a failure.
func (r BackendResult) Reason() string {
	if r.Error != "" {
		return r.Error
	}
	return r.Message
}
