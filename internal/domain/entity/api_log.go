package entity

import "time"

// APILog represents a log entry for a request sent to the backend API
type APILog struct {
	ID            int64     `json:"id"`
	Endpoint      string    `json:"endpoint"`
	Method        string    `json:"method"`
	RequestBody   string    `json:"request_body"`
	ResponseBody  string    `json:"response_body"`
	StatusCode    int       `json:"status_code"`
	Duration      int64     `json:"duration_ms"`
	DocumentGroup string    `json:"document_group,omitempty"`
	Actor         string    `json:"actor,omitempty"` // user id or signer email
	CreatedAt     time.Time `json:"created_at"`
}
