package entity

import (
	"errors"
	"fmt"
)

// Validation error codes surfaced to the client as transient notifications.
const (
	CodeNoRecipientSelected = "NO_RECIPIENT_SELECTED"
	CodeMissingDocumentName = "MISSING_DOCUMENT_NAME"
	CodeMissingRecipient    = "MISSING_RECIPIENT"
	CodeRecipientFields     = "RECIPIENT_FIELDS_REQUIRED"
	CodeDuplicateRecipient  = "DUPLICATE_RECIPIENT"
	CodeNoFields            = "NO_FIELDS_PLACED"
	CodeUnknownField        = "UNKNOWN_FIELD"
	CodeInvalidFieldType    = "INVALID_FIELD_TYPE"
	CodeNotEditable         = "FIELD_NOT_EDITABLE"
	CodeEmptySignature      = "EMPTY_SIGNATURE"
	CodeNoSignatureFields   = "NO_SIGNATURE_FIELDS"
	CodeUnsignedFields      = "UNSIGNED_FIELDS"
	CodeEmptyTextFields     = "EMPTY_TEXT_FIELDS"
	CodeNoActiveField       = "NO_ACTIVE_FIELD"
	CodeNotOwned            = "FIELD_NOT_OWNED"
	CodeMissingReason       = "MISSING_REASON"
	CodeInvalidMode         = "INVALID_MODE"
	CodeNoPages             = "NO_PAGES"
	CodeMissingGroup        = "MISSING_DOCUMENT_GROUP"
	CodeNoSource            = "NO_HYDRATION_SOURCE"
)

// ValidationError is a recoverable client-side error. It never reaches the backend.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// FocusTabID names the first offending field, when there is one.
	FocusTabID string `json:"focusTabId,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// AsValidation unwraps err into a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ErrSessionNotFound is returned when an editor or signer state document is missing or expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrBackend wraps failures of the external backend API.
var ErrBackend = errors.New("backend request failed")
