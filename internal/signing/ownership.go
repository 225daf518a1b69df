// Package signing implements the signer canvas: field ownership, canvas-baked rendering,
// signature capture and the signing and rejection submissions.
package signing

import (
	"strings"

	"esign-canvas/internal/domain/entity"
)

// Identity is the authenticated signer as established by the OTP link.
type Identity struct {
	Code int    `json:"code"`
	Mail string `json:"mail"`
	Name string `json:"name"`
}

// IsUserTab reports whether tab belongs to the signer. Tabs are matched by the
// generated auth code first, then by signerMail when it is set, and finally by
// signerName against either the signer's name or email (legacy rows store the
// email in the name column).
func IsUserTab(tab entity.SignerTab, id Identity) bool {
	if tab.SignerGeneratedAuthCode != nil && id.Code != 0 && *tab.SignerGeneratedAuthCode == id.Code {
		return true
	}

	if mail := strings.TrimSpace(tab.SignerMail); entity.IsSet(mail) {
		return id.Mail != "" && strings.EqualFold(mail, strings.TrimSpace(id.Mail))
	}

	name := strings.TrimSpace(tab.SignerName)
	if !entity.IsSet(name) {
		return false
	}
	if id.Name != "" && strings.EqualFold(name, strings.TrimSpace(id.Name)) {
		return true
	}
	return id.Mail != "" && strings.EqualFold(name, strings.TrimSpace(id.Mail))
}
