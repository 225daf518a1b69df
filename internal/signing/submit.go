package signing

import (
	"fmt"
	"strings"

	"esign-canvas/internal/domain/entity"
)

// Unknown replaces metadata values that could not be determined.
const Unknown = "unknown"

// Validate checks that the signer has completed their fields. The checks run in a fixed
// order and the first failure is returned: there must be a signature field, every
// signature field must be signed, and every text or date field must be filled in.
func Validate(s *State) error {
	owned := s.Owned()

	hasSignature := false
	for _, t := range owned {
		if t.Strategy == BakedSignature {
			hasSignature = true
			break
		}
	}
	if !hasSignature {
		return entity.NewValidationError(entity.CodeNoSignatureFields, "there is no signature field for you on this document")
	}

	for _, t := range owned {
		if t.Strategy == BakedSignature && !s.IsSigned(t) {
			ve := entity.NewValidationError(entity.CodeUnsignedFields, "please sign all signature fields")
			ve.FocusTabID = t.TabID
			return ve
		}
	}

	for _, t := range owned {
		if t.Strategy == DOMOverlay && strings.TrimSpace(s.TextValues[t.TabID]) == "" {
			ve := entity.NewValidationError(entity.CodeEmptyTextFields, "please fill in all text fields")
			ve.FocusTabID = t.TabID
			return ve
		}
	}
	return nil
}

// BuildSubmission validates the session and assembles the signing payload.
// Signatures already signed on the backend without fresh ink are not resent.
func BuildSubmission(s *State, metadata string) (*entity.SigningPayload, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}

	out := &entity.SigningPayload{
		DocumentGroup: s.DocumentGroup,
		SignerMail:    s.Identity.Mail,
		SignerCode:    s.Identity.Code,
		Signatures:    []entity.SignatureEntry{},
		Checkboxes:    []entity.CheckboxEntry{},
		Textboxes:     []entity.TextboxEntry{},
		MetadataInfo:  metadata,
	}
	for _, t := range s.Owned() {
		switch t.Strategy {
		case BakedSignature:
			art, ok := s.Signatures[t.TabID]
			if !ok || !art.IsSigned {
				continue
			}
			out.Signatures = append(out.Signatures, entity.SignatureEntry{
				SignatureBase64: StripDataURL(art.DataURL),
				DocumentID:      t.DocumentID,
				SignerCode:      s.Identity.Code,
			})
		case BakedCheckbox:
			out.Checkboxes = append(out.Checkboxes, entity.CheckboxEntry{
				SignerID:      t.SignerID,
				Content:       fmt.Sprintf("%t", s.Checkboxes[t.TabID]),
				CheckboxDocID: t.DocumentID,
			})
		case DOMOverlay:
			out.Textboxes = append(out.Textboxes, entity.TextboxEntry{
				SignerID:     t.SignerID,
				TabID:        t.TabID,
				Type:         t.TabType,
				Content:      strings.TrimSpace(s.TextValues[t.TabID]),
				TextboxDocID: t.DocumentID,
			})
		}
	}
	return out, nil
}

// BuildRejection assembles a rejection. It does not depend on field completion.
func BuildRejection(s *State, reason, metadata string) (*entity.RejectPayload, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, entity.NewValidationError(entity.CodeMissingReason, "please enter a reason for rejecting")
	}
	return &entity.RejectPayload{
		DocGroupID:   s.DocumentGroup,
		Reason:       reason,
		MetadataInfo: metadata,
		SignerEmail:  s.Identity.Mail,
	}, nil
}

// Metadata renders the device block as "ip|userAgent|language|platform|timezone|geolocation".
// Missing values become "unknown".
func Metadata(ip string, info entity.DeviceInfo) string {
	or := func(v string) string {
		v = strings.TrimSpace(strings.ReplaceAll(v, "|", "/"))
		if v == "" {
			return Unknown
		}
		return v
	}
	geo := Unknown
	if g := info.Geolocation; g != nil {
		geo = fmt.Sprintf("%.6f,%.6f", g.Latitude, g.Longitude)
		if g.Accuracy > 0 {
			geo += fmt.Sprintf(" (±%.0fm)", g.Accuracy)
		}
	}
	return strings.Join([]string{
		or(ip),
		or(info.UserAgent),
		or(info.Language),
		or(info.Platform),
		or(info.Timezone),
		geo,
	}, "|")
}
