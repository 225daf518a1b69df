package editor

import (
	"fmt"
	"strings"

	"esign-canvas/internal/domain/entity"
)

// Validate runs the client-side checks that gate a submission. The first failure wins.
func Validate(s *State) error {
	if strings.TrimSpace(s.Document.Name) == "" {
		return entity.NewValidationError(entity.CodeMissingDocumentName, "document name is required")
	}
	if len(s.Recipients) == 0 {
		return entity.NewValidationError(entity.CodeMissingRecipient, "add at least one recipient")
	}
	for i, r := range s.Recipients {
		if strings.TrimSpace(r.Signer) == "" || strings.TrimSpace(r.SignerName) == "" {
			return entity.NewValidationError(entity.CodeRecipientFields,
				fmt.Sprintf("recipient %d: name and email are required", i+1))
		}
	}
	for i := range s.Recipients {
		for j := i + 1; j < len(s.Recipients); j++ {
			if sameRecipient(s.Recipients[i], s.Recipients[j]) {
				return entity.NewValidationError(entity.CodeDuplicateRecipient,
					fmt.Sprintf("recipients %d and %d are the same person", i+1, j+1))
			}
		}
	}
	if s.FieldCount() == 0 {
		return entity.NewValidationError(entity.CodeNoFields, "place at least one field")
	}
	for _, it := range s.AllItems() {
		if _, ok := s.recipient(it.RecipientKey); !ok {
			return entity.NewValidationError(entity.CodeMissingRecipient,
				fmt.Sprintf("field %s belongs to a removed recipient", it.ID))
		}
	}
	return nil
}
