package editor

import (
	"strings"
	"time"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/domain/entity"
)

// HydrateResult summarizes a hydration pass.
type HydrateResult struct {
	Added              int  `json:"added"`
	Skipped            int  `json:"skipped"`
	RecipientsCreated  int  `json:"recipientsCreated"`
	RecipientsRejected int  `json:"recipientsRejected"`
	AlreadyHydrated    bool `json:"alreadyHydrated"`
}

// HydrateFromSaved rebuilds placements from persisted tabs. It runs once per session:
// later calls are no-ops so placements are never duplicated.
func (e *Editor) HydrateFromSaved(s *State, tabs []entity.SavedTab, recipients []entity.Recipient, pages []entity.DocPage) HydrateResult {
	if s.Hydrated {
		return HydrateResult{AlreadyHydrated: true}
	}
	s.Hydrated = true
	var res HydrateResult

	// group recipients missing a field or colliding with an existing row are not added
	for _, r := range recipients {
		if _, ok := s.recipient(r.Signer); ok {
			continue
		}
		if _, err := e.AddRecipient(s, r); err != nil {
			res.RecipientsRejected++
		}
	}
	if len(pages) > 0 {
		s.Pages = canvas.SortPages(pages)
	}

	index := canvas.NewPageIndex(pages)
	today := e.now()

	for _, tab := range NormalizeSavedTabs(tabs) {
		page, ok := index.PageOf(tab.DocumentID)
		if !ok {
			res.Skipped++
			continue
		}
		if !tab.TabType.Valid() {
			res.Skipped++
			continue
		}

		r, created, ok := e.matchRecipient(s, tab)
		if !ok {
			res.Skipped++
			continue
		}
		if created {
			res.RecipientsCreated++
		}

		pos := canvas.ResolveCoordinate(tab.XPos, tab.YPos).Percent()
		id := tab.TabID
		if id == "" {
			id = e.newID()
		} else if _, _, dup := s.findItem(id); dup {
			id = e.newID()
		}
		item := newItem(id, tab.TabType, r, page, pos)
		if tab.Label != "" {
			item.Label = tab.Label
		}
		if tab.ContentType != "" {
			item.ContentType = tab.ContentType
		}
		if tab.Font != "" {
			item.Font = tab.Font
		}
		if tab.FontSize != "" {
			item.FontSize = tab.FontSize
		}
		switch tab.TabType {
		case entity.FieldDate:
			item.Date = ParseStoredDate(tab.Contents, today)
			s.TextValues[id] = item.Date
		case entity.FieldText:
			if tab.Contents != entity.UnsetMarker {
				s.TextValues[id] = tab.Contents
			}
		}
		s.Items[page] = append(s.Items[page], item)
		res.Added++
	}
	s.UpdatedAt = today
	return res
}

// matchRecipient finds the recipient of a saved tab: signerMail first, then signerName
// interpreted as an email when the mail is unset. Unknown signers become new recipients.
func (e *Editor) matchRecipient(s *State, tab entity.SavedTab) (entity.Recipient, bool, bool) {
	key := tab.SignerMail
	if !entity.IsSet(key) {
		key = tab.SignerName
	}
	if !entity.IsSet(key) {
		return entity.Recipient{}, false, false
	}
	if r, ok := s.recipient(key); ok {
		return r, false, true
	}

	name := tab.SignerName
	if !entity.IsSet(name) {
		name = key
	}
	r, err := e.AddRecipient(s, entity.Recipient{Signer: key, SignerName: name, PhoneNumber: tab.PhoneNumber})
	if err != nil {
		// a phone collision with an existing row: attach to that row
		for _, existing := range s.Recipients {
			if sameRecipient(existing, r) {
				return existing, false, true
			}
		}
		return entity.Recipient{}, false, false
	}
	return r, true, true
}

// NormalizeSavedTabs fills unset signer identity fields of each row from another row of the
// same (documentId, signerId) group that has them. Rows without a signerId group by documentId.
// The input is not modified.
func NormalizeSavedTabs(tabs []entity.SavedTab) []entity.SavedTab {
	type identity struct{ mail, name, phone string }
	groupKey := func(t entity.SavedTab) string {
		return t.DocumentID + "\x00" + t.SignerID
	}

	known := map[string]*identity{}
	for _, t := range tabs {
		k := groupKey(t)
		id := known[k]
		if id == nil {
			id = &identity{}
			known[k] = id
		}
		if id.mail == "" && entity.IsSet(t.SignerMail) {
			id.mail = t.SignerMail
		}
		if id.name == "" && entity.IsSet(t.SignerName) {
			id.name = t.SignerName
		}
		if id.phone == "" && entity.IsSet(t.PhoneNumber) {
			id.phone = t.PhoneNumber
		}
	}

	out := make([]entity.SavedTab, len(tabs))
	for i, t := range tabs {
		id := known[groupKey(t)]
		if !entity.IsSet(t.SignerMail) && id.mail != "" {
			t.SignerMail = id.mail
		}
		if !entity.IsSet(t.SignerName) && id.name != "" {
			t.SignerName = id.name
		}
		if !entity.IsSet(t.PhoneNumber) && id.phone != "" {
			t.PhoneNumber = id.phone
		}
		out[i] = t
	}
	return out
}

// ParseStoredDate converts a stored date value to ISO form. ISO values pass through,
// legacy dd.mm.yyyy values are reordered, anything else becomes today's date.
func ParseStoredDate(v string, today time.Time) string {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(ISODate, v); err == nil {
		return t.Format(ISODate)
	}
	if t, err := time.Parse("02.01.2006", v); err == nil {
		return t.Format(ISODate)
	}
	if t, err := time.Parse("2.1.2006", v); err == nil {
		return t.Format(ISODate)
	}
	return today.Format(ISODate)
}
