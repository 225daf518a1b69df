package signing

import (
	"sort"
	"strings"
	"time"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/domain/entity"
)

// Tab is a signer tab with its coordinate and page resolved once at load time.
type Tab struct {
	entity.SignerTab
	Coord    canvas.Coordinate `json:"coord"`
	PageNo   int               `json:"pageNo"`
	Strategy Strategy          `json:"strategy"`
	Owned    bool              `json:"owned"`
}

// PrepareTabs resolves every tab's page through the page order and its coordinate
// through the percentage/fixed-point rule. Tabs whose page cannot be resolved are dropped.
// A tab placed by page number alone takes the documentId of that page.
// The result is ordered by page, keeping the input order within a page.
func PrepareTabs(tabs []entity.SignerTab, pages []entity.DocPage, id Identity) []Tab {
	index := canvas.NewPageIndex(pages)
	out := make([]Tab, 0, len(tabs))
	for _, t := range tabs {
		page, ok := index.PageOf(t.DocumentID)
		if !ok {
			if t.Page < 1 || (index.Len() > 0 && t.Page > index.Len()) {
				continue
			}
			page = t.Page
			if !entity.IsSet(t.DocumentID) {
				t.DocumentID, _ = index.DocumentID(page)
			}
		}
		out = append(out, Tab{
			SignerTab: t,
			Coord:     canvas.ResolveCoordinate(t.XPos, t.YPos),
			PageNo:    page,
			Strategy:  StrategyFor(t),
			Owned:     IsUserTab(t, id),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PageNo < out[j].PageNo })
	return out
}

// State is one signer's canvas session.
type State struct {
	ID            string                              `json:"id"`
	DocumentGroup string                              `json:"documentGroup"`
	DocumentID    string                              `json:"documentId,omitempty"`
	Identity      Identity                            `json:"identity"`
	Pages         []entity.DocPage                    `json:"pages"`
	Tabs          []Tab                               `json:"tabs"`
	ActiveTab     string                              `json:"activeTab,omitempty"`
	Signatures    map[string]entity.SignatureArtifact `json:"signatures"`
	TextValues    map[string]string                   `json:"textValues"`
	Checkboxes    map[string]bool                     `json:"checkboxes"`
	Pad           SignaturePad                        `json:"pad"`
	CreatedAt     time.Time                           `json:"createdAt"`
	UpdatedAt     time.Time                           `json:"updatedAt"`
}

// NewState builds a signer session from the backend's pages and flattened tabs.
// Text and checkbox values are seeded from the stored contents of the signer's own tabs.
func NewState(id, group, documentID string, ident Identity, pages []entity.DocPage, tabs []entity.SignerTab, now time.Time) *State {
	s := &State{
		ID:            id,
		DocumentGroup: group,
		DocumentID:    documentID,
		Identity:      ident,
		Pages:         canvas.SortPages(pages),
		Tabs:          PrepareTabs(tabs, pages, ident),
		Signatures:    map[string]entity.SignatureArtifact{},
		TextValues:    map[string]string{},
		Checkboxes:    map[string]bool{},
		Pad:           NewSignaturePad(0, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, t := range s.Tabs {
		if !t.Owned {
			continue
		}
		switch t.Strategy {
		case DOMOverlay:
			if entity.IsSet(t.Contents) {
				s.TextValues[t.TabID] = t.Contents
			}
		case BakedCheckbox:
			s.Checkboxes[t.TabID] = strings.EqualFold(t.Contents, "true")
		}
	}
	return s
}

// OwnedOnPage returns the signer's tabs on a page.
func (s *State) OwnedOnPage(page int) []Tab {
	var out []Tab
	for _, t := range s.Tabs {
		if t.Owned && t.PageNo == page {
			out = append(out, t)
		}
	}
	return out
}

// Owned returns every tab of the signer in page order.
func (s *State) Owned() []Tab {
	var out []Tab
	for _, t := range s.Tabs {
		if t.Owned {
			out = append(out, t)
		}
	}
	return out
}

func (s *State) ownedTab(tabID string) (Tab, error) {
	for _, t := range s.Tabs {
		if t.TabID != tabID {
			continue
		}
		if !t.Owned {
			return Tab{}, entity.NewValidationError(entity.CodeNotOwned, "field belongs to another signer")
		}
		return t, nil
	}
	return Tab{}, entity.NewValidationError(entity.CodeUnknownField, "field not found")
}

// IsSigned reports whether a signature tab has ink captured in this session or was
// already signed on the backend.
func (s *State) IsSigned(t Tab) bool {
	if a, ok := s.Signatures[t.TabID]; ok && a.IsSigned {
		return true
	}
	return t.Signed()
}

// DisplayValue is the read-only value shown in a display field. It comes from the
// signer's identity, falling back to what the tab stores.
func (s *State) DisplayValue(t Tab) string {
	pick := func(primary, fallback string) string {
		if entity.IsSet(primary) {
			return primary
		}
		if entity.IsSet(fallback) {
			return fallback
		}
		return ""
	}
	switch t.TabType {
	case entity.FieldEmail:
		return pick(s.Identity.Mail, t.SignerMail)
	case entity.FieldName:
		return pick(s.Identity.Name, t.SignerName)
	case entity.FieldPhone:
		return pick(t.PhoneNumber, "")
	default:
		return pick(t.Contents, "")
	}
}

// ClickResult reports what a canvas click hit.
type ClickResult struct {
	Hit       bool     `json:"hit"`
	TabID     string   `json:"tabId,omitempty"`
	Strategy  Strategy `json:"strategy,omitempty"`
	ActiveTab string   `json:"activeTab,omitempty"`
	Checked   *bool    `json:"checked,omitempty"`
	PadReset  bool     `json:"padReset,omitempty"`
}

// Click hit-tests a point in canvas pixels against the signer's fields on a page of
// width×height pixels. A signature field becomes the single active field; switching
// fields clears the pad. A checkbox toggles. Editable fields report a hit so the
// client can focus its input.
func (s *State) Click(page int, pt canvas.Point, width, height float64, now time.Time) ClickResult {
	owned := s.OwnedOnPage(page)
	// later tabs are drawn on top
	for i := len(owned) - 1; i >= 0; i-- {
		t := owned[i]
		if !canvas.FieldRect(t.TabType, t.Coord, width, height).Contains(pt) {
			continue
		}
		res := ClickResult{Hit: true, TabID: t.TabID, Strategy: t.Strategy}
		switch t.Strategy {
		case BakedSignature:
			if s.ActiveTab != t.TabID {
				s.Pad.Clear()
				res.PadReset = true
			}
			s.ActiveTab = t.TabID
		case BakedCheckbox:
			checked := !s.Checkboxes[t.TabID]
			s.Checkboxes[t.TabID] = checked
			res.Checked = &checked
		}
		res.ActiveTab = s.ActiveTab
		s.UpdatedAt = now
		return res
	}
	return ClickResult{ActiveTab: s.ActiveTab}
}

// Activate makes a signature tab the active one without a canvas click.
func (s *State) Activate(tabID string, now time.Time) error {
	t, err := s.ownedTab(tabID)
	if err != nil {
		return err
	}
	if t.Strategy != BakedSignature {
		return entity.NewValidationError(entity.CodeInvalidFieldType, "only signature fields can be activated")
	}
	if s.ActiveTab != tabID {
		s.Pad.Clear()
	}
	s.ActiveTab = tabID
	s.UpdatedAt = now
	return nil
}

// AddInk appends strokes to the pad.
func (s *State) AddInk(strokes [][]canvas.Point, now time.Time) {
	for _, st := range strokes {
		s.Pad.AddStroke(st)
	}
	s.UpdatedAt = now
}

// ClearPad discards the pad's ink.
func (s *State) ClearPad(now time.Time) {
	s.Pad.Clear()
	s.UpdatedAt = now
}

// SaveSignature stores the pad ink as the active field's signature, replacing any
// earlier ink, and deactivates the field.
func (s *State) SaveSignature(now time.Time) (entity.SignatureArtifact, error) {
	if s.ActiveTab == "" {
		return entity.SignatureArtifact{}, entity.NewValidationError(entity.CodeNoActiveField, "select a signature field first")
	}
	if s.Pad.IsEmpty() {
		return entity.SignatureArtifact{}, entity.NewValidationError(entity.CodeEmptySignature, "please draw your signature")
	}
	dataURL, err := s.Pad.DataURL()
	if err != nil {
		return entity.SignatureArtifact{}, err
	}
	art := entity.SignatureArtifact{DataURL: dataURL, IsSigned: true}
	s.Signatures[s.ActiveTab] = art
	s.ActiveTab = ""
	s.Pad.Clear()
	s.UpdatedAt = now
	return art, nil
}

// SetText sets the value of an owned text or date field.
func (s *State) SetText(tabID, value string, now time.Time) error {
	t, err := s.ownedTab(tabID)
	if err != nil {
		return err
	}
	if t.Strategy != DOMOverlay {
		return entity.NewValidationError(entity.CodeNotEditable, "only text and date fields can be edited")
	}
	s.TextValues[tabID] = value
	s.UpdatedAt = now
	return nil
}

// ToggleCheckbox flips an owned checkbox and returns its new state.
func (s *State) ToggleCheckbox(tabID string, now time.Time) (bool, error) {
	t, err := s.ownedTab(tabID)
	if err != nil {
		return false, err
	}
	if t.Strategy != BakedCheckbox {
		return false, entity.NewValidationError(entity.CodeInvalidFieldType, "field is not a checkbox")
	}
	checked := !s.Checkboxes[tabID]
	s.Checkboxes[tabID] = checked
	s.UpdatedAt = now
	return checked, nil
}

// PageCount is the number of pages in the signer's document.
func (s *State) PageCount() int {
	return len(s.Pages)
}
