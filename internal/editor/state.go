// Package editor implements the field placement editor: recipients, drag-and-drop placement
// of typed fields with page-relative coordinates, in-place text editing, hydration from
// saved tabs and assembly of the document submission payload.
package editor

import (
	"sort"
	"strings"
	"time"

	"esign-canvas/internal/domain/entity"
)

// Submission modes.
const (
	ModeSendForSign = "sendForSign"
	ModeSaveDraft   = "saveDraft"
)

// DocumentMeta is the author-entered description of the document group.
type DocumentMeta struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Visibility    string `json:"visibility"`
	IsTemplate    bool   `json:"isTemplate"`
	TemplateGroup string `json:"templateGroup,omitempty"`
	FollowUpGroup string `json:"followUpGroup,omitempty"` // set when editing an existing, unsent group
}

// TextEdit is an uncommitted in-place edit.
type TextEdit struct {
	FieldID string `json:"fieldId"`
	Draft   string `json:"draft"`
}

// State is the whole editor session. It is plain data so it can be stored between requests.
type State struct {
	ID              string                      `json:"id"`
	Owner           string                      `json:"owner"`
	Document        DocumentMeta                `json:"document"`
	Recipients      []entity.Recipient          `json:"recipients"`
	ActiveRecipient string                      `json:"activeRecipient,omitempty"`
	Items           map[int][]entity.PlacedItem `json:"items"`
	TextValues      map[string]string           `json:"textValues"`
	Editing         *TextEdit                   `json:"editing,omitempty"`
	Hydrated        bool                        `json:"hydrated"`
	Drag            DragMachine                 `json:"drag"`
	CurrentPage     int                         `json:"currentPage"`
	Sources         []entity.PageSource         `json:"sources,omitempty"`
	Pages           []entity.DocPage            `json:"pages,omitempty"` // pre-rasterized pages
	PageCount       int                         `json:"pageCount"`
	Previews        []string                    `json:"previews,omitempty"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

func NewState(id, owner string, meta DocumentMeta, now time.Time) *State {
	return &State{
		ID:          id,
		Owner:       owner,
		Document:    meta,
		Items:       map[int][]entity.PlacedItem{},
		TextValues:  map[string]string{},
		Drag:        DragMachine{Phase: DragIdle},
		CurrentPage: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ItemsOnPage returns the placements of a page.
func (s *State) ItemsOnPage(page int) []entity.PlacedItem {
	return s.Items[page]
}

// AllItems returns every placement ordered by page.
func (s *State) AllItems() []entity.PlacedItem {
	pages := make([]int, 0, len(s.Items))
	for p := range s.Items {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var out []entity.PlacedItem
	for _, p := range pages {
		out = append(out, s.Items[p]...)
	}
	return out
}

// FieldCount is the number of placements across pages.
func (s *State) FieldCount() int {
	n := 0
	for _, items := range s.Items {
		n += len(items)
	}
	return n
}

func (s *State) findItem(id string) (page, idx int, ok bool) {
	for p, items := range s.Items {
		for i := range items {
			if items[i].ID == id {
				return p, i, true
			}
		}
	}
	return 0, 0, false
}

func (s *State) recipient(key string) (entity.Recipient, bool) {
	for _, r := range s.Recipients {
		if strings.EqualFold(r.Signer, key) {
			return r, true
		}
	}
	return entity.Recipient{}, false
}

// EffectivePageCount is the number of pages the document currently has.
func (s *State) EffectivePageCount() int {
	if len(s.Pages) > 0 {
		return len(s.Pages)
	}
	return s.PageCount
}
