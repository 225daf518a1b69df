package canvas

import (
	"sort"

	"esign-canvas/internal/domain/entity"
)

// SortPages orders pages: first-page flag first, then createdAt ascending, then id ascending.
// The input slice is not modified.
func SortPages(pages []entity.DocPage) []entity.DocPage {
	sorted := make([]entity.DocPage, len(pages))
	copy(sorted, pages)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsFirstPage != b.IsFirstPage {
			return a.IsFirstPage
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted
}

// PageIndex maps a page's server id to its current 1-based page number.
type PageIndex struct {
	byID  map[string]int
	order []string
}

func NewPageIndex(pages []entity.DocPage) *PageIndex {
	sorted := SortPages(pages)
	idx := &PageIndex{
		byID:  make(map[string]int, len(sorted)),
		order: make([]string, 0, len(sorted)),
	}
	for _, p := range sorted {
		if _, dup := idx.byID[p.ID]; dup {
			continue
		}
		idx.order = append(idx.order, p.ID)
		idx.byID[p.ID] = len(idx.order)
	}
	return idx
}

// PageOf returns the 1-based page for a documentId.
func (i *PageIndex) PageOf(documentID string) (int, bool) {
	page, ok := i.byID[documentID]
	return page, ok
}

// DocumentID returns the server id of a 1-based page.
func (i *PageIndex) DocumentID(page int) (string, bool) {
	if page < 1 || page > len(i.order) {
		return "", false
	}
	return i.order[page-1], true
}

func (i *PageIndex) Len() int {
	return len(i.order)
}
