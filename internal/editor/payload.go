package editor

import (
	"fmt"
	"strings"

	"esign-canvas/internal/domain/entity"
)

// PageRaster is one rasterized page ready for submission.
type PageRaster struct {
	Filename  string
	PNGBase64 string
}

// AssemblePayload builds the document submission from the state and the rasterized pages.
// rasters[i] is page i+1.
func AssemblePayload(s *State, sess entity.Session, rasters []PageRaster) (*entity.DocumentSubmission, error) {
	if len(rasters) == 0 {
		return nil, entity.NewValidationError(entity.CodeNoPages, "document has no pages")
	}
	for page := range s.Items {
		if page < 1 || page > len(rasters) {
			return nil, entity.NewValidationError(entity.CodeNoPages,
				fmt.Sprintf("fields placed on page %d but the document has %d pages", page, len(rasters)))
		}
	}

	out := &entity.DocumentSubmission{
		DocumentName:        strings.TrimSpace(s.Document.Name),
		DocumentDesc:        s.Document.Description,
		Writer:              sess.UserID,
		DocumentRelatedComp: sess.CompanyID,
		VisibilitySetting:   s.Document.Visibility,
		IsTemplate:          s.Document.IsTemplate,
		Pages:               make([]entity.SubmissionPage, len(rasters)),
	}

	for i, raster := range rasters {
		page := i + 1
		filename := raster.Filename
		if filename == "" {
			filename = fmt.Sprintf("page-%d.png", page)
		}
		items := s.ItemsOnPage(page)
		signs := make([]entity.SignEntry, 0, len(items))
		for _, it := range items {
			signs = append(signs, entity.SignEntry{PlacedItem: enrich(s, it), Content: resolveContent(s, it)})
		}
		out.Pages[i] = entity.SubmissionPage{
			IsFirstPage: page == 1,
			Filename:    filename,
			PDFBase64:   raster.PNGBase64,
			IsItSigned:  false,
			Signs:       signs,
		}
	}
	return out, nil
}

// enrich refreshes the recipient identity copied into a placement.
func enrich(s *State, it entity.PlacedItem) entity.PlacedItem {
	if r, ok := s.recipient(it.RecipientKey); ok {
		it.Signer = r.Signer
		it.SignerName = r.SignerName
		it.PhoneNumber = r.PhoneNumber
		it.Color = r.Color
	}
	it.PhoneNumber = NormalizePhone(it.PhoneNumber)
	if it.TabType == entity.FieldDate {
		if v := s.TextValues[it.ID]; v != "" {
			it.Date = v
		}
	}
	return it
}

// resolveContent is the initial content of a field: the signer's identity for display
// fields, "false" for checkboxes and the committed author value or "-" for text/date.
func resolveContent(s *State, it entity.PlacedItem) string {
	r, ok := s.recipient(it.RecipientKey)
	if !ok {
		r = entity.Recipient{Signer: it.Signer, SignerName: it.SignerName, PhoneNumber: it.PhoneNumber}
	}
	switch it.TabType {
	case entity.FieldEmail:
		return r.Signer
	case entity.FieldName:
		return r.SignerName
	case entity.FieldPhone:
		return NormalizePhone(r.PhoneNumber)
	case entity.FieldCheckbox:
		return "false"
	case entity.FieldText, entity.FieldDate:
		if v := strings.TrimSpace(s.TextValues[it.ID]); v != "" {
			return v
		}
		return entity.UnsetMarker
	default:
		return ""
	}
}
