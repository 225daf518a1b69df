package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/domain/entity"
)

func TestValidateOrder(t *testing.T) {
	e, s, _ := newTestEditor(t)
	s.Document.Name = "  "
	requireCode(t, Validate(s), entity.CodeMissingDocumentName)

	s.Document.Name = "Lease"
	requireCode(t, Validate(s), entity.CodeMissingRecipient)

	s.Recipients = append(s.Recipients, entity.Recipient{Signer: "x@example.com"})
	requireCode(t, Validate(s), entity.CodeRecipientFields)

	s.Recipients = []entity.Recipient{
		{Signer: "a@example.com", SignerName: "A", PhoneNumber: "+4911"},
		{Signer: "b@example.com", SignerName: "B", PhoneNumber: "0049 11"},
	}
	requireCode(t, Validate(s), entity.CodeDuplicateRecipient)

	s.Recipients[1].PhoneNumber = ""
	s.ActiveRecipient = "a@example.com"
	requireCode(t, Validate(s), entity.CodeNoFields)

	_, err := e.DropField(s, DropRequest{FieldType: entity.FieldSignature, Canvas: canvas.Rect{Width: 10, Height: 10}})
	require.NoError(t, err)
	assert.NoError(t, Validate(s))

	s.Recipients = s.Recipients[1:]
	requireCode(t, Validate(s), entity.CodeMissingRecipient)
}

func TestAssemblePayloadResolvesContent(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)
	cnv := canvas.Rect{Width: 100, Height: 100}

	drop := func(ft entity.FieldType, page int) entity.PlacedItem {
		item, err := e.DropField(s, DropRequest{FieldType: ft, Canvas: cnv, Page: page})
		require.NoError(t, err)
		return item
	}
	email := drop(entity.FieldEmail, 1)
	name := drop(entity.FieldName, 1)
	phone := drop(entity.FieldPhone, 1)
	box := drop(entity.FieldCheckbox, 2)
	text := drop(entity.FieldText, 2)
	filled := drop(entity.FieldText, 2)
	date := drop(entity.FieldDate, 3)
	require.NoError(t, e.EditTextValue(s, filled.ID, "Berlin", EditEnter))

	sess := entity.Session{UserID: "u-7", CompanyID: "c-3"}
	rasters := []PageRaster{{Filename: "a.png", PNGBase64: "AAA"}, {PNGBase64: "BBB"}, {PNGBase64: "CCC"}}

	out, err := AssemblePayload(s, sess, rasters)
	require.NoError(t, err)
	assert.Equal(t, "Contract", out.DocumentName)
	assert.Equal(t, "u-7", out.Writer)
	assert.Equal(t, "c-3", out.DocumentRelatedComp)
	require.Len(t, out.Pages, 3)
	assert.True(t, out.Pages[0].IsFirstPage)
	assert.False(t, out.Pages[1].IsFirstPage)
	assert.Equal(t, "a.png", out.Pages[0].Filename)
	assert.Equal(t, "page-2.png", out.Pages[1].Filename)

	content := map[string]string{}
	for _, p := range out.Pages {
		for _, sign := range p.Signs {
			content[sign.ID] = sign.Content
		}
	}
	assert.Equal(t, "alice@example.com", content[email.ID])
	assert.Equal(t, "Alice", content[name.ID])
	assert.Equal(t, "+05321112233", content[phone.ID])
	assert.Equal(t, "false", content[box.ID])
	assert.Equal(t, "-", content[text.ID])
	assert.Equal(t, "Berlin", content[filled.ID])
	assert.Equal(t, "2024-03-15", content[date.ID])
	assert.Equal(t, "2024-03-15", out.Pages[2].Signs[0].Date)
}

func TestAssemblePayloadRejectsFieldsBeyondLastPage(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)
	_, err := e.DropField(s, DropRequest{FieldType: entity.FieldText, Canvas: canvas.Rect{Width: 10, Height: 10}, Page: 3})
	require.NoError(t, err)

	_, err = AssemblePayload(s, entity.Session{}, []PageRaster{{}, {}})
	requireCode(t, err, entity.CodeNoPages)

	_, err = AssemblePayload(s, entity.Session{}, nil)
	requireCode(t, err, entity.CodeNoPages)
}
