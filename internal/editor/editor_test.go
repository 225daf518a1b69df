package editor

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/domain/entity"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestEditor(t *testing.T) (*Editor, *State, *time.Time) {
	t.Helper()
	now := fixedNow
	e := New(Options{DragThreshold: 3, SettleWindow: 250 * time.Millisecond}).WithClock(func() time.Time { return now })
	n := 0
	e.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s := NewState("s1", "u1", DocumentMeta{Name: "Contract"}, now)
	s.PageCount = 3
	return e, s, &now
}

func addAlice(t *testing.T, e *Editor, s *State) {
	t.Helper()
	_, err := e.AddRecipient(s, entity.Recipient{Signer: "alice@example.com", SignerName: "Alice", PhoneNumber: "0532 111 22 33"})
	require.NoError(t, err)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	ve, ok := entity.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, code, ve.Code)
}

func TestDropWithoutRecipientFails(t *testing.T) {
	e, s, _ := newTestEditor(t)

	_, err := e.DropField(s, DropRequest{FieldType: entity.FieldSignature, Client: canvas.Point{X: 10, Y: 10}, Canvas: canvas.Rect{Width: 100, Height: 100}})
	requireCode(t, err, entity.CodeNoRecipientSelected)
	assert.Zero(t, s.FieldCount())
}

func TestDropScenarioStoresPercentages(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)

	item, err := e.DropField(s, DropRequest{
		FieldType: entity.FieldSignature,
		Client:    canvas.Point{X: 100, Y: 100},
		Canvas:    canvas.Rect{Width: 595, Height: 842},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.168, item.X, 0.0005)
	assert.InDelta(t, 0.119, item.Y, 0.0005)
	assert.Equal(t, 1, item.Page)
	assert.Equal(t, "alice@example.com", item.RecipientKey)
	assert.Equal(t, s.Recipients[0].Color, item.Color)
}

func TestDropClampsOutsidePointer(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)

	for _, p := range []canvas.Point{{X: -50, Y: 2000}, {X: 9000, Y: -1}} {
		item, err := e.DropField(s, DropRequest{FieldType: entity.FieldText, Client: p, Canvas: canvas.Rect{X: 20, Y: 30, Width: 595, Height: 842}})
		require.NoError(t, err)
		assert.True(t, item.X >= 0 && item.X <= 1)
		assert.True(t, item.Y >= 0 && item.Y <= 1)
	}
}

func TestDropDateSeedsToday(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)

	item, err := e.DropField(s, DropRequest{FieldType: entity.FieldDate, Client: canvas.Point{X: 1, Y: 1}, Canvas: canvas.Rect{Width: 10, Height: 10}})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", s.TextValues[item.ID])
}

func TestDropRejectsBadPageAndType(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)

	_, err := e.DropField(s, DropRequest{FieldType: "stamp", Canvas: canvas.Rect{Width: 10, Height: 10}})
	requireCode(t, err, entity.CodeInvalidFieldType)

	_, err = e.DropField(s, DropRequest{FieldType: entity.FieldText, Page: 4, Canvas: canvas.Rect{Width: 10, Height: 10}})
	requireCode(t, err, entity.CodeNoPages)
}

func TestAddRecipientRejectsDuplicates(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)

	_, err := e.AddRecipient(s, entity.Recipient{Signer: "ALICE@example.com", SignerName: "Other"})
	requireCode(t, err, entity.CodeDuplicateRecipient)

	_, err = e.AddRecipient(s, entity.Recipient{Signer: "bob@example.com", SignerName: "Bob", PhoneNumber: "+90 (532) 111-22-33"})
	require.NoError(t, err, "different phone digits must not collide")

	_, err = e.AddRecipient(s, entity.Recipient{Signer: "carol@example.com", SignerName: "Carol", PhoneNumber: "0090532 1112233"})
	requireCode(t, err, entity.CodeDuplicateRecipient)
}

func TestRemoveRecipientDropsTheirFields(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)
	_, err := e.AddRecipient(s, entity.Recipient{Signer: "bob@example.com", SignerName: "Bob"})
	require.NoError(t, err)

	cnv := canvas.Rect{Width: 100, Height: 100}
	a, err := e.DropField(s, DropRequest{FieldType: entity.FieldDate, Canvas: cnv})
	require.NoError(t, err)
	require.NoError(t, e.SelectRecipient(s, "bob@example.com"))
	_, err = e.DropField(s, DropRequest{FieldType: entity.FieldSignature, Canvas: cnv})
	require.NoError(t, err)

	require.NoError(t, e.RemoveRecipient(s, "alice@example.com"))
	assert.Equal(t, 1, s.FieldCount())
	assert.NotContains(t, s.TextValues, a.ID)
	assert.Equal(t, "bob@example.com", s.ActiveRecipient)
}

func TestRemoveFieldDeletesTextValue(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)

	item, err := e.DropField(s, DropRequest{FieldType: entity.FieldDate, Canvas: canvas.Rect{Width: 10, Height: 10}})
	require.NoError(t, err)
	require.NoError(t, e.RemoveField(s, 1, item.ID))
	assert.Zero(t, s.FieldCount())
	assert.Empty(t, s.TextValues)

	requireCode(t, e.RemoveField(s, 1, item.ID), entity.CodeUnknownField)
}

func TestEditTextValueCommitAndCancel(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)
	cnv := canvas.Rect{Width: 10, Height: 10}

	text, err := e.DropField(s, DropRequest{FieldType: entity.FieldText, Canvas: cnv})
	require.NoError(t, err)
	sig, err := e.DropField(s, DropRequest{FieldType: entity.FieldSignature, Canvas: cnv})
	require.NoError(t, err)

	require.NoError(t, e.EditTextValue(s, text.ID, "draft", EditInput))
	require.NoError(t, e.EditTextValue(s, text.ID, "", EditEscape))
	assert.NotContains(t, s.TextValues, text.ID)
	assert.Nil(t, s.Editing)

	require.NoError(t, e.EditTextValue(s, text.ID, "Istanbul", EditEnter))
	assert.Equal(t, "Istanbul", s.TextValues[text.ID])

	requireCode(t, e.EditTextValue(s, sig.ID, "x", EditBlur), entity.CodeNotEditable)
}

func TestResetReturnsPreviews(t *testing.T) {
	e, s, _ := newTestEditor(t)
	addAlice(t, e, s)
	_, err := e.DropField(s, DropRequest{FieldType: entity.FieldText, Canvas: canvas.Rect{Width: 10, Height: 10}})
	require.NoError(t, err)
	s.Previews = []string{"p1", "p2"}
	s.Hydrated = true

	assert.Equal(t, []string{"p1", "p2"}, e.Reset(s))
	assert.Zero(t, s.FieldCount())
	assert.Empty(t, s.Previews)
	assert.False(t, s.Hydrated)
	assert.Len(t, s.Recipients, 1)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+905321112233", NormalizePhone("+90 532 111 22 33"))
	assert.Equal(t, "+905321112233", NormalizePhone("0090-532-111-22-33"))
	assert.Equal(t, "+905321112233", NormalizePhone("905321112233"))
	assert.Equal(t, "", NormalizePhone(" - "))
}

func TestSetPageStaysInRange(t *testing.T) {
	e, s, _ := newTestEditor(t)

	require.NoError(t, e.SetPage(s, 3))
	assert.Equal(t, 3, s.CurrentPage)

	requireCode(t, e.SetPage(s, 4), entity.CodeNoPages)
	requireCode(t, e.SetPage(s, 0), entity.CodeNoPages)
	assert.Equal(t, 3, s.CurrentPage)
}
