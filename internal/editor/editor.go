package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"esign-canvas/internal/canvas"
	"esign-canvas/internal/domain/entity"
)

// ISODate is the layout of date field values.
const ISODate = "2006-01-02"

var palette = []string{"#4F46E5", "#DC2626", "#059669", "#D97706", "#7C3AED", "#DB2777", "#0891B2", "#65A30D"}

var fieldLabels = map[entity.FieldType]string{
	entity.FieldSignature: "Signature",
	entity.FieldName:      "Name",
	entity.FieldEmail:     "Email",
	entity.FieldText:      "Text",
	entity.FieldPhone:     "Phone",
	entity.FieldDate:      "Date",
	entity.FieldCheckbox:  "Checkbox",
}

// Options tunes pointer handling.
type Options struct {
	DragThreshold float64       // pixels either axis before a press becomes a drag
	SettleWindow  time.Duration // post-drag window during which clicks are suppressed
}

// Editor applies author operations to a State.
type Editor struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

func New(opts Options) *Editor {
	if opts.DragThreshold <= 0 {
		opts.DragThreshold = 3
	}
	if opts.SettleWindow <= 0 {
		opts.SettleWindow = 250 * time.Millisecond
	}
	return &Editor{
		opts:  opts,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock replaces the time source.
func (e *Editor) WithClock(now func() time.Time) *Editor {
	e.now = now
	return e
}

// AddRecipient appends a recipient row. The email is the recipient's key.
func (e *Editor) AddRecipient(s *State, r entity.Recipient) (entity.Recipient, error) {
	r.Signer = strings.TrimSpace(r.Signer)
	r.SignerName = strings.TrimSpace(r.SignerName)
	r.PhoneNumber = NormalizePhone(r.PhoneNumber)

	if r.Signer == "" || r.SignerName == "" {
		return r, entity.NewValidationError(entity.CodeRecipientFields, "recipient name and email are required")
	}
	for _, existing := range s.Recipients {
		if sameRecipient(existing, r) {
			return r, entity.NewValidationError(entity.CodeDuplicateRecipient,
				fmt.Sprintf("recipient %s is already added", r.Signer))
		}
	}
	if r.Color == "" {
		r.Color = palette[len(s.Recipients)%len(palette)]
	}
	s.Recipients = append(s.Recipients, r)
	if s.ActiveRecipient == "" {
		s.ActiveRecipient = r.Signer
	}
	s.UpdatedAt = e.now()
	return r, nil
}

// RemoveRecipient drops a recipient and every field placed for them.
func (e *Editor) RemoveRecipient(s *State, key string) error {
	kept := s.Recipients[:0]
	found := false
	for _, r := range s.Recipients {
		if strings.EqualFold(r.Signer, key) {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return entity.NewValidationError(entity.CodeMissingRecipient, "recipient not found")
	}
	s.Recipients = kept

	for page, items := range s.Items {
		remaining := items[:0]
		for _, it := range items {
			if strings.EqualFold(it.RecipientKey, key) {
				delete(s.TextValues, it.ID)
				continue
			}
			remaining = append(remaining, it)
		}
		s.setPage(page, remaining)
	}
	if strings.EqualFold(s.ActiveRecipient, key) {
		s.ActiveRecipient = ""
	}
	s.UpdatedAt = e.now()
	return nil
}

// SelectRecipient makes key the recipient of subsequently dropped fields.
func (e *Editor) SelectRecipient(s *State, key string) error {
	r, ok := s.recipient(key)
	if !ok {
		return entity.NewValidationError(entity.CodeMissingRecipient, "recipient not found")
	}
	s.ActiveRecipient = r.Signer
	return nil
}

// SetPage changes the page new fields are dropped on.
func (e *Editor) SetPage(s *State, page int) error {
	if n := s.EffectivePageCount(); page < 1 || (n > 0 && page > n) {
		return entity.NewValidationError(entity.CodeNoPages, fmt.Sprintf("page %d is out of range", page))
	}
	s.CurrentPage = page
	return nil
}

// DropRequest is a palette field released over the page canvas.
type DropRequest struct {
	FieldType entity.FieldType `json:"fieldType"`
	Client    canvas.Point     `json:"client"` // pointer position in client pixels
	Canvas    canvas.Rect      `json:"canvas"` // canvas bounding rect in client pixels
	Page      int              `json:"page,omitempty"`
}

// DropField creates a placement for the active recipient at the pointer position.
func (e *Editor) DropField(s *State, req DropRequest) (entity.PlacedItem, error) {
	if s.ActiveRecipient == "" {
		return entity.PlacedItem{}, entity.NewValidationError(entity.CodeNoRecipientSelected, "select a recipient first")
	}
	r, ok := s.recipient(s.ActiveRecipient)
	if !ok {
		return entity.PlacedItem{}, entity.NewValidationError(entity.CodeNoRecipientSelected, "select a recipient first")
	}
	if !req.FieldType.Valid() {
		return entity.PlacedItem{}, entity.NewValidationError(entity.CodeInvalidFieldType,
			fmt.Sprintf("unknown field type %q", req.FieldType))
	}

	page := req.Page
	if page == 0 {
		page = s.CurrentPage
	}
	if n := s.EffectivePageCount(); page < 1 || (n > 0 && page > n) {
		return entity.PlacedItem{}, entity.NewValidationError(entity.CodeNoPages, fmt.Sprintf("page %d is out of range", page))
	}

	pos := canvas.ToPercent(req.Client, req.Canvas)
	item := newItem(e.newID(), req.FieldType, r, page, pos)
	s.Items[page] = append(s.Items[page], item)

	if req.FieldType == entity.FieldDate {
		s.TextValues[item.ID] = e.now().Format(ISODate)
	}
	s.UpdatedAt = e.now()
	return item, nil
}

func newItem(id string, t entity.FieldType, r entity.Recipient, page int, pos canvas.Point) entity.PlacedItem {
	item := entity.PlacedItem{
		ID:           id,
		X:            canvas.Clamp01(pos.X),
		Y:            canvas.Clamp01(pos.Y),
		Page:         page,
		Color:        r.Color,
		Label:        fieldLabels[t],
		TabType:      t,
		ContentType:  string(t),
		RecipientKey: r.Signer,
		Signer:       r.Signer,
		SignerName:   r.SignerName,
		PhoneNumber:  r.PhoneNumber,
	}
	if t != entity.FieldSignature && t != entity.FieldCheckbox {
		item.Font = "Helvetica"
		item.FontSize = "12"
	}
	return item
}

// PointerPhase is the kind of pointer event on an existing field.
type PointerPhase string

const (
	PointerDown   PointerPhase = "down"
	PointerMove   PointerPhase = "move"
	PointerUp     PointerPhase = "up"
	PointerCancel PointerPhase = "cancel"
)

// PointerEvent is a pointer event on an existing field.
type PointerEvent struct {
	Phase  PointerPhase `json:"phase"`
	Client canvas.Point `json:"client"`
	Canvas canvas.Rect  `json:"canvas"`
	Field  canvas.Rect  `json:"field"` // field bounding rect, required on down
}

// PointerResult reports the effect of a pointer event.
type PointerResult struct {
	Phase    DragPhase    `json:"phase"`
	Moved    bool         `json:"moved"`
	Position canvas.Point `json:"position"`
	Outcome  *DragOutcome `json:"outcome,omitempty"`
}

// Pointer drives the drag machine for field id and repositions it once the press
// turns into a real drag.
func (e *Editor) Pointer(s *State, id string, ev PointerEvent) (PointerResult, error) {
	page, idx, ok := s.findItem(id)
	if !ok {
		return PointerResult{}, entity.NewValidationError(entity.CodeUnknownField, "field not found")
	}
	now := e.now()
	m := &s.Drag
	m.Tick(now)

	if ev.Phase != PointerDown && m.FieldID != id {
		return PointerResult{Phase: m.Phase}, nil
	}

	var res PointerResult
	switch ev.Phase {
	case PointerDown:
		m.Down(id, page, ev.Client, ev.Field, ev.Canvas, now)
		res.Position = m.Position
	case PointerMove:
		pos, moved := m.Move(ev.Client, e.opts.DragThreshold)
		if moved {
			s.moveItem(page, idx, pos)
		}
		res.Moved, res.Position = moved, pos
	case PointerUp:
		out := m.Up(ev.Client, e.opts.DragThreshold, e.opts.SettleWindow, now)
		if out.Kind == OutcomeMoved {
			s.moveItem(page, idx, out.Position)
			res.Moved = true
		}
		if out.Kind == OutcomeClick {
			item := s.Items[page][idx]
			if item.TabType.Editable() {
				s.Editing = &TextEdit{FieldID: id, Draft: s.TextValues[id]}
			}
		}
		res.Position = out.Position
		res.Outcome = &out
	case PointerCancel:
		m.Cancel()
	default:
		return PointerResult{}, entity.NewValidationError(entity.CodeUnknownField, fmt.Sprintf("unknown pointer phase %q", ev.Phase))
	}
	res.Phase = m.Phase
	s.UpdatedAt = now
	return res, nil
}

func (s *State) moveItem(page, idx int, pos canvas.Point) {
	s.Items[page][idx].X = canvas.Clamp01(pos.X)
	s.Items[page][idx].Y = canvas.Clamp01(pos.Y)
}

// RemoveField deletes a placement and its text value.
func (e *Editor) RemoveField(s *State, page int, id string) error {
	items := s.ItemsOnPage(page)
	for i := range items {
		if items[i].ID != id {
			continue
		}
		s.setPage(page, append(items[:i:i], items[i+1:]...))
		delete(s.TextValues, id)
		if s.Editing != nil && s.Editing.FieldID == id {
			s.Editing = nil
		}
		if s.Drag.FieldID == id {
			s.Drag.Cancel()
		}
		s.UpdatedAt = e.now()
		return nil
	}
	return entity.NewValidationError(entity.CodeUnknownField, "field not found")
}

func (s *State) setPage(page int, items []entity.PlacedItem) {
	if len(items) == 0 {
		delete(s.Items, page)
		return
	}
	s.Items[page] = items
}

// Text edit actions.
const (
	EditInput  = "input"
	EditBlur   = "blur"
	EditEnter  = "enter"
	EditEscape = "escape"
)

// EditTextValue applies an in-place edit to a text or date field. "input" updates the
// draft, "blur" and "enter" commit it, "escape" discards it.
func (e *Editor) EditTextValue(s *State, id, value, action string) error {
	page, idx, ok := s.findItem(id)
	if !ok {
		return entity.NewValidationError(entity.CodeUnknownField, "field not found")
	}
	if !s.Items[page][idx].TabType.Editable() {
		return entity.NewValidationError(entity.CodeNotEditable, "only text and date fields can be edited")
	}

	switch action {
	case EditInput:
		s.Editing = &TextEdit{FieldID: id, Draft: value}
	case EditBlur, EditEnter:
		s.TextValues[id] = value
		s.Editing = nil
	case EditEscape:
		if s.Editing != nil && s.Editing.FieldID == id {
			s.Editing = nil
		}
	default:
		return entity.NewValidationError(entity.CodeNotEditable, fmt.Sprintf("unknown edit action %q", action))
	}
	s.UpdatedAt = e.now()
	return nil
}

// Reset clears every placement and returns the preview keys that must be revoked.
func (e *Editor) Reset(s *State) []string {
	previews := s.Previews
	s.Items = map[int][]entity.PlacedItem{}
	s.TextValues = map[string]string{}
	s.Editing = nil
	s.Drag = DragMachine{Phase: DragIdle}
	s.Hydrated = false
	s.Previews = nil
	s.CurrentPage = 1
	s.UpdatedAt = e.now()
	return previews
}

func sameRecipient(a, b entity.Recipient) bool {
	if strings.EqualFold(strings.TrimSpace(a.Signer), strings.TrimSpace(b.Signer)) {
		return true
	}
	pa, pb := NormalizePhone(a.PhoneNumber), NormalizePhone(b.PhoneNumber)
	return pa != "" && pa == pb
}
