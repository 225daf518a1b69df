package editor

import (
	"math"
	"time"

	"esign-canvas/internal/canvas"
)

// DragPhase is the state of the drag machine.
type DragPhase string

const (
	DragIdle        DragPhase = "idle"
	DragPendingDrag DragPhase = "pending_drag"
	DragDragging    DragPhase = "dragging"
	DragSettling    DragPhase = "settling"
)

// DragOutcomeKind tells the caller what a pointer-up meant.
type DragOutcomeKind string

const (
	OutcomeNone       DragOutcomeKind = "none"
	OutcomeClick      DragOutcomeKind = "click"
	OutcomeMoved      DragOutcomeKind = "moved"
	OutcomeSuppressed DragOutcomeKind = "suppressed"
)

type DragOutcome struct {
	Kind     DragOutcomeKind `json:"kind"`
	FieldID  string          `json:"fieldId,omitempty"`
	Page     int             `json:"page,omitempty"`
	Position canvas.Point    `json:"position"`
}

// DragMachine separates click-to-edit from drag-to-move on an existing field:
// Idle -> PendingDrag -> Dragging -> Settling(timeout) -> Idle.
// A pointer-up without movement while the settle window is open is suppressed, so the
// release that ends a drag is never read as a click.
// Fields are exported so the machine survives a round trip through the session store.
type DragMachine struct {
	Phase       DragPhase    `json:"phase"`
	FieldID     string       `json:"fieldId,omitempty"`
	Page        int          `json:"page,omitempty"`
	Start       canvas.Point `json:"start"`
	GrabOffset  canvas.Point `json:"grabOffset"`
	Canvas      canvas.Rect  `json:"canvas"`
	Position    canvas.Point `json:"position"`
	SettleUntil time.Time    `json:"settleUntil"`
}

// Tick expires the settle window.
func (m *DragMachine) Tick(now time.Time) {
	if m.Phase == DragSettling && !now.Before(m.SettleUntil) {
		m.reset()
	}
	if m.Phase == "" {
		m.Phase = DragIdle
	}
}

// ClickAllowed reports whether a click on a field should open it for editing.
func (m *DragMachine) ClickAllowed(now time.Time) bool {
	return !now.Before(m.SettleUntil)
}

// Down arms the machine for field on page. field is the field's bounding box and
// cnv the page canvas box, both in client pixels.
func (m *DragMachine) Down(fieldID string, page int, pointer canvas.Point, field, cnv canvas.Rect, now time.Time) {
	m.Tick(now)
	m.Phase = DragPendingDrag
	m.FieldID = fieldID
	m.Page = page
	m.Start = pointer
	m.GrabOffset = canvas.Point{X: pointer.X - field.X, Y: pointer.Y - field.Y}
	m.Canvas = cnv
	m.Position = canvas.ToPercent(canvas.Point{X: field.X, Y: field.Y}, cnv)
}

// Move feeds a pointer position. It reports the field's new percentage position and
// whether the field actually moved.
func (m *DragMachine) Move(pointer canvas.Point, threshold float64) (canvas.Point, bool) {
	switch m.Phase {
	case DragPendingDrag:
		if math.Abs(pointer.X-m.Start.X) <= threshold && math.Abs(pointer.Y-m.Start.Y) <= threshold {
			return m.Position, false
		}
		m.Phase = DragDragging
	case DragDragging:
	default:
		return m.Position, false
	}
	m.Position = m.positionFor(pointer)
	return m.Position, true
}

// Up ends the gesture.
func (m *DragMachine) Up(pointer canvas.Point, threshold float64, settle time.Duration, now time.Time) DragOutcome {
	switch m.Phase {
	case DragPendingDrag:
		if _, moved := m.Move(pointer, threshold); moved {
			return m.finishDrag(settle, now)
		}
		out := DragOutcome{Kind: OutcomeClick, FieldID: m.FieldID, Page: m.Page, Position: m.Position}
		if !m.ClickAllowed(now) {
			out.Kind = OutcomeSuppressed
		}
		m.reset()
		return out
	case DragDragging:
		m.Position = m.positionFor(pointer)
		return m.finishDrag(settle, now)
	default:
		return DragOutcome{Kind: OutcomeNone}
	}
}

// Cancel aborts the gesture without moving the field.
func (m *DragMachine) Cancel() {
	m.reset()
}

func (m *DragMachine) finishDrag(settle time.Duration, now time.Time) DragOutcome {
	out := DragOutcome{Kind: OutcomeMoved, FieldID: m.FieldID, Page: m.Page, Position: m.Position}
	m.Phase = DragSettling
	m.SettleUntil = now.Add(settle)
	return out
}

func (m *DragMachine) positionFor(pointer canvas.Point) canvas.Point {
	topLeft := canvas.Point{X: pointer.X - m.GrabOffset.X, Y: pointer.Y - m.GrabOffset.Y}
	return canvas.ToPercent(topLeft, m.Canvas)
}

func (m *DragMachine) reset() {
	settle := m.SettleUntil
	*m = DragMachine{Phase: DragIdle, SettleUntil: settle}
}
