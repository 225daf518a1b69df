package signing

import "esign-canvas/internal/domain/entity"

// Strategy is how a field is presented on the signer canvas.
type Strategy string

const (
	// BakedCheckbox draws a rounded box, with a checkmark when toggled, into the page pixels.
	BakedCheckbox Strategy = "baked_checkbox"
	// BakedSignature draws the captured ink or a dashed placeholder into the page pixels.
	BakedSignature Strategy = "baked_signature"
	// BakedDisplay draws a read-only value over a translucent fill into the page pixels.
	BakedDisplay Strategy = "baked_display"
	// DOMOverlay leaves the field to a live input positioned over the canvas.
	DOMOverlay Strategy = "dom_overlay"
)

var strategies = map[entity.FieldType]Strategy{
	entity.FieldCheckbox:  BakedCheckbox,
	entity.FieldSignature: BakedSignature,
	entity.FieldName:      BakedDisplay,
	entity.FieldEmail:     BakedDisplay,
	entity.FieldPhone:     BakedDisplay,
	entity.FieldText:      DOMOverlay,
	entity.FieldDate:      DOMOverlay,
}

// StrategyFor picks the presentation of a tab. A content_type of text or date makes
// an otherwise display-only field editable.
func StrategyFor(tab entity.SignerTab) Strategy {
	switch tab.TabType {
	case entity.FieldSignature, entity.FieldCheckbox:
		return strategies[tab.TabType]
	}
	if ct := entity.FieldType(tab.ContentType); ct.Editable() {
		return DOMOverlay
	}
	if s, ok := strategies[tab.TabType]; ok {
		return s
	}
	return BakedDisplay
}

// Clickable reports whether a click on the canvas can act on the field.
func (s Strategy) Clickable() bool {
	return s == BakedSignature || s == BakedCheckbox
}
