package strip

import "fmt"

// Event types accepted by Dispatch, named after their DOM counterparts.
const (
	EventPointerDown = "pointerdown"
	EventPointerMove = "pointermove"
	EventPointerUp   = "pointerup"
	EventKeyDown     = "keydown"
)

// Event is an input event in serializable form. X is relative to the strip's
// left edge in CSS pixels; Key is used by keydown only.
type Event struct {
	Type string  `json:"type"`
	X    float64 `json:"x,omitempty"`
	Key  Key     `json:"key,omitempty"`
}

// Dispatch routes ev to the matching handler and reports whether it was handled.
func (s *Strip) Dispatch(ev Event) (bool, error) {
	switch ev.Type {
	case EventPointerDown:
		return s.PointerDown(ev.X), nil
	case EventPointerMove:
		return s.PointerMove(ev.X), nil
	case EventPointerUp:
		return s.PointerUp(ev.X), nil
	case EventKeyDown:
		return s.KeyDown(ev.Key), nil
	default:
		return false, fmt.Errorf("unknown event type %q", ev.Type)
	}
}
