package action

import (
	"fmt"
	"sync"

	"github.com/pleimann/multipicture/internal/logging"
)

// Target is the renderer as seen by the keypad.
type Target interface {
	OffsetSink
	OnDoubleTap()
	OnVisibilityChanged(visible bool)
	SetLocked(locked bool)
}

// Executor carries out actions against a Target.
type Executor struct {
	target   Target
	scroller *Scroller

	mu      sync.Mutex
	visible bool
}

// NewExecutor assumes the target starts out visible.
func NewExecutor(target Target, scroller *Scroller) *Executor {
	return &Executor{target: target, scroller: scroller, visible: true}
}

func (e *Executor) Execute(a Action) error {
	logging.For("action").Debug("execute", "action", string(a))

	switch a {
	case ScrollLeft:
		e.scroller.Scroll(-1, 0)
	case ScrollRight:
		e.scroller.Scroll(1, 0)
	case ScrollUp:
		e.scroller.Scroll(0, -1)
	case ScrollDown:
		e.scroller.Scroll(0, 1)
	case ChangePicture:
		e.target.OnDoubleTap()
	case ToggleVisibility:
		e.mu.Lock()
		e.visible = !e.visible
		visible := e.visible
		e.mu.Unlock()
		e.target.OnVisibilityChanged(visible)
	case Unlock:
		e.target.SetLocked(false)
	case Lock:
		e.target.SetLocked(true)
	default:
		return fmt.Errorf("unknown action %q", a)
	}
	return nil
}
