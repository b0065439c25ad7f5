// Package action binds keypad gestures to renderer commands and carries
// them out.
package action

import (
	"fmt"
	"slices"

	"github.com/pleimann/multipicture/internal/config"
)

// Action is a renderer command a gesture can be bound to.
type Action string

const (
	ScrollLeft       Action = "scroll_left"
	ScrollRight      Action = "scroll_right"
	ScrollUp         Action = "scroll_up"
	ScrollDown       Action = "scroll_down"
	ChangePicture    Action = "change_picture"
	ToggleVisibility Action = "toggle_visibility"
	Unlock           Action = "unlock"
	Lock             Action = "lock"
)

// Parse checks name against the actions the config accepts.
func Parse(name string) (Action, error) {
	if !slices.Contains(config.Actions, name) {
		return "", fmt.Errorf("unknown action %q", name)
	}
	return Action(name), nil
}
