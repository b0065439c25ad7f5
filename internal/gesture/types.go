// Package gesture turns raw keypad button reports into presses, double
// presses, long presses and chords.
package gesture

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

type GestureType int

const (
	GesturePress GestureType = iota
	GestureDoublePress
	GestureLongPress
	GestureChord
)

func (g GestureType) String() string {
	switch g {
	case GesturePress:
		return "press"
	case GestureDoublePress:
		return "double_press"
	case GestureLongPress:
		return "long_press"
	case GestureChord:
		return "chord"
	default:
		return fmt.Sprintf("unknown(%d)", g)
	}
}

// Gesture is a recognised button gesture. Chord buttons are sorted.
type Gesture struct {
	Type    GestureType
	Buttons []int
}

func (g Gesture) String() string {
	return fmt.Sprintf("%s(%v)", g.Type, g.Buttons)
}

func NewPressGesture(button int) Gesture {
	return Gesture{Type: GesturePress, Buttons: []int{button}}
}

func NewDoublePressGesture(button int) Gesture {
	return Gesture{Type: GestureDoublePress, Buttons: []int{button}}
}

func NewLongPressGesture(button int) Gesture {
	return Gesture{Type: GestureLongPress, Buttons: []int{button}}
}

// NewChordGesture sorts buttons so that chords match regardless of the
// order the buttons went down.
func NewChordGesture(buttons []int) Gesture {
	sorted := slices.Clone(buttons)
	slices.Sort(sorted)
	return Gesture{Type: GestureChord, Buttons: sorted}
}

// MatchesChord reports whether g is the chord of exactly chordButtons.
func (g Gesture) MatchesChord(chordButtons []int) bool {
	if g.Type != GestureChord {
		return false
	}
	return slices.Equal(g.Buttons, NewChordGesture(chordButtons).Buttons)
}

// Key identifies the gesture in binding tables, e.g. "chord:0,2".
func (g Gesture) Key() string {
	parts := make([]string, len(g.Buttons))
	for i, b := range g.Buttons {
		parts[i] = strconv.Itoa(b)
	}
	return g.Type.String() + ":" + strings.Join(parts, ",")
}
