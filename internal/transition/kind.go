// Package transition computes how a screen is placed while the user scrolls
// between two neighbouring screens.
package transition

import (
	"fmt"
	"strings"
)

// Kind names a transition effect.
type Kind int

const (
	None Kind = iota
	Random
	Slide
	Crossfade
	FadeInOut
	ZoomInOut
	Wipe
	Card
	Slide3D
	Rotation3D
	Swing
	Swap
	Cube
)

var kindNames = [...]string{
	None:       "none",
	Random:     "random",
	Slide:      "slide",
	Crossfade:  "crossfade",
	FadeInOut:  "fade_inout",
	ZoomInOut:  "zoom_inout",
	Wipe:       "wipe",
	Card:       "card",
	Slide3D:    "slide_3d",
	Rotation3D: "rotation_3d",
	Swing:      "swing",
	Swap:       "swap",
	Cube:       "cube",
}

// Default is used when nothing is configured.
const Default = Slide

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return None, fmt.Errorf("unknown transition %q", s)
}

// All returns every kind in declaration order.
func All() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// RandomPool is the set random selection draws from.
var RandomPool = []Kind{
	Slide, Crossfade, FadeInOut, ZoomInOut, Wipe, Card,
	Slide3D, Rotation3D, Swing, Swap, Cube,
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid transition %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
