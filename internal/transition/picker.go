package transition

import (
	"math/rand/v2"
	"time"
)

// RandomTimeout is how long the view must rest between scrolls before a
// random transition changes to a new effect.
const RandomTimeout = 500 * time.Millisecond

// Picker resolves the random transition into concrete kinds.
type Picker struct {
	configured   Kind
	current      Kind
	inTransition bool
	restedAt     time.Time
	intn         func(n int) int
}

// NewPicker creates a picker for the configured kind. intn defaults to
// math/rand/v2.IntN when nil.
func NewPicker(configured Kind, intn func(n int) int) *Picker {
	if intn == nil {
		intn = rand.IntN
	}
	return &Picker{
		configured: configured,
		current:    configured,
		intn:       intn,
	}
}

// Configured returns the kind set by configuration.
func (p *Picker) Configured() Kind { return p.configured }

// Current returns the kind in effect for grid screens.
func (p *Picker) Current() Kind { return p.current }

// InTransition reports whether the last Select saw a non-zero delta.
func (p *Picker) InTransition() bool { return p.inTransition }

// Reset installs a new configured kind.
func (p *Picker) Reset(configured Kind) {
	p.configured = configured
	p.current = configured
}

// Pick draws a concrete kind different from prev.
func (p *Picker) Pick(prev Kind) Kind {
	for {
		k := RandomPool[p.intn(len(RandomPool))]
		if k != prev {
			return k
		}
	}
}

// Select updates the current kind for a frame with the given grid delta and
// returns it. A random configuration picks a fresh effect when a scroll
// starts after the view has rested for RandomTimeout.
func (p *Picker) Select(dx, dy float64, now time.Time) Kind {
	moving := dx != 0 || dy != 0
	if (!p.inTransition && p.configured == Random && moving &&
		p.restedAt.Add(RandomTimeout).Before(now)) ||
		p.current == Random {
		p.current = p.Pick(p.current)
	}

	if moving {
		p.inTransition = true
	} else {
		p.inTransition = false
		p.restedAt = now
	}
	return p.current
}
