package gesture

import (
	"slices"
	"sync"
	"time"

	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/hid"
	"github.com/pleimann/multipicture/internal/logging"
)

// Engine recognises chords across buttons and hands single-button activity
// to a Detector. A button press is held back for the chord window so that
// a chord never also fires the gestures of its buttons.
type Engine struct {
	onGesture   func(Gesture)
	detector    *Detector
	chordWindow time.Duration

	mu           sync.Mutex
	pressed      map[int]bool
	chordPending bool
	chordTimer   *time.Timer
	delayed      map[int]*time.Timer
	stopped      bool
}

func NewEngine(timing config.TimingConfig, onGesture func(Gesture)) *Engine {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return &Engine{
		onGesture:   onGesture,
		detector:    NewDetector(ms(timing.DoublePressWindowMs), ms(timing.LongPressThresholdMs), onGesture),
		chordWindow: ms(timing.ChordWindowMs),
		pressed:     make(map[int]bool),
		delayed:     make(map[int]*time.Timer),
	}
}

// Stop cancels pending gestures. Events after Stop are ignored.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped = true
	if e.chordTimer != nil {
		e.chordTimer.Stop()
	}
	for _, t := range e.delayed {
		t.Stop()
	}
	e.mu.Unlock()
	e.detector.Stop()
}

// ProcessEvent feeds one keypad report. The report's mask is the set of
// buttons held after the event.
func (e *Engine) ProcessEvent(event hid.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}

	held := event.PressedButtons()
	switch event.Type {
	case hid.Press:
		e.handlePress(held)
	case hid.Release:
		e.handleRelease(held)
	}
}

func (e *Engine) handlePress(held []int) {
	var fresh []int
	for _, b := range held {
		if !e.pressed[b] {
			e.pressed[b] = true
			fresh = append(fresh, b)
		}
	}

	if len(e.pressed) > 1 {
		e.chordPending = true
		for b, t := range e.delayed {
			t.Stop()
			delete(e.delayed, b)
		}
		if e.chordTimer != nil {
			e.chordTimer.Stop()
		}
		e.chordTimer = time.AfterFunc(e.chordWindow, func() {
			e.mu.Lock()
			g, ok := e.takeChord()
			e.mu.Unlock()
			if ok {
				e.onGesture(g)
			}
		})
		return
	}

	for _, b := range fresh {
		e.delayed[b] = time.AfterFunc(e.chordWindow, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if _, ok := e.delayed[b]; !ok {
				return
			}
			delete(e.delayed, b)
			if !e.chordPending && !e.stopped {
				e.detector.HandlePress(b)
			}
		})
	}
}

func (e *Engine) handleRelease(held []int) {
	var released []int
	for b := range e.pressed {
		if !slices.Contains(held, b) {
			released = append(released, b)
		}
	}
	slices.Sort(released)

	var chord *Gesture
	if e.chordPending && len(released) > 0 {
		if g, ok := e.takeChord(); ok {
			chord = &g
		}
	}

	for _, b := range released {
		delete(e.pressed, b)
		if t, ok := e.delayed[b]; ok {
			// Released inside the chord window: the press was never
			// handed over, so hand over both now.
			t.Stop()
			delete(e.delayed, b)
			if !e.chordPending {
				e.detector.HandlePress(b)
			}
		}
		if !e.chordPending {
			e.detector.HandleRelease(b)
		}
	}

	if len(e.pressed) == 0 {
		e.chordPending = false
	}
	if chord != nil {
		logging.For("gesture").Debug("chord", "buttons", chord.Buttons)
		e.onGesture(*chord)
	}
}

// takeChord ends a pending chord. Callers hold mu.
func (e *Engine) takeChord() (Gesture, bool) {
	if !e.chordPending || len(e.pressed) < 2 {
		return Gesture{}, false
	}
	buttons := make([]int, 0, len(e.pressed))
	for b := range e.pressed {
		buttons = append(buttons, b)
	}
	e.pressed = make(map[int]bool)
	if e.chordTimer != nil {
		e.chordTimer.Stop()
		e.chordTimer = nil
	}
	return NewChordGesture(buttons), true
}
