package gesture

import (
	"sync"
	"time"
)

// buttonState follows one button through press, release and the wait for a
// second press.
type buttonState struct {
	pressed        bool
	waitingDouble  bool
	secondPress    bool
	longFired      bool
	longPressTimer *time.Timer
	doubleTimer    *time.Timer
}

// Detector recognises press, double press and long press on single
// buttons. Gestures are delivered from timer goroutines or from the caller
// of HandleRelease, never while the detector's lock is held.
type Detector struct {
	doublePressWindow  time.Duration
	longPressThreshold time.Duration
	onGesture          func(Gesture)

	mu     sync.Mutex
	states map[int]*buttonState
}

func NewDetector(doublePressWindow, longPressThreshold time.Duration, onGesture func(Gesture)) *Detector {
	return &Detector{
		doublePressWindow:  doublePressWindow,
		longPressThreshold: longPressThreshold,
		onGesture:          onGesture,
		states:             make(map[int]*buttonState),
	}
}

func (d *Detector) state(button int) *buttonState {
	s, ok := d.states[button]
	if !ok {
		s = &buttonState{}
		d.states[button] = s
	}
	return s
}

func (d *Detector) HandlePress(button int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state(button)
	s.pressed = true
	s.longFired = false

	if s.waitingDouble {
		// Second press: reported as a double press on release, and never
		// turns into a long press.
		stopTimer(&s.doubleTimer)
		s.waitingDouble = false
		s.secondPress = true
		return
	}

	s.longPressTimer = time.AfterFunc(d.longPressThreshold, func() {
		d.mu.Lock()
		fire := s.pressed && !s.longFired
		if fire {
			s.longFired = true
			s.longPressTimer = nil
		}
		d.mu.Unlock()
		if fire {
			d.onGesture(NewLongPressGesture(button))
		}
	})
}

func (d *Detector) HandleRelease(button int) {
	d.mu.Lock()
	s := d.state(button)
	if !s.pressed {
		d.mu.Unlock()
		return
	}
	s.pressed = false
	stopTimer(&s.longPressTimer)

	switch {
	case s.longFired:
		d.mu.Unlock()
		return
	case s.secondPress:
		s.secondPress = false
		d.mu.Unlock()
		d.onGesture(NewDoublePressGesture(button))
		return
	}

	s.waitingDouble = true
	s.doubleTimer = time.AfterFunc(d.doublePressWindow, func() {
		d.mu.Lock()
		fire := s.waitingDouble
		s.waitingDouble = false
		s.doubleTimer = nil
		d.mu.Unlock()
		if fire {
			d.onGesture(NewPressGesture(button))
		}
	})
	d.mu.Unlock()
}

// Stop cancels every pending gesture.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.states {
		stopTimer(&s.longPressTimer)
		stopTimer(&s.doubleTimer)
		s.waitingDouble = false
	}
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
