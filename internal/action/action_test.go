package action

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/gesture"
	"github.com/pleimann/multipicture/internal/renderer"
)

type fakeTarget struct {
	mu      sync.Mutex
	offsets []renderer.Offsets
	taps    int
	visible []bool
	locked  []bool
}

func (f *fakeTarget) OnOffsetsChanged(o renderer.Offsets) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offsets = append(f.offsets, o)
}

func (f *fakeTarget) OnDoubleTap() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taps++
}

func (f *fakeTarget) OnVisibilityChanged(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = append(f.visible, v)
}

func (f *fakeTarget) SetLocked(l bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = append(f.locked, l)
}

func (f *fakeTarget) last() renderer.Offsets {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.offsets) == 0 {
		return renderer.Offsets{}
	}
	return f.offsets[len(f.offsets)-1]
}

func TestParse(t *testing.T) {
	if a, err := Parse("scroll_left"); err != nil || a != ScrollLeft {
		t.Errorf("Parse(scroll_left) = %q, %v", a, err)
	}
	if _, err := Parse("launch_rocket"); err == nil {
		t.Error("Parse(launch_rocket) succeeded")
	}
}

func TestMapper(t *testing.T) {
	cfg := &config.Config{
		Buttons: []config.Button{
			{Index: 0, Press: "scroll_left", DoublePress: "change_picture", LongPress: "lock"},
			{Index: 1, Press: "scroll_right"},
		},
		Chords: []config.Chord{
			{Buttons: []int{1, 0}, Action: "toggle_visibility"},
		},
	}
	m := NewMapper(cfg)

	tests := []struct {
		name    string
		gesture gesture.Gesture
		want    Action
		ok      bool
	}{
		{"press", gesture.NewPressGesture(0), ScrollLeft, true},
		{"double press", gesture.NewDoublePressGesture(0), ChangePicture, true},
		{"long press", gesture.NewLongPressGesture(0), Lock, true},
		{"other button", gesture.NewPressGesture(1), ScrollRight, true},
		{"chord any order", gesture.NewChordGesture([]int{0, 1}), ToggleVisibility, true},
		{"unbound gesture", gesture.NewLongPressGesture(1), "", false},
		{"unbound button", gesture.NewPressGesture(9), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Map(tt.gesture)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Map(%v) = %q, %v, want %q, %v", tt.gesture, got, ok, tt.want, tt.ok)
			}
		})
	}

	m.Reload(&config.Config{Buttons: []config.Button{{Index: 0, Press: "unlock"}}})
	if got, _ := m.Map(gesture.NewPressGesture(0)); got != Unlock {
		t.Errorf("after Reload Map(press:0) = %q, want unlock", got)
	}
	if _, ok := m.Map(gesture.NewPressGesture(1)); ok {
		t.Error("binding survived Reload")
	}
}

func TestExecutor(t *testing.T) {
	target := &fakeTarget{}
	e := NewExecutor(target, NewScroller(target, 3, 1, 100, 50, 0))

	for _, a := range []Action{ChangePicture, ToggleVisibility, ToggleVisibility, Lock, Unlock, ScrollRight} {
		if err := e.Execute(a); err != nil {
			t.Fatalf("Execute(%q) error = %v", a, err)
		}
	}
	if err := e.Execute("explode"); err == nil {
		t.Error("Execute(explode) succeeded")
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	if target.taps != 1 {
		t.Errorf("taps = %d, want 1", target.taps)
	}
	if len(target.visible) != 2 || target.visible[0] || !target.visible[1] {
		t.Errorf("visibility = %v, want [false true]", target.visible)
	}
	if len(target.locked) != 2 || !target.locked[0] || target.locked[1] {
		t.Errorf("locked = %v, want [true false]", target.locked)
	}
	if len(target.offsets) != 1 || target.offsets[0].X != 0.5 {
		t.Errorf("offsets = %+v, want one at X 0.5", target.offsets)
	}
}

func TestScrollerJump(t *testing.T) {
	target := &fakeTarget{}
	s := NewScroller(target, 5, 2, 100, 50, 0)

	s.Publish()
	if got := target.last(); got.X != 0 || got.XStep != 0.25 || got.YStep != 1 {
		t.Errorf("initial offsets = %+v", got)
	}

	s.Scroll(2, 1)
	want := renderer.Offsets{X: 0.5, XStep: 0.25, Y: 1, YStep: 1, XPixels: -200, YPixels: -50}
	if got := target.last(); got != want {
		t.Errorf("offsets = %+v, want %+v", got, want)
	}

	// Clamped at the edges.
	s.Scroll(10, 10)
	if got := target.last(); got.X != 1 || got.Y != 1 {
		t.Errorf("clamped offsets = %+v, want X 1 Y 1", got)
	}
	n := len(target.offsets)
	s.Scroll(1, 0)
	if len(target.offsets) != n {
		t.Error("scroll past the edge published offsets")
	}
}

func TestScrollerSingleScreen(t *testing.T) {
	target := &fakeTarget{}
	s := NewScroller(target, 1, 1, 100, 50, 0)
	s.Scroll(1, 0)
	s.Publish()
	if got := target.last(); got != (renderer.Offsets{}) {
		t.Errorf("offsets = %+v, want zero", got)
	}
}

func TestScrollerAnimates(t *testing.T) {
	target := &fakeTarget{}
	s := NewScroller(target, 3, 1, 100, 50, 80*time.Millisecond)
	defer s.Stop()

	s.Scroll(1, 0)
	s.Wait()

	target.mu.Lock()
	steps := append([]renderer.Offsets(nil), target.offsets...)
	target.mu.Unlock()

	if len(steps) < 2 {
		t.Fatalf("published %d offsets, want an animation", len(steps))
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].X < steps[i-1].X {
			t.Errorf("X went backwards at step %d: %v -> %v", i, steps[i-1].X, steps[i].X)
		}
	}
	if last := steps[len(steps)-1]; math.Abs(last.X-0.5) > 1e-9 {
		t.Errorf("final X = %v, want 0.5", last.X)
	}
	if x, _ := s.Position(); x != 1 {
		t.Errorf("Position() x = %v, want 1", x)
	}
}

func TestScrollerRetargets(t *testing.T) {
	target := &fakeTarget{}
	s := NewScroller(target, 5, 1, 100, 50, 60*time.Millisecond)
	defer s.Stop()

	s.Scroll(1, 0)
	time.Sleep(20 * time.Millisecond)
	s.Scroll(1, 0)
	s.Wait()

	if x, _ := s.Position(); math.Abs(x-2) > 1e-9 {
		t.Errorf("Position() x = %v, want 2", x)
	}
	if got := target.last().X; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("final X = %v, want 0.5", got)
	}
}

func TestScrollerResize(t *testing.T) {
	target := &fakeTarget{}
	s := NewScroller(target, 5, 1, 100, 50, 0)
	s.Scroll(4, 0)

	s.Resize(3, 1, 200, 80)
	want := renderer.Offsets{X: 1, XStep: 0.5, XPixels: -400}
	if got := target.last(); got != want {
		t.Errorf("offsets after shrink = %+v, want %+v", got, want)
	}
	if x, _ := s.Position(); x != 2 {
		t.Errorf("Position() x = %v, want 2", x)
	}

	s.Scroll(-1, 0)
	if got := target.last().X; got != 0.5 {
		t.Errorf("X after scroll = %v, want 0.5", got)
	}
}
