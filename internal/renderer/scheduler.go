package renderer

import (
	"time"

	"github.com/pleimann/multipicture/internal/canvas"
	"github.com/pleimann/multipicture/internal/config"
)

type msgKind int

const (
	msgInit msgKind = iota
	msgDestroy
	msgShow
	msgHide
	msgDrawStep
	msgSettings
	msgOffsets
	msgSurface
	msgLock
	msgUnlock
	msgChangeByTap
	msgChangeByTime
	msgProviders
	msgDeleteTexture
	msgContentChanged
	msgSourceFailed
	msgLowMemory
	msgSync
)

type message struct {
	kind      msgKind
	gen       int
	cfg       *config.Config
	reload    bool
	offsets   Offsets
	width     int
	height    int
	providers []string
	texture   canvas.TextureID
	slot      *slot
	err       error
	done      chan struct{}
}

// run is the scheduler goroutine. It is the only user of the canvas.
func (r *Renderer) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.drawReq:
			r.frame(false)
		case <-r.mail.wake:
			for {
				m, ok := r.mail.pop()
				if !ok {
					break
				}
				if !r.handle(m) {
					return
				}
			}
		}
	}
}

// frame draws under the lock and wakes loaders waiting for a fade-out.
func (r *Renderer) frame(step bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draw(step)
	r.cond.Broadcast()
}

// handle processes one message. It returns false once the renderer is
// destroyed.
func (r *Renderer) handle(m message) bool {
	switch m.kind {
	case msgInit:
		r.mu.Lock()
		if err := r.canvas.Resize(r.width, r.height); err != nil {
			r.log.Warn("canvas resize failed", "width", r.width, "height", r.height, "error", err)
		}
		r.loadGlobal(r.cfg)
		r.mu.Unlock()

	case msgDestroy:
		r.destroy()
		return false

	case msgDrawStep:
		r.mu.Lock()
		current := m.gen == r.stepGen
		r.mu.Unlock()
		if current {
			r.frame(true)
		}

	case msgShow:
		r.mu.Lock()
		r.visible = true
		if r.durationPending {
			r.armChangeTimer()
		}
		for _, s := range r.allSlots() {
			if s.updatePending {
				s.getNext()
			}
			s.updatePending = false
		}
		r.mu.Unlock()
		r.requestDraw()

	case msgHide:
		r.mu.Lock()
		r.visible = false
		r.mu.Unlock()

	case msgSettings:
		r.mu.Lock()
		if m.reload {
			r.clearSlots()
		}
		r.loadGlobal(m.cfg)
		r.mu.Unlock()
		r.requestDraw()

	case msgOffsets:
		r.mu.Lock()
		r.changeOffsets(m.offsets)
		r.mu.Unlock()
		r.requestDraw()

	case msgSurface:
		r.mu.Lock()
		if m.width > 0 && m.height > 0 && (m.width != r.width || m.height != r.height) {
			if err := r.canvas.Resize(m.width, m.height); err != nil {
				r.log.Warn("canvas resize failed", "width", m.width, "height", m.height, "error", err)
			}
			r.width, r.height = m.width, m.height
			r.updateScreenSize()
			r.clearBitmaps()
		}
		r.mu.Unlock()
		r.requestDraw()

	case msgLock:
		r.mu.Lock()
		r.locked = true
		r.mu.Unlock()
		r.requestDraw()

	case msgUnlock:
		r.mu.Lock()
		r.locked = false
		r.keyguardPrev = r.clock.Now()
		r.mu.Unlock()
		r.requestDraw()

	case msgChangeByTap:
		r.mu.Lock()
		if r.changeTap {
			r.updateAll(true)
			r.armChangeTimer()
			r.requestDraw()
		}
		r.mu.Unlock()

	case msgChangeByTime:
		r.mu.Lock()
		if m.gen == r.changeGen {
			r.updateAll(false)
			r.armChangeTimer()
			r.requestDraw()
		}
		r.mu.Unlock()

	case msgProviders:
		r.mu.Lock()
		r.markRestart(m.providers)
		r.mu.Unlock()
		r.requestDraw()

	case msgDeleteTexture:
		r.canvas.DeleteTexture(m.texture)

	case msgContentChanged:
		r.mu.Lock()
		r.contentChanged(m.slot)
		r.mu.Unlock()

	case msgSourceFailed:
		r.mu.Lock()
		r.sourceFailed(m.slot, m.err)
		r.mu.Unlock()

	case msgLowMemory:
		r.mu.Lock()
		r.clearBitmaps()
		r.mu.Unlock()
		r.requestDraw()

	case msgSync:
		close(m.done)
	}
	return true
}

// draw runs one frame. Callers hold mu.
func (r *Renderer) draw(step bool) {
	select {
	case <-r.drawReq:
	default:
	}
	if r.closed {
		return
	}

	now := r.clock.Now()
	var duration time.Duration

	r.updateKeyguard(now)
	r.restartSlots()

	if r.slots != nil && (step || r.lastDuration == 0) {
		duration = r.updateStatus(r.lastDuration)
	}

	if !r.visible {
		if step || duration > 0 {
			r.lastDuration = duration
		}
		return
	}

	if r.slots == nil {
		r.allocateSlots()
		r.armChangeTimer()
		duration = r.updateStatus(0)
	}

	for _, s := range r.allSlots() {
		if s.loadingCount == 0 && s.current != nil && !s.tex.hasContent {
			s.loadingCount++
			r.submitLoad(s, nil, true)
		}
	}

	r.uploadPending()
	r.drawScene(now)
	if !r.canvas.Swap() {
		r.log.Debug("frame was not presented")
	}
	r.frames++

	if duration > 0 {
		r.lastDuration = duration
		r.scheduleStep(duration)
	} else if step {
		r.lastDuration = 0
	}
}

// updateKeyguard works out how far the keyguard screen has faded.
func (r *Renderer) updateKeyguard(now time.Time) {
	if !r.useKeyguard {
		r.keyguardDX = 1
		r.keyguardVisible = false
		return
	}
	if r.locked {
		r.keyguardPrev = now
	}
	dx := 1.0
	if !r.keyguardPrev.IsZero() {
		dx = clampUnit(float64(now.Sub(r.keyguardPrev)) / float64(KeyguardFadeDuration))
	}
	r.keyguardDX = dx
	r.keyguardVisible = r.visible && (r.locked || dx < 1)
}

// updateStatus advances every slot by step and returns the delay until the
// next frame is needed, or zero when nothing is animating.
func (r *Renderer) updateStatus(step time.Duration) time.Duration {
	var next time.Duration
	want := func(d time.Duration) {
		if next == 0 || d < next {
			next = d
		}
	}

	tick := func(s *slot, visible, keyguard bool) {
		switch s.status {
		case FadeIn:
			if !visible || s.progress >= FadeTotalDuration {
				s.setStatus(Normal)
			}
		case FadeOut:
			if !visible || s.progress >= FadeTotalDuration {
				s.setStatus(Blackout)
			}
		case Blackout:
			if !visible || s.progress >= BlackoutTotalDuration {
				s.setStatus(Spinner)
			}
		}

		if visible {
			switch s.status {
			case Blackout, FadeIn, FadeOut:
				want(FadeFrameDuration)
			case Spinner:
				want(SpinnerFrameDuration)
			}
			if keyguard && !r.locked {
				want(KeyguardFrameDuration)
			}
		}
		s.progress += step
	}

	if r.useKeyguard && r.keyguard != nil {
		if !r.keyguardVisible {
			r.keyguardPrev = time.Time{}
			r.keyguardDX = 1
		}
		tick(r.keyguard, r.keyguardVisible, true)
	}
	for i, s := range r.slots {
		tick(s, r.gridVisible(i), false)
	}
	return next
}

// gridVisible reports whether grid slot i is at least partly on screen.
func (r *Renderer) gridVisible(i int) bool {
	col := float64(i % r.cols)
	row := float64(i / r.cols)
	return r.visible && abs(col-r.xcur) < 1 && abs(row-r.ycur) < 1
}

func (r *Renderer) scheduleStep(d time.Duration) {
	if r.stepTimer != nil {
		r.stepTimer.Stop()
	}
	r.stepGen++
	gen := r.stepGen
	r.stepTimer = r.clock.AfterFunc(d, func() {
		r.post(message{kind: msgDrawStep, gen: gen})
	})
}

// armChangeTimer restarts the automatic picture change. While hidden the
// timer is only marked pending and armed on show.
func (r *Renderer) armChangeTimer() {
	if r.changeTimer != nil {
		r.changeTimer.Stop()
		r.changeTimer = nil
	}
	r.changeGen++
	if r.changeDuration <= 0 {
		return
	}
	if !r.visible {
		r.durationPending = true
		return
	}
	gen := r.changeGen
	r.changeTimer = r.clock.AfterFunc(r.changeDuration, func() {
		r.post(message{kind: msgChangeByTime, gen: gen})
	})
	r.durationPending = false
}

func (r *Renderer) stopTimers() {
	if r.stepTimer != nil {
		r.stepTimer.Stop()
		r.stepTimer = nil
	}
	if r.changeTimer != nil {
		r.changeTimer.Stop()
		r.changeTimer = nil
	}
	r.stepGen++
	r.changeGen++
}

// uploadPending moves decoded pixels onto the canvas.
func (r *Renderer) uploadPending() {
	for _, s := range r.allSlots() {
		p, ok := s.tex.handle.(texPending)
		if !ok || !s.tex.hasContent {
			continue
		}
		id, err := r.canvas.UploadTexture(p.img)
		if err != nil {
			r.log.Warn("texture upload failed", "screen", s.index, "error", err)
			s.tex.handle = texEmpty{}
			s.tex.hasContent = false
			continue
		}
		s.tex.handle = texUploaded{id: id}
	}
}

// destroy stops every source and releases the canvas textures.
func (r *Renderer) destroy() {
	r.mu.Lock()
	r.clearSlots()
	r.stopTimers()
	if id, ok := r.spinner.uploadedID(); ok {
		r.canvas.DeleteTexture(id)
	}
	r.spinner.handle = texEmpty{}
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()

	r.cancel()
	close(r.quit)
}
