package renderer

import (
	"slices"
	"time"

	"github.com/pleimann/multipicture/internal/budget"
	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/imaging"
	"github.com/pleimann/multipicture/internal/source"
)

// slotListener routes a source client's callbacks for one slot. It never
// takes the renderer lock: results go to the loader queue and change
// notifications to the scheduler.
type slotListener struct {
	r *Renderer
	s *slot
}

func (l slotListener) OnReceiveNext(c *source.Content) {
	l.r.submitLoad(l.s, c, false)
}

func (l slotListener) OnNotifyChanged() {
	l.r.post(message{kind: msgContentChanged, slot: l.s})
}

func (l slotListener) OnStartFailed(err error) {
	l.r.post(message{kind: msgSourceFailed, slot: l.s, err: err})
}

// loadGlobal applies renderer-wide settings.
func (r *Renderer) loadGlobal(cfg *config.Config) {
	r.cfg = cfg
	r.transitions.Reset(cfg.Transition())
	r.reflectTop = cfg.Draw.Reflection.Top
	r.reflectBottom = cfg.ReflectBottom()
	r.changeTap = cfg.ChangeTap()
	r.changeDuration = time.Duration(cfg.ChangeDurationSec()) * time.Second
	r.useKeyguard = cfg.KeyguardEnabled()
	r.launcher = cfg.Workaround.Launcher
	r.memoryMB = cfg.MemoryMB()
	r.updateScreenSize()
}

// updateScreenSize recomputes the texture budget and re-uploads the
// spinner for the current surface.
func (r *Renderer) updateScreenSize() {
	count := r.cols * r.rows
	if r.useKeyguard {
		count++
	}
	r.budget = budget.Compute(r.memoryMB, count)

	if r.spinnerImg == nil {
		return
	}
	if id, ok := r.spinner.uploadedID(); ok {
		r.canvas.DeleteTexture(id)
	}
	r.spinner.handle = texEmpty{}
	id, err := r.canvas.UploadTexture(r.spinnerImg)
	if err != nil {
		r.log.Warn("spinner upload failed", "error", err)
		return
	}
	b := r.spinnerImg.Bounds()
	r.spinner.handle = texUploaded{id: id}
	r.spinner.widthRatio = float64(b.Dx()) / float64(r.width)
	r.spinner.heightRatio = float64(b.Dy()) / float64(r.height)
}

func (r *Renderer) allocateSlots() {
	n := r.cols * r.rows
	r.slots = make([]*slot, n)
	for i := range n {
		r.slots[i] = r.newSlot(i)
	}
	if r.useKeyguard {
		r.keyguard = r.newSlot(config.KeyguardIndex)
	}
}

// newSlot creates a slot in Blackout and starts its picture source in the
// background. A source that cannot be created leaves the slot NotAvailable;
// one that fails to start is reported later through sourceFailed.
func (r *Renderer) newSlot(idx int) *slot {
	sc := r.cfg.Screen(idx)
	s := &slot{
		index:            idx,
		loadingCount:     1,
		tex:              emptyTexture(),
		detectBackground: sc.DetectBackground,
		bgColor:          sc.BackgroundColor,
		clip:             sc.Clip,
		saturation:       sc.Saturation,
		opacity:          sc.Opacity,
		binding: source.Binding{
			Provider: sc.Source.Provider,
			Key:      sc.SourceKey,
			Source:   sc.Source,
		},
	}
	s.setStatus(Blackout)
	s.tex.bgColor = sc.BackgroundColor

	picker, err := r.registry.NewPicker(s.binding)
	if err == nil {
		client := source.NewClient(picker, r.screenHint(idx), slotListener{r: r, s: s})
		if err = client.Start(); err != nil {
			client.Stop()
		} else {
			s.client = client
		}
	}
	if err != nil {
		r.log.Warn("picture source unavailable", "screen", idx, "provider", s.binding.Provider, "error", err)
		r.setNotAvailable(s)
		s.loadingCount = 0
	}
	return s
}

func (r *Renderer) screenHint(idx int) source.ScreenHint {
	h := source.ScreenHint{
		Number:          idx,
		Columns:         r.cols,
		Rows:            r.rows,
		Column:          -1,
		Row:             -1,
		Width:           r.width,
		Height:          r.height,
		ChangeFrequency: int(r.changeDuration / time.Second),
	}
	if idx >= 0 {
		h.Column = idx % r.cols
		h.Row = idx / r.cols
	}
	return h
}

// stopSlot stops the slot's source and frees its texture.
func (r *Renderer) stopSlot(s *slot) {
	if s.client != nil {
		s.client.Stop()
		s.client = nil
	}
	r.dropTexture(s.tex)
	s.tex.handle = texEmpty{}
	s.tex.hasContent = false
}

// clearSlots discards every slot. They are recreated by the next visible
// frame.
func (r *Renderer) clearSlots() {
	for _, s := range r.slots {
		r.stopSlot(s)
	}
	r.slots = nil
	if r.keyguard != nil {
		r.stopSlot(r.keyguard)
		r.keyguard = nil
	}
}

// clearBitmaps drops every texture and sends slots back to Blackout so the
// next frame reloads their current pictures. Placeholders are redrawn for
// the current surface instead.
func (r *Renderer) clearBitmaps() {
	for _, s := range r.allSlots() {
		if s.status == NotAvailable && s.current == nil {
			r.setNotAvailable(s)
			continue
		}
		r.dropTexture(s.tex)
		s.tex.handle = texEmpty{}
		s.tex.hasContent = false
		s.setStatus(Blackout)
	}
}

// dropTexture frees a texture from the scheduler goroutine.
func (r *Renderer) dropTexture(t textureInfo) {
	if id, ok := t.uploadedID(); ok {
		r.canvas.DeleteTexture(id)
	}
}

// postDropTexture frees a texture from any goroutine.
func (r *Renderer) postDropTexture(t textureInfo) {
	if id, ok := t.uploadedID(); ok {
		r.post(message{kind: msgDeleteTexture, texture: id})
	}
}

func (r *Renderer) markRestart(providers []string) {
	for _, s := range r.allSlots() {
		if slices.Contains(providers, s.binding.Provider) {
			s.needRestart = true
		}
	}
}

func (r *Renderer) restartSlots() {
	for i, s := range r.slots {
		if s.needRestart {
			r.stopSlot(s)
			r.slots[i] = r.newSlot(i)
		}
	}
	if r.useKeyguard && r.keyguard != nil && r.keyguard.needRestart {
		r.stopSlot(r.keyguard)
		r.keyguard = r.newSlot(config.KeyguardIndex)
	}
}

func (r *Renderer) updateAll(fadeout bool) {
	for _, s := range r.allSlots() {
		r.updateScreen(s, fadeout)
	}
}

// updateScreen asks for the slot's next picture. While hidden the request
// is deferred until the renderer is shown.
func (r *Renderer) updateScreen(s *slot, fadeout bool) {
	if r.visible {
		if s.loadingCount == 0 && s.getNext() {
			s.loadingCount++
		}
		if fadeout && s.loadingCount != 0 {
			switch s.status {
			case Normal, FadeIn:
				s.setStatus(FadeOut)
			case NotAvailable:
				s.setStatus(Blackout)
			}
		}
		return
	}
	if !s.updatePending && s.loadingCount == 0 && s.client != nil {
		s.loadingCount++
		s.updatePending = true
	}
}

// sourceFailed marks a slot NotAvailable after its source failed to start.
func (r *Renderer) sourceFailed(s *slot, err error) {
	if r.slotAt(s.index) != s || s.client == nil {
		return
	}
	r.log.Warn("picture source unavailable", "screen", s.index, "provider", s.binding.Provider, "error", err)
	s.client.Stop()
	s.client = nil
	s.updatePending = false
	r.setNotAvailable(s)
	s.loadingCount = 0
	r.requestDraw()
}

// contentChanged handles a source's change notification.
func (r *Renderer) contentChanged(s *slot) {
	if r.slotAt(s.index) != s || s.client == nil {
		return
	}
	if r.visible {
		s.loadingCount++
		s.getNext()
	} else if !s.updatePending {
		s.loadingCount++
		s.updatePending = true
	}
	if s.status == NotAvailable {
		s.setStatus(Blackout)
		r.requestDraw()
	}
}

// setNotAvailable shows the "not available" placeholder in the slot.
func (r *Renderer) setNotAvailable(s *slot) {
	s.setStatus(NotAvailable)
	r.postDropTexture(s.tex)
	s.tex = textureInfo{handle: texEmpty{}, bgColor: 0xff000000}

	img, err := imaging.RenderStatusText(imaging.NotAvailableText(s.index)...)
	if err != nil {
		r.log.Warn("placeholder unavailable", "screen", s.index, "error", err)
		return
	}
	b := img.Bounds()
	s.tex.handle = texPending{img: img}
	s.tex.hasContent = true
	s.tex.widthRatio = float64(b.Dx()) / float64(r.width)
	s.tex.heightRatio = float64(b.Dy()) / float64(r.height)
	s.tex.format = imaging.ARGB4444
}
