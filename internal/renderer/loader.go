package renderer

import (
	"errors"

	"github.com/pleimann/multipicture/internal/imaging"
	"github.com/pleimann/multipicture/internal/source"
)

// loadRequest asks the loader to show content in a slot. A nil content
// means "nothing new"; with forceReload the current picture is decoded
// again.
type loadRequest struct {
	index       int
	slot        *slot
	content     *source.Content
	forceReload bool
}

func (r *Renderer) submitLoad(s *slot, c *source.Content, force bool) {
	r.loads.push(loadRequest{index: s.index, slot: s, content: c, forceReload: force})
}

func (r *Renderer) loadLoop() {
	defer r.wg.Done()
	for {
		req, ok := r.loads.pop()
		if !ok {
			select {
			case <-r.quit:
				return
			case <-r.loads.wake:
			}
			continue
		}
		r.load(req)
	}
}

// load decodes one picture outside the lock and installs it once the slot
// has finished fading out.
func (r *Renderer) load(req loadRequest) {
	s := req.slot
	content := req.content
	if content != nil && content.URI == "" {
		content = nil
	}

	r.mu.Lock()
	if r.closed || r.slotAt(req.index) != s {
		r.mu.Unlock()
		return
	}

	if content == nil {
		switch {
		case (req.forceReload || !s.tex.hasContent) && s.current != nil:
			content, s.current = s.current, nil
		case !s.tex.hasContent:
			r.setNotAvailable(s)
			s.doneLoading()
			r.mu.Unlock()
			r.requestDraw()
			return
		default:
			// Keep showing the picture already loaded.
			s.doneLoading()
			switch s.status {
			case Blackout, Spinner, FadeOut:
				s.setStatus(FadeIn)
			}
			r.mu.Unlock()
			r.requestDraw()
			return
		}
	}

	if s.status == NotAvailable || !s.tex.hasContent {
		if s.status != Spinner {
			s.setStatus(Blackout)
		}
	} else if s.status == Normal || s.status == FadeIn {
		s.setStatus(FadeOut)
	}

	width, height := r.width, r.height
	ireq := imaging.Request{
		URI:         content.URI,
		Orientation: content.Orientation,
		Width:       width,
		Height:      height,
		ClipRatio:   s.clip,
		Saturation:  s.saturation,
		Budget:      r.budget,
	}
	detect, bg := s.detectBackground, s.bgColor
	r.mu.Unlock()
	r.requestDraw()

	var loaded *textureInfo
	tex, err := r.pipeline.Load(r.ctx, ireq)
	switch {
	case err == nil:
		ti := textureInfo{
			handle:           texPending{img: tex.Image},
			hasContent:       true,
			enableReflection: true,
			widthRatio:       tex.WidthRatio,
			heightRatio:      tex.HeightRatio,
			bgColor:          bg,
			format:           tex.Format,
		}
		if detect {
			ti.bgColor = imaging.DetectBackgroundColor(tex.Image, tex.WidthRatio, tex.HeightRatio)
		}
		loaded = &ti
	case errors.Is(err, imaging.ErrUnavailable):
		r.log.Info("picture unavailable", "screen", req.index, "uri", content.URI, "error", err)
	default:
		r.log.Debug("picture load abandoned", "screen", req.index, "uri", content.URI, "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if r.closed || r.slotAt(req.index) != s {
			return
		}
		if width != r.width || height != r.height {
			r.loads.push(loadRequest{index: req.index, slot: s, content: content, forceReload: req.forceReload})
			return
		}
		if s.status != Blackout && s.status != Spinner {
			// Wait for the fade-out to finish.
			r.cond.Wait()
			continue
		}
		break
	}

	if loaded != nil {
		r.postDropTexture(s.tex)
		s.current = content
		s.tex = *loaded
	}

	switch {
	case s.tex.hasContent:
		s.setStatus(FadeIn)
	case s.current != nil:
		// Reload the current picture without touching the status.
		r.submitLoad(s, nil, true)
		return
	default:
		r.setNotAvailable(s)
	}
	s.doneLoading()
	r.requestDraw()
}
