package canvas

import (
	"image"
	"sync"

	"github.com/pleimann/multipicture/internal/geom"
)

// OpKind identifies a recorded drawing call.
type OpKind int

const (
	OpBackground OpKind = iota
	OpTexture
	OpRect
	OpClip
	OpClearClip
	OpSwap
)

func (k OpKind) String() string {
	switch k {
	case OpBackground:
		return "background"
	case OpTexture:
		return "texture"
	case OpRect:
		return "rect"
	case OpClip:
		return "clip"
	case OpClearClip:
		return "clear_clip"
	case OpSwap:
		return "swap"
	}
	return "unknown"
}

// Op is one recorded call.
type Op struct {
	Kind    OpKind
	Matrix  geom.Matrix
	Texture TextureID
	Alpha   float64
	Fade    float64
	Fill    *Color
	Border  *Color
	Clip    geom.Rect
	Color   Color
}

// Recorder is a Canvas that only remembers what was asked of it.
type Recorder struct {
	mu       sync.Mutex
	width    int
	height   int
	ops      []Op
	frames   [][]Op
	textures map[TextureID]image.Rectangle
	nextID   TextureID
	uploads  int
	deletes  int

	// SwapResult is returned from Swap. NewRecorder sets it to true.
	SwapResult bool
	// UploadErr, when set, fails every UploadTexture.
	UploadErr error
}

func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		width:      width,
		height:     height,
		textures:   make(map[TextureID]image.Rectangle),
		SwapResult: true,
	}
}

func (r *Recorder) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	return nil
}

func (r *Recorder) UploadTexture(img image.Image) (TextureID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UploadErr != nil {
		return 0, r.UploadErr
	}
	r.nextID++
	r.uploads++
	r.textures[r.nextID] = img.Bounds()
	return r.nextID, nil
}

func (r *Recorder) DeleteTexture(id TextureID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.textures[id]; ok {
		r.deletes++
		delete(r.textures, id)
	}
}

func (r *Recorder) DrawTexture(m geom.Matrix, id TextureID, alpha, fade float64) {
	r.record(Op{Kind: OpTexture, Matrix: m, Texture: id, Alpha: alpha, Fade: fade})
}

func (r *Recorder) DrawRect(m geom.Matrix, fill, border *Color) {
	r.record(Op{Kind: OpRect, Matrix: m, Fill: copyColor(fill), Border: copyColor(border)})
}

func (r *Recorder) SetClipRect(rect geom.Rect) {
	r.record(Op{Kind: OpClip, Clip: rect})
}

func (r *Recorder) ClearClipRect() {
	r.record(Op{Kind: OpClearClip})
}

func (r *Recorder) DrawBackground(c Color) {
	r.record(Op{Kind: OpBackground, Color: c})
}

func (r *Recorder) Swap() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, Op{Kind: OpSwap})
	r.frames = append(r.frames, r.ops)
	r.ops = nil
	return r.SwapResult
}

func (r *Recorder) record(op Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

// Frames returns every presented frame's calls.
func (r *Recorder) Frames() [][]Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]Op, len(r.frames))
	copy(out, r.frames)
	return out
}

// FrameCount reports how many times Swap was called.
func (r *Recorder) FrameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// LastFrame returns the calls of the most recent frame, or nil.
func (r *Recorder) LastFrame() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

// Resident reports how many textures are uploaded and not deleted.
func (r *Recorder) Resident() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures)
}

// Uploads reports the total number of successful uploads.
func (r *Recorder) Uploads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uploads
}

// Size returns the last size passed to Resize.
func (r *Recorder) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func copyColor(c *Color) *Color {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
