package imaging

import (
	"strings"
	"testing"
)

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

func TestRenderStatusText(t *testing.T) {
	img, err := RenderStatusText(NotAvailableText(2)...)
	if err != nil {
		t.Fatalf("RenderStatusText: %v", err)
	}
	b := img.Bounds()
	if !isPow2(b.Dx()) || !isPow2(b.Dy()) {
		t.Errorf("size %v is not power-of-two", b.Size())
	}

	lit := false
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Error("no text pixels drawn")
	}
	if img.RGBAAt(0, 0).A != 0 {
		t.Error("corner pixel should stay transparent")
	}
}

func TestNotAvailableText(t *testing.T) {
	if got := NotAvailableText(0)[0]; !strings.Contains(got, "Picture 1") {
		t.Errorf("first screen text = %q", got)
	}
	if got := NotAvailableText(-1)[0]; !strings.Contains(got, "Keyguard") {
		t.Errorf("keyguard text = %q", got)
	}
}

func TestSpinnerTexture(t *testing.T) {
	img, err := SpinnerTexture(0)
	if err != nil {
		t.Fatalf("SpinnerTexture: %v", err)
	}
	if got := img.Bounds().Dx(); got != 128 {
		t.Errorf("width = %d, want 128", got)
	}
	// The top spoke is fully opaque just below the top edge of the icon.
	if a := img.RGBAAt(64, 16+15).A; a == 0 {
		t.Error("top spoke not drawn")
	}
}
