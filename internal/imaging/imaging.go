// Package imaging turns picture files into textures sized for the screen
// and the memory budget, and renders the placeholder textures shown while a
// picture is missing or loading.
package imaging

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnavailable marks a picture that could not be turned into a texture.
var ErrUnavailable = errors.New("picture unavailable")

// Opener opens the byte stream behind a content URI.
type Opener interface {
	Open(uri string) (io.ReadCloser, error)
}

// FileOpener opens plain paths and file:// URIs.
type FileOpener struct{}

// Open implements Opener.
func (FileOpener) Open(uri string) (io.ReadCloser, error) {
	path := uri
	if strings.HasPrefix(uri, "file:") {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", uri, err)
		}
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// LeastPowerOf2GE returns the smallest power of two that is >= n.
func LeastPowerOf2GE(n int) int {
	x := 1
	for x < n {
		x *= 2
	}
	return x
}

// NormalizeOrientation folds any rotation in degrees into [0, 360).
func NormalizeOrientation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
