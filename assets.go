package marionette

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Loader resolves assets with cache-by-key idempotence: loading an
// already-loaded resource returns the cached result immediately, including
// a cached failure. Everything runs on the game goroutine.
type Loader struct {
	cache map[string]loaderEntry
}

type loaderEntry struct {
	val any
	err error
}

// NewLoader creates an empty Loader.
func NewLoader() *Loader {
	return &Loader{cache: make(map[string]loaderEntry)}
}

// loadAs fetches the cached value for key or builds, caches, and returns it.
func loadAs[T any](l *Loader, key string, build func() (T, error)) (T, error) {
	if e, ok := l.cache[key]; ok {
		if e.err != nil {
			var zero T
			return zero, e.err
		}
		return e.val.(T), nil
	}
	v, err := build()
	l.cache[key] = loaderEntry{val: v, err: err}
	return v, err
}

// Loaded reports whether key resolved before, successfully or not.
func (l *Loader) Loaded(key string) bool {
	_, ok := l.cache[key]
	return ok
}

// FontFace returns a text face for the named family ("regular" or "bold")
// at the given pixel size. Sources are built once from the embedded Go
// fonts; faces are cached per size.
func (l *Loader) FontFace(family string, size float64) (*text.GoTextFace, error) {
	return loadAs(l, fmt.Sprintf("font:%s:%.1f", family, size), func() (*text.GoTextFace, error) {
		src, err := l.fontSource(family)
		if err != nil {
			return nil, err
		}
		return &text.GoTextFace{Source: src, Size: size}, nil
	})
}

func (l *Loader) fontSource(family string) (*text.GoTextFaceSource, error) {
	return loadAs(l, "fontsrc:"+family, func() (*text.GoTextFaceSource, error) {
		var ttf []byte
		switch family {
		case "bold":
			ttf = gobold.TTF
		default:
			ttf = goregular.TTF
		}
		src, err := text.NewGoTextFaceSource(bytes.NewReader(ttf))
		if err != nil {
			return nil, fmt.Errorf("font source %s: %w", family, err)
		}
		return src, nil
	})
}

// Image loads a PNG from disk. Missing paths are errors the caller decides
// how to degrade on.
func (l *Loader) Image(path string) (*ebiten.Image, error) {
	return loadAs(l, "image:"+path, func() (*ebiten.Image, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load image %s: %w", path, err)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", path, err)
		}
		return ebiten.NewImageFromImage(img), nil
	})
}
