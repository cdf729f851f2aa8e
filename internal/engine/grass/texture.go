package grass

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-grass/internal/engine/texture"
	"github.com/Faultbox/midgard-grass/internal/logger"
)

// fallbackTextureSize is the edge length of the white fallback texture.
const fallbackTextureSize = 4

// TextureSource returns the raw bytes of an asset.
type TextureSource func(path string) ([]byte, error)

// TextureState is the phase of the blade texture.
type TextureState uint8

const (
	TextureIdle TextureState = iota
	TextureLoading
	TextureReady
	TextureFailed
)

func (s TextureState) String() string {
	switch s {
	case TextureIdle:
		return "idle"
	case TextureLoading:
		return "loading"
	case TextureReady:
		return "ready"
	case TextureFailed:
		return "failed"
	}
	return fmt.Sprintf("TextureState(%d)", uint8(s))
}

type textureResult struct {
	generation uint64
	path       string
	img        *image.RGBA
	err        error
}

// TextureLoader loads the blade texture off the frame loop and hands the
// result back on Poll. Every Load bumps the generation; results from older
// generations are discarded when they arrive.
type TextureLoader struct {
	source  TextureSource
	maxSize int

	state      TextureState
	generation uint64
	path       string
	image      *image.RGBA
	err        error

	results chan textureResult
	done    chan struct{}
	closed  bool
	spawn   func(func())
}

// NewTextureLoader returns an idle loader. maxSize <= 0 keeps full resolution.
func NewTextureLoader(source TextureSource, maxSize int) *TextureLoader {
	return &TextureLoader{
		source:  source,
		maxSize: maxSize,
		results: make(chan textureResult, 8),
		done:    make(chan struct{}),
		spawn:   func(f func()) { go f() },
	}
}

// State returns the current phase.
func (l *TextureLoader) State() TextureState { return l.state }

// Generation returns the generation of the most recent Load.
func (l *TextureLoader) Generation() uint64 { return l.generation }

// Image returns the resolved image (the fallback after a failure).
func (l *TextureLoader) Image() *image.RGBA { return l.image }

// Err returns the error of the last failed load.
func (l *TextureLoader) Err() error { return l.err }

// Load starts loading path and returns the new generation.
func (l *TextureLoader) Load(path string) uint64 {
	l.generation++
	gen := l.generation
	l.state = TextureLoading
	l.path = path
	l.err = nil

	source, maxSize, results, done := l.source, l.maxSize, l.results, l.done
	l.spawn(func() {
		res := textureResult{generation: gen, path: path}
		res.img, res.err = fetchTexture(source, path, maxSize)
		select {
		case results <- res:
		case <-done:
		}
	})
	return gen
}

// Close releases loads still waiting to hand over a result. Their results
// are dropped; Poll keeps returning whatever was already resolved.
func (l *TextureLoader) Close() {
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
}

func fetchTexture(source TextureSource, path string, maxSize int) (*image.RGBA, error) {
	if source == nil {
		return nil, fmt.Errorf("no texture source for %s", path)
	}
	if path == "" {
		return nil, fmt.Errorf("empty texture path")
	}
	data, err := source(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	img, err := texture.Decode(data, path)
	if err != nil {
		return nil, err
	}
	return texture.Fit(img, maxSize), nil
}

// Poll drains finished loads without blocking. It returns the image and its
// generation when the current generation resolved during this call. A failed
// load resolves to the white fallback.
func (l *TextureLoader) Poll() (*image.RGBA, uint64, bool) {
	var resolved bool
	for {
		select {
		case res := <-l.results:
			if res.generation != l.generation || l.state != TextureLoading {
				logger.Debug("stale texture load discarded",
					zap.String("path", res.path),
					zap.Uint64("generation", res.generation),
					zap.Uint64("current", l.generation),
				)
				continue
			}
			if res.err != nil {
				logger.Warn("blade texture failed, using fallback",
					zap.String("path", res.path),
					zap.Error(res.err),
				)
				l.state = TextureFailed
				l.err = res.err
				l.image = texture.White(fallbackTextureSize)
			} else {
				l.state = TextureReady
				l.image = res.img
				logger.Debug("blade texture loaded",
					zap.String("path", res.path),
					zap.Int("width", res.img.Bounds().Dx()),
					zap.Int("height", res.img.Bounds().Dy()),
				)
			}
			resolved = true
		default:
			if resolved {
				return l.image, l.generation, true
			}
			return nil, l.generation, false
		}
	}
}
