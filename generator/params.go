package generator

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	htmlrenderer "github.com/ByLCY/boleto/renderer/html"
)

// Parameter names an export setting of the HTML output.
type Parameter string

const (
	CharacterEncoding Parameter = "CHARACTER_ENCODING"
	ZoomRatio         Parameter = "ZOOM_RATIO"
	ImagesURI         Parameter = "IMAGES_URI"
)

const (
	DefaultCharacterEncoding = htmlrenderer.DefaultCharacterEncoding
	DefaultZoomRatio         = htmlrenderer.DefaultZoomRatio
	DefaultImagesURI         = "stella-boleto?image="
)

// SetParameter changes one export setting. Values are checked here so a
// bad setting fails before anything is rendered.
func (g *Generator) SetParameter(p Parameter, v any) error {
	switch p {
	case CharacterEncoding:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %s must be a non-empty string, got %v", ErrInvalidParameter, p, v)
		}
		if _, err := htmlindex.Get(s); err != nil {
			return fmt.Errorf("%w: %s %q is not a known encoding", ErrInvalidParameter, p, s)
		}
		g.encoding = s
	case ZoomRatio:
		zoom, err := toFloat(v)
		if err != nil || zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
			return fmt.Errorf("%w: %s must be a positive finite number, got %v", ErrInvalidParameter, p, v)
		}
		g.zoom = zoom
	case ImagesURI:
		s, ok := v.(string)
		if !ok || s == "" {
			return fmt.Errorf("%w: %s must be a non-empty string, got %v", ErrInvalidParameter, p, v)
		}
		g.imagesURI = s
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParameter, p)
	}
	return nil
}

// toFloat accepts any integer or float kind and numeric strings.
func toFloat(v any) (float64, error) {
	if s, ok := v.(string); ok {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanFloat():
		return rv.Float(), nil
	case rv.CanInt():
		return float64(rv.Int()), nil
	case rv.CanUint():
		return float64(rv.Uint()), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// Option configures a Generator.
type Option func(*Generator) error

func WithCharacterEncoding(name string) Option {
	return func(g *Generator) error { return g.SetParameter(CharacterEncoding, name) }
}

func WithZoomRatio(zoom float64) Option {
	return func(g *Generator) error { return g.SetParameter(ZoomRatio, zoom) }
}

func WithImagesURI(uri string) Option {
	return func(g *Generator) error { return g.SetParameter(ImagesURI, uri) }
}

func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) error {
		if log != nil {
			g.log = log
		}
		return nil
	}
}

// WithMinify strips whitespace from the HTML output.
func WithMinify(enabled bool) Option {
	return func(g *Generator) error {
		g.minify = enabled
		return nil
	}
}

// WithImageTTL sets how long ServeHTML keeps images in the store.
func WithImageTTL(ttl time.Duration) Option {
	return func(g *Generator) error {
		if ttl <= 0 {
			return fmt.Errorf("%w: image ttl must be positive, got %s", ErrInvalidParameter, ttl)
		}
		g.imageTTL = ttl
		return nil
	}
}
