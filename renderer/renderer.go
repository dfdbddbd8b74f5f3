// Package renderer defines the output side of the layout engine and the
// asset lookup shared by every output format.
package renderer

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/boleto/fonts"
	"github.com/ByLCY/boleto/layout"
)

// Renderer turns a layout result into a finished document.
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Exporter streams a finished document to w.
type Exporter interface {
	Export(w io.Writer, result *layout.Result) error
}

const builtinPrefix = "built-in:"

var ErrAssetNotFound = errors.New("renderer: asset not found")

// Assets resolves image and font references found in a layout result:
// built-in:<name> blobs registered in memory, embed:<name> fonts and paths
// relative to BaseDir.
type Assets struct {
	BaseDir string
	Images  map[string][]byte
	Fonts   map[string][]byte
}

// NewAssets returns assets rooted at baseDir.
func NewAssets(baseDir string) *Assets {
	return &Assets{BaseDir: baseDir, Images: map[string][]byte{}, Fonts: map[string][]byte{}}
}

// AddImage registers data as built-in:<name>.
func (a *Assets) AddImage(name string, data []byte) {
	if a.Images == nil {
		a.Images = map[string][]byte{}
	}
	a.Images[name] = data
}

// AddFont registers data as built-in:<name>.
func (a *Assets) AddFont(name string, data []byte) {
	if a.Fonts == nil {
		a.Fonts = map[string][]byte{}
	}
	a.Fonts[name] = data
}

// Clone copies the registries so callers can add per-run images.
func (a *Assets) Clone() *Assets {
	if a == nil {
		return NewAssets("")
	}
	return &Assets{BaseDir: a.BaseDir, Images: maps.Clone(a.Images), Fonts: maps.Clone(a.Fonts)}
}

// Image returns the bytes behind an image reference.
func (a *Assets) Image(ref string) ([]byte, error) {
	if name, ok := BuiltinName(ref); ok {
		if a != nil {
			if data, ok := a.Images[name]; ok {
				return data, nil
			}
		}
		return nil, fmt.Errorf("%w: image %s", ErrAssetNotFound, ref)
	}
	if strings.HasPrefix(ref, "embed:") {
		return nil, fmt.Errorf("%w: embed: only serves fonts, got image %s", ErrAssetNotFound, ref)
	}
	return a.readFile(ref)
}

// Font returns the bytes behind a font source.
func (a *Assets) Font(src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty font source", ErrAssetNotFound)
	}
	if name, ok := BuiltinName(src); ok {
		if a != nil {
			if data, ok := a.Fonts[name]; ok {
				return data, nil
			}
		}
		return nil, fmt.Errorf("%w: font %s", ErrAssetNotFound, src)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	return a.readFile(src)
}

// readFile only allows relative paths when a base directory is set.
func (a *Assets) readFile(path string) ([]byte, error) {
	if !filepath.IsAbs(path) {
		if a == nil || a.BaseDir == "" {
			return nil, fmt.Errorf("%w: relative path %s without a base directory", ErrAssetNotFound, path)
		}
		path = filepath.Join(a.BaseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// BuiltinName strips the built-in: (or builtin:) prefix from ref.
func BuiltinName(ref string) (string, bool) {
	for _, prefix := range []string{builtinPrefix, "builtin:"} {
		if name, ok := strings.CutPrefix(ref, prefix); ok {
			return name, true
		}
	}
	return "", false
}

// Builtin formats name as a built-in reference.
func Builtin(name string) string { return builtinPrefix + name }

// FontFor picks the font resource a text box refers to, falling back to Body
// and then to any declared font.
func FontFor(name string, declared map[string]layout.FontResource) layout.FontResource {
	if font, ok := declared[name]; ok {
		return font
	}
	if font, ok := declared["Body"]; ok {
		return font
	}
	for _, font := range declared {
		return font
	}
	return layout.FontResource{Name: "Body", Src: layout.DefaultFontSrc}
}
