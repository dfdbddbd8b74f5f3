package htmlrenderer

import (
	"encoding/base64"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// ImageHandler decides how an image embedded in the page is referenced. It
// receives a stable id and the image bytes and returns the src attribute.
type ImageHandler interface {
	HandleImage(id string, data []byte) (src string, err error)
}

// InlineImages embeds every image as a base64 data URI, producing a
// self-contained document.
type InlineImages struct{}

func (InlineImages) HandleImage(_ string, data []byte) (string, error) {
	return DataURI(data), nil
}

// DataURI encodes data as data:<sniffed mime>;base64,<payload>.
func DataURI(data []byte) string {
	return "data:" + mimetype.Detect(data).String() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// URIImages references images as Prefix+id and keeps the bytes so they can
// be served later.
type URIImages struct {
	Prefix string

	mu     sync.Mutex
	images map[string][]byte
}

func NewURIImages(prefix string) *URIImages {
	return &URIImages{Prefix: prefix, images: map[string][]byte{}}
}

func (u *URIImages) HandleImage(id string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.images == nil {
		u.images = map[string][]byte{}
	}
	u.images[id] = data
	return u.Prefix + url.QueryEscape(id), nil
}

// Images returns a copy of the collected images keyed by id.
func (u *URIImages) Images() map[string][]byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return maps.Clone(u.images)
}

// DirImages writes every image into Dir, named after its id plus the sniffed
// extension, and references it as URIPrefix+file name.
type DirImages struct {
	Dir       string
	URIPrefix string
}

func (d DirImages) HandleImage(id string, data []byte) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	name := filepath.Base(id)
	if filepath.Ext(name) == "" {
		name += mimetype.Detect(data).Extension()
	}
	if err := os.WriteFile(filepath.Join(d.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image %s: %w", name, err)
	}
	return d.URIPrefix + url.PathEscape(name), nil
}
