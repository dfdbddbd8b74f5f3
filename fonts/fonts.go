// Package fonts exposes the fonts bundled with the binary under embed:<name>.
package fonts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

var embedded = map[string][]byte{
	"sans":      lmsans10regular.TTF,
	"sans-bold": lmsans10bold.TTF,
	"mono":      lmmono10regular.TTF,
}

// Load returns the font data for name, written with or without the embed:
// prefix.
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(name, "embed:")
	data, ok := embedded[name]
	if !ok {
		return nil, fmt.Errorf("fonts: no embedded font %q", name)
	}
	return data, nil
}

// Names lists the embedded font names in sorted order.
func Names() []string {
	names := make([]string, 0, len(embedded))
	for name := range embedded {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
