package layout

import "go.uber.org/zap"

// BuildOptions carries the dependencies of a layout pass.
type BuildOptions struct {
	Typesetter Typesetter
	// Logger receives notices about skipped statements. Nil means no logging.
	Logger *zap.Logger
}

// Typesetter splits text into lines that fit width for the given font.
// Sizes are in millimetres.
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

func (o BuildOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
