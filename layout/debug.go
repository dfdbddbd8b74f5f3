package layout

import (
	"encoding/json"
	"io"
	"os"
)

// WriteDebugJSON writes the layout result as indented JSON.
func WriteDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteDebugFile is WriteDebugJSON into the file at path.
func WriteDebugFile(res *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDebugJSON(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
