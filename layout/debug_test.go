package layout

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteDebugJSONFlattensElements(t *testing.T) {
	res := build(t, `doc T v1 { page A4 { text Body { "x" } } }`, nil)

	var buf bytes.Buffer
	if err := WriteDebugJSON(&buf, res); err != nil {
		t.Fatalf("write debug json: %v", err)
	}

	var decoded struct {
		Pages []map[string]any `json:"pages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(decoded.Pages))
	}
	page := decoded.Pages[0]
	if _, ok := page["texts"]; !ok {
		t.Fatalf("expected texts at page level, got keys %v", page)
	}
	if _, ok := page["Elements"]; ok {
		t.Fatalf("embedded Elements must be flattened")
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugFile(res, path); err != nil {
		t.Fatalf("write debug file: %v", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read debug file: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), written) {
		t.Fatalf("file content differs from WriteDebugJSON output")
	}
}
