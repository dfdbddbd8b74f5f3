package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/boleto/boleto"
	"github.com/ByLCY/boleto/generator"
	"github.com/ByLCY/boleto/layout"
)

type options struct {
	data     string
	output   string
	format   string
	template string
	encoding string
	zoom     float64
	inline   bool
	minify   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.data, "data", "", "boletos as JSON or YAML (a list or {boletos: [...]})")
	flag.StringVar(&opts.output, "out", "output/boleto.html", "output path")
	flag.StringVar(&opts.format, "format", "", "html, pdf or layout (default: from -out extension)")
	flag.StringVar(&opts.template, "template", "", "layout template (default: built-in)")
	flag.StringVar(&opts.encoding, "encoding", generator.DefaultCharacterEncoding, "HTML character encoding")
	flag.Float64Var(&opts.zoom, "zoom", generator.DefaultZoomRatio, "HTML zoom ratio")
	flag.BoolVar(&opts.inline, "inline", false, "inline images into the HTML instead of writing <name>_files/")
	flag.BoolVar(&opts.minify, "minify", false, "minify the HTML")
	serve := flag.Bool("serve", false, "run the HTTP server configured by BOLETO_* variables")
	flag.Parse()

	if *serve {
		if err := runServer(); err != nil {
			log.Fatalf("server: %v", err)
		}
		return
	}
	if opts.data == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		log.Fatalf("generate boletos: %v", err)
	}
	fmt.Printf("written %s\n", opts.output)
}

// run loads the boletos, renders them and writes the requested format.
func run(opts options) error {
	boletos, err := loadBoletos(opts.data)
	if err != nil {
		return err
	}
	g, err := newGenerator(opts, boletos)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	switch outputFormat(opts) {
	case "pdf":
		return g.PDFFile(opts.output)
	case "layout":
		res, err := g.Layout()
		if err != nil {
			return err
		}
		return layout.WriteDebugFile(res, opts.output)
	case "html":
		if !opts.inline {
			return g.HTMLFile(opts.output)
		}
		page, err := g.HTML()
		if err != nil {
			return err
		}
		return os.WriteFile(opts.output, page, 0o644)
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func outputFormat(opts options) string {
	if opts.format != "" {
		return strings.ToLower(opts.format)
	}
	switch strings.ToLower(filepath.Ext(opts.output)) {
	case ".pdf":
		return "pdf"
	case ".json":
		return "layout"
	default:
		return "html"
	}
}

func newGenerator(opts options, boletos []*boleto.Boleto) (*generator.Generator, error) {
	g := generator.New(boletos...)
	if opts.template != "" {
		f, err := os.Open(opts.template)
		if err != nil {
			return nil, fmt.Errorf("open template: %w", err)
		}
		defer f.Close()
		if g, err = generator.NewWithTemplate(f, nil, boletos...); err != nil {
			return nil, err
		}
	}
	return g.With(
		generator.WithCharacterEncoding(opts.encoding),
		generator.WithZoomRatio(opts.zoom),
		generator.WithMinify(opts.minify),
	)
}

// loadBoletos reads a JSON or YAML file holding either a list of boletos or
// an object with a boletos list.
func loadBoletos(path string) ([]*boleto.Boleto, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boletos: %w", err)
	}
	unmarshal := json.Unmarshal
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		unmarshal = yaml.Unmarshal
	}

	var list []*boleto.Boleto
	if err := unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Boletos []*boleto.Boleto `json:"boletos" yaml:"boletos"`
	}
	if err := unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode boletos in %s: %w", path, err)
	}
	return wrapped.Boletos, nil
}
