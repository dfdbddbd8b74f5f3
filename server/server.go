// Package server exposes boleto rendering over HTTP.
package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ByLCY/boleto/generator"
	"github.com/ByLCY/boleto/imagestore"
	"github.com/ByLCY/boleto/logger"
	"github.com/ByLCY/boleto/storage"
)

const maxBodyBytes = 1 << 20

// Options configures a Server. Images is required; Archive is optional and
// disables GET /boletos/{key} when nil.
type Options struct {
	Template          []byte
	Params            map[string]any
	CharacterEncoding string
	ZoomRatio         float64
	ImagesURI         string
	Minify            bool
	ImageTTL          time.Duration

	Images  imagestore.Store
	Archive storage.Storage
	Logger  *zap.Logger
}

type Server struct {
	opts     Options
	log      *zap.Logger
	validate *validator.Validate
}

func New(opts Options) (*Server, error) {
	if opts.Images == nil {
		return nil, errors.New("server: image store is required")
	}
	if opts.ImagesURI == "" {
		opts.ImagesURI = generator.DefaultImagesURI
	}
	if opts.ImageTTL <= 0 {
		opts.ImageTTL = imagestore.DefaultTTL
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		opts:     opts,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	// fail at startup rather than on the first request
	if _, err := s.generator(nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.Middleware(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/boletos", func(r chi.Router) {
		r.Post("/html", s.handleHTML)
		r.Post("/pdf", s.handlePDF)
		r.Get("/{key}", s.handleArchived)
	})
	r.Method(http.MethodGet, ImagesRoute(s.opts.ImagesURI), imagestore.Handler(s.opts.Images, s.log))
	return r
}

// ImagesRoute is the path serving images referenced through uri. A
// relative uri resolves against the /boletos/html page URL.
func ImagesRoute(uri string) string {
	path, _, _ := strings.Cut(uri, "?")
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/boletos/" + path
}

func (s *Server) generator(req *renderRequest) (*generator.Generator, error) {
	g := generator.New(req.boletos()...)
	if len(s.opts.Template) > 0 {
		custom, err := generator.NewWithTemplate(bytes.NewReader(s.opts.Template), s.opts.Params, req.boletos()...)
		if err != nil {
			return nil, err
		}
		g = custom
	}
	opts := []generator.Option{
		generator.WithLogger(s.log),
		generator.WithMinify(s.opts.Minify),
		generator.WithImagesURI(s.opts.ImagesURI),
		generator.WithImageTTL(s.opts.ImageTTL),
	}
	if s.opts.CharacterEncoding != "" {
		opts = append(opts, generator.WithCharacterEncoding(s.opts.CharacterEncoding))
	}
	if s.opts.ZoomRatio != 0 {
		opts = append(opts, generator.WithZoomRatio(s.opts.ZoomRatio))
	}
	configured, err := g.With(opts...)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return configured, nil
}
