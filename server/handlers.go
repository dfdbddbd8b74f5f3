package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/boleto/boleto"
	"github.com/ByLCY/boleto/generator"
	"github.com/ByLCY/boleto/storage"
)

// renderRequest is the body of POST /boletos/html and /boletos/pdf, as
// JSON or YAML. Only the envelope is validated here; the boletos go through
// boleto.Validate so their field errors map to 422.
type renderRequest struct {
	Boletos []*boleto.Boleto `json:"boletos" yaml:"boletos" validate:"required,min=1,max=100"`
	Archive bool             `json:"archive" yaml:"archive"`
}

func (r *renderRequest) boletos() []*boleto.Boleto {
	if r == nil {
		return nil
	}
	return r.Boletos
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	g, err := s.generator(req)
	if err != nil {
		s.renderError(w, err)
		return
	}
	if req.Archive {
		page, err := g.HTML()
		if err != nil {
			s.renderError(w, err)
			return
		}
		key, ok := s.archive(w, r, page, "html", "text/html; charset="+s.charset())
		if !ok {
			return
		}
		w.Header().Set("Location", "/boletos/"+key)
	}
	if err := g.ServeHTML(w, r, s.opts.Images); err != nil {
		s.renderError(w, err)
	}
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	g, err := s.generator(req)
	if err != nil {
		s.renderError(w, err)
		return
	}
	doc, err := g.PDF()
	if err != nil {
		s.renderError(w, err)
		return
	}
	if req.Archive {
		key, ok := s.archive(w, r, doc, "pdf", "application/pdf")
		if !ok {
			return
		}
		w.Header().Set("Location", "/boletos/"+key)
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(doc)
}

func (s *Server) handleArchived(w http.ResponseWriter, r *http.Request) {
	if s.opts.Archive == nil {
		http.NotFound(w, r)
		return
	}
	obj, err := s.opts.Archive.Get(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error("load archived boleto", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not load document"})
		return
	}
	w.Header().Set("Content-Type", obj.ContentType)
	_, _ = w.Write(obj.Data)
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request, data []byte, ext, contentType string) (string, bool) {
	if s.opts.Archive == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "archiving is not enabled"})
		return "", false
	}
	key := uuid.NewString() + "." + ext
	if err := s.opts.Archive.Put(r.Context(), key, storage.Object{Data: data, ContentType: contentType}); err != nil {
		s.log.Error("archive boleto", zap.String("key", key), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not archive document"})
		return "", false
	}
	return key, true
}

func (s *Server) charset() string {
	if s.opts.CharacterEncoding != "" {
		return s.opts.CharacterEncoding
	}
	return generator.DefaultCharacterEncoding
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*renderRequest, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return nil, false
	}
	var req renderRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		err = yaml.Unmarshal(body, &req)
	default:
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return nil, false
	}
	if err := s.validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(err)})
		return nil, false
	}
	return &req, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("invalid field %s (%s)", verrs[0].Namespace(), verrs[0].Tag())
	}
	return err.Error()
}

// renderError maps boleto data errors to 422 and everything else to 500.
func (s *Server) renderError(w http.ResponseWriter, err error) {
	for _, target := range []error{
		boleto.ErrInvalidField,
		boleto.ErrUnknownBank,
		boleto.ErrInvalidAmount,
		boleto.ErrMissingDueDate,
		boleto.ErrInvalidDueDate,
		boleto.ErrInvalidBarcode,
	} {
		if errors.Is(err, target) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
	}
	s.log.Error("render boletos", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "could not render boletos"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
