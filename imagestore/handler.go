package imagestore

import (
	"errors"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Handler serves GET <images uri>?image=<id> from the caller's print
// session.
func Handler(store Store, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("image")
		if id == "" {
			http.Error(w, "missing image parameter", http.StatusBadRequest)
			return
		}
		session, ok := SessionFromRequest(r)
		if !ok {
			http.NotFound(w, r)
			return
		}
		data, err := store.Get(r.Context(), session, id)
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			log.Error("load boleto image", zap.String("image", id), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", mimetype.Detect(data).String())
		// ids are content-derived, so a cached id never maps to other bytes
		w.Header().Set("Cache-Control", "private, max-age=600")
		_, _ = w.Write(data)
	})
}
