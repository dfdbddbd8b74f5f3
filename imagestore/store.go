// Package imagestore keeps the images of streamed boleto pages until the
// browser fetches them. Images are grouped by print session, identified by
// the boleto_print cookie.
package imagestore

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionCookie names the cookie carrying the print session id.
	SessionCookie = "boleto_print"
	// DefaultTTL bounds how long rendered images stay available.
	DefaultTTL = 10 * time.Minute
)

var ErrNotFound = errors.New("imagestore: image not found")

// Store saves the images of one print session and serves them back by id.
type Store interface {
	// Save adds images to session, replacing ids already present. The whole
	// session expires after ttl.
	Save(ctx context.Context, session string, images map[string][]byte, ttl time.Duration) error
	Get(ctx context.Context, session, id string) ([]byte, error)
}

// SessionFromRequest returns the print session of r, if any.
func SessionFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// EnsureSession returns the print session of r, creating one and setting
// the cookie on w when the request has none.
func EnsureSession(w http.ResponseWriter, r *http.Request) string {
	if session, ok := SessionFromRequest(r); ok {
		return session
	}
	session := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session
}
