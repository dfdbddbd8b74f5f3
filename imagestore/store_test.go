package imagestore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "s1", map[string][]byte{"barcode-0": pngHeader}, time.Minute))
	require.NoError(t, store.Save(ctx, "s1", map[string][]byte{"pix-0": []byte("qr")}, time.Minute))

	got, err := store.Get(ctx, "s1", "barcode-0")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, got)
	got, err = store.Get(ctx, "s1", "pix-0")
	require.NoError(t, err)
	assert.Equal(t, []byte("qr"), got)

	_, err = store.Get(ctx, "s1", "logo-0")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "other", "barcode-0")
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("expires", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		_, err := store.Get(ctx, "s1", "barcode-0")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("sweep", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s2", map[string][]byte{"a": {1}}, time.Second))
		require.NoError(t, store.Save(ctx, "s3", map[string][]byte{"a": {1}}, time.Hour))
		now = now.Add(time.Minute)
		assert.Equal(t, 1, store.Sweep())
	})

	assert.Error(t, store.Save(ctx, "", nil, 0))
}

func TestMemoryStoreKeepsSessionRefreshedAfterExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "s1", map[string][]byte{"barcode-a": pngHeader}, time.Minute))
	now = now.Add(2 * time.Minute)

	// a reader saw the session expired, then a render refreshed it before
	// the reader took the write lock
	require.NoError(t, store.Save(ctx, "s1", map[string][]byte{"barcode-b": []byte("fresh")}, time.Minute))
	assert.False(t, store.dropExpired("s1"))

	got, err := store.Get(ctx, "s1", "barcode-b")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), got)
	_, err = store.Get(ctx, "s1", "barcode-a")
	assert.ErrorIs(t, err, ErrNotFound, "expired images are not carried over")

	now = now.Add(2 * time.Minute)
	assert.True(t, store.dropExpired("s1"))
	assert.False(t, store.dropExpired("s1"))
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreWithClient(client, "")
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Save(ctx, "s1", map[string][]byte{"barcode-0": pngHeader}, time.Minute))
	assert.True(t, mr.Exists("boleto:images:s1"))
	assert.Equal(t, time.Minute, mr.TTL("boleto:images:s1"))

	got, err := store.Get(ctx, "s1", "barcode-0")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, got)

	_, err = store.Get(ctx, "s1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "s1", nil, time.Minute))

	mr.FastForward(2 * time.Minute)
	_, err = store.Get(ctx, "s1", "barcode-0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisStoreFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr})
	assert.ErrorContains(t, err, "connect to redis")
}

func TestHandler(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "s1", map[string][]byte{"barcode-0": pngHeader}, time.Minute))
	h := Handler(store, nil)

	serve := func(target, session string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if session != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("/stella-boleto?image=barcode-0", "s1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	assert.Equal(t, http.StatusNotFound, serve("/stella-boleto?image=pix-0", "s1").Code)
	assert.Equal(t, http.StatusNotFound, serve("/stella-boleto?image=barcode-0", "").Code)
	assert.Equal(t, http.StatusNotFound, serve("/stella-boleto?image=barcode-0", "s2").Code)
	assert.Equal(t, http.StatusBadRequest, serve("/stella-boleto", "s1").Code)
}

func TestEnsureSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session := EnsureSession(rec, req)
	require.NotEmpty(t, session)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, session, cookies[0].Value)

	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "existing"})
	rec = httptest.NewRecorder()
	assert.Equal(t, "existing", EnsureSession(rec, req))
	assert.Empty(t, rec.Result().Cookies())
}
