package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/boleto/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeEnv(t, ""))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "ISO-8859-1", cfg.HTML.CharacterEncoding)
	assert.InDelta(t, 1.3, cfg.HTML.ZoomRatio, 1e-9)
	assert.Equal(t, "stella-boleto?image=", cfg.HTML.ImagesURI)
	assert.Equal(t, "memory", cfg.Images.Store)
	assert.Equal(t, 10*time.Minute, cfg.Images.TTL)
	assert.Equal(t, "none", cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnvAndFile(t *testing.T) {
	t.Setenv("BOLETO_HTTP_ADDR", ":9090")
	t.Setenv("BOLETO_HTML_ZOOM_RATIO", "2")
	path := writeEnv(t, "BOLETO_STORAGE_DRIVER=s3\nBOLETO_STORAGE_S3_BUCKET=docs\nBOLETO_LOG_FORMAT=json\n")
	t.Cleanup(func() {
		for _, k := range []string{"BOLETO_STORAGE_DRIVER", "BOLETO_STORAGE_S3_BUCKET", "BOLETO_LOG_FORMAT"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.InDelta(t, 2.0, cfg.HTML.ZoomRatio, 1e-9)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "docs", cfg.Storage.S3Bucket)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("BOLETO_HTML_ZOOM_RATIO", "big")
	_, err = config.Load(writeEnv(t, ""))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
