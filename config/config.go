// Package config loads service settings from BOLETO_* environment
// variables, optionally seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ByLCY/boleto/logger"
)

const Prefix = "BOLETO_"

var ErrParsingConfig = errors.New("config: failed to parse environment")

type Config struct {
	Env      string        `env:"ENV" envDefault:"development"`
	Addr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	Template string        `env:"TEMPLATE"`
	Log      logger.Config `envPrefix:"LOG_"`
	HTML     HTMLConfig    `envPrefix:"HTML_"`
	Images   ImagesConfig  `envPrefix:"IMAGES_"`
	Redis    RedisConfig   `envPrefix:"REDIS_"`
	Storage  StorageConfig `envPrefix:"STORAGE_"`
	Shutdown time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// HTMLConfig holds the HTML export parameters.
type HTMLConfig struct {
	CharacterEncoding string  `env:"CHARACTER_ENCODING" envDefault:"ISO-8859-1"`
	ZoomRatio         float64 `env:"ZOOM_RATIO" envDefault:"1.3"`
	ImagesURI         string  `env:"IMAGES_URI" envDefault:"stella-boleto?image="`
	Minify            bool    `env:"MINIFY" envDefault:"false"`
}

// ImagesConfig selects where streamed page images wait to be served:
// memory or redis.
type ImagesConfig struct {
	Store string        `env:"STORE" envDefault:"memory"`
	TTL   time.Duration `env:"TTL" envDefault:"10m"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// StorageConfig selects the archive of issued documents: none, local or s3.
type StorageConfig struct {
	Driver           string `env:"DRIVER" envDefault:"none"`
	LocalDir         string `env:"LOCAL_DIR" envDefault:"./data/boletos"`
	S3Bucket         string `env:"S3_BUCKET"`
	S3Region         string `env:"S3_REGION"`
	S3Prefix         string `env:"S3_PREFIX" envDefault:"boletos/"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// Load reads the given .env files (or ./.env when none are given; a missing
// default file is not an error) and parses the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: Prefix})
	if err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}
