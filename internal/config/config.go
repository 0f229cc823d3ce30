package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Env         string
	Port        string
	PublicURL   string
	BackendURL  string
	IdPLoginURL string
	JWTSecret   string
	DatabaseURL string
	LogLevel    string

	AllowedOrigins      []string
	RequestTimeout      time.Duration
	RecognitionEncoding string
	AnalyticsQueueSize  int
	PlacesCacheTTL      time.Duration

	R2 R2Config
}

type R2Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	PublicBase string
}

// Enabled reports whether every R2 setting is present.
func (c R2Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != "" && c.PublicBase != ""
}

var required = []string{
	"BACKEND_URL",
	"IDP_LOGIN_URL",
}

// Load reads .env outside production, then the process environment.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	for _, k := range required {
		if os.Getenv(k) == "" {
			return nil, errors.Errorf("missing env var: %s", k)
		}
	}

	return FromEnv()
}

// LoadLocal is Load for the terminal client: only BACKEND_URL is required,
// and it may still be supplied by a flag after loading.
func LoadLocal() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
	return FromEnv()
}

// FromEnv builds a Config without touching .env files or enforcing required keys.
func FromEnv() (*Config, error) {
	timeout, err := duration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	ttl, err := duration("PLACES_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	queue, err := integer("ANALYTICS_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(get("RECOGNITION_ENCODING", "multipart"))
	if encoding != "multipart" && encoding != "json" {
		return nil, errors.Errorf("RECOGNITION_ENCODING must be multipart or json, got %q", encoding)
	}

	return &Config{
		Env:                 get("APP_ENV", "development"),
		Port:                get("PORT", "8080"),
		PublicURL:           strings.TrimRight(get("PUBLIC_URL", "http://localhost:8080"), "/"),
		BackendURL:          strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		IdPLoginURL:         os.Getenv("IDP_LOGIN_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		LogLevel:            get("LOG_LEVEL", "info"),
		AllowedOrigins:      list("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		RequestTimeout:      timeout,
		RecognitionEncoding: encoding,
		AnalyticsQueueSize:  queue,
		PlacesCacheTTL:      ttl,
		R2: R2Config{
			Endpoint:   os.Getenv("R2_ENDPOINT"),
			AccessKey:  os.Getenv("R2_ACCESS_KEY"),
			SecretKey:  os.Getenv("R2_SECRET_KEY"),
			Bucket:     os.Getenv("R2_BUCKET_NAME"),
			PublicBase: os.Getenv("R2_PUBLIC_BASE_URL"),
		},
	}, nil
}

func get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func list(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}

func integer(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}
