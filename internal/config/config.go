package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/devdeck/internal/apperr"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret string
	JWTTTL    time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	Redis Redis

	PortfolioCacheTTL time.Duration

	Storage Storage

	CORSOrigins []string

	OTELEnabled     bool
	OTELEndpoint    string
	OTELSampleRatio float64

	LoginRatePerMinute int

	Worker Worker
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Storage struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	Bucket         string
	PublicBaseURL  string
	MaxUploadBytes int64
}

type Worker struct {
	ID            string
	PollInterval  time.Duration
	Concurrency   int
	ShutdownGrace time.Duration
	LockTTL       time.Duration
	HealthAddr    string

	// NotifierDelay and NotifierFail simulate a slow or broken provider locally.
	NotifierDelay time.Duration
	NotifierFail  bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "devdeck")
	v.SetDefault("DB_PASSWORD", "devdeck")
	v.SetDefault("DB_NAME", "devdeck")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_TTL_HOURS", 24)

	v.SetDefault("ADMIN_NAME", "Admin")
	v.SetDefault("ADMIN_EMAIL", "admin@devdeck.com")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("PORTFOLIO_CACHE_TTL_SECONDS", 60)

	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("UPLOAD_BUCKET", "devdeck-uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)

	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL_TRACES_SAMPLER_ARG", 1.0)

	v.SetDefault("RATE_LIMIT_LOGIN_PER_MIN", 10)

	v.SetDefault("WORKER_POLL_INTERVAL_MS", 500)
	v.SetDefault("WORKER_CONCURRENCY", 4)
	v.SetDefault("WORKER_SHUTDOWN_GRACE_SECONDS", 10)
	v.SetDefault("WORKER_LOCK_TTL_SECONDS", 60)
	v.SetDefault("WORKER_HEALTH_ADDR", ":8081")
	v.SetDefault("NOTIFIER_SLEEP_MS", 0)
	v.SetDefault("NOTIFIER_FAIL", false)
}

// Load reads configuration from the environment, after loading a .env file
// if one is present. A missing JWT secret is a configuration error.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:   v.GetString("APP_ENV"),
		Port:  v.GetInt("PORT"),
		DBURL: buildDBURL(v),

		JWTSecret: strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTTTL:    time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,

		AdminName:     v.GetString("ADMIN_NAME"),
		AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("ADMIN_EMAIL"))),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),

		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},

		PortfolioCacheTTL: time.Duration(v.GetInt("PORTFOLIO_CACHE_TTL_SECONDS")) * time.Second,

		Storage: Storage{
			Endpoint:       v.GetString("MINIO_ENDPOINT"),
			AccessKey:      v.GetString("MINIO_ACCESS_KEY"),
			SecretKey:      v.GetString("MINIO_SECRET_KEY"),
			UseSSL:         v.GetBool("MINIO_USE_SSL"),
			Bucket:         v.GetString("UPLOAD_BUCKET"),
			PublicBaseURL:  strings.TrimRight(v.GetString("UPLOAD_PUBLIC_BASE_URL"), "/"),
			MaxUploadBytes: v.GetInt64("UPLOAD_MAX_BYTES"),
		},

		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),

		OTELEnabled:     v.GetBool("OTEL_ENABLED"),
		OTELEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELSampleRatio: v.GetFloat64("OTEL_TRACES_SAMPLER_ARG"),

		LoginRatePerMinute: v.GetInt("RATE_LIMIT_LOGIN_PER_MIN"),

		Worker: Worker{
			ID:            v.GetString("WORKER_ID"),
			PollInterval:  time.Duration(v.GetInt("WORKER_POLL_INTERVAL_MS")) * time.Millisecond,
			Concurrency:   v.GetInt("WORKER_CONCURRENCY"),
			ShutdownGrace: time.Duration(v.GetInt("WORKER_SHUTDOWN_GRACE_SECONDS")) * time.Second,
			LockTTL:       time.Duration(v.GetInt("WORKER_LOCK_TTL_SECONDS")) * time.Second,
			HealthAddr:    v.GetString("WORKER_HEALTH_ADDR"),
			NotifierDelay: time.Duration(v.GetInt("NOTIFIER_SLEEP_MS")) * time.Millisecond,
			NotifierFail:  v.GetBool("NOTIFIER_FAIL"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, apperr.Configuration("missing_jwt_secret", "JWT_SECRET must be set")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, apperr.Configuration("invalid_port", fmt.Sprintf("PORT %d is out of range", cfg.Port))
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 24 * time.Hour
	}

	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

func buildDBURL(v *viper.Viper) string {
	if raw := v.GetString("DATABASE_URL"); raw != "" {
		return raw
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(v.GetString("DB_USER"), v.GetString("DB_PASSWORD")),
		Host:     v.GetString("DB_HOST") + ":" + v.GetString("DB_PORT"),
		Path:     "/" + v.GetString("DB_NAME"),
		RawQuery: "sslmode=" + v.GetString("DB_SSLMODE"),
	}
	return u.String()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}
