package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	StoreDriver string
	DBHost      string
	DBUser      string
	DBPass      string
	DBName      string
	DBPort      string
	SQLitePath  string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	JWTSecret string
	JWTTTL    time.Duration

	AdminEmails       []string
	SeedAdminPassword string

	ExpirySweepInterval time.Duration
	LoginThrottle       time.Duration
	MaxLoginFailures    int
	SubjectsCacheTTL    time.Duration
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_NAME", "avisos")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("SQLITE_PATH", "avisos.db")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("MEILISEARCH_HOST", "")
	v.SetDefault("MEILI_MASTER_KEY", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "5m")
	v.SetDefault("LOGIN_THROTTLE", "1m")
	v.SetDefault("LOGIN_MAX_FAILURES", 5)
	v.SetDefault("SUBJECTS_CACHE_TTL", "10m")
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),

		StoreDriver: strings.ToLower(v.GetString("STORE_DRIVER")),
		DBHost:      v.GetString("DB_HOST"),
		DBUser:      v.GetString("DB_USER"),
		DBPass:      v.GetString("DB_PASS"),
		DBName:      v.GetString("DB_NAME"),
		DBPort:      v.GetString("DB_PORT"),
		SQLitePath:  v.GetString("SQLITE_PATH"),

		RedisURL: v.GetString("REDIS_URL"),

		MeiliSearchHost: v.GetString("MEILISEARCH_HOST"),
		MeiliMasterKey:  v.GetString("MEILI_MASTER_KEY"),

		JWTSecret: v.GetString("JWT_SECRET"),

		AdminEmails:       splitList(strings.ToLower(v.GetString("ADMIN_EMAILS"))),
		SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
		MaxLoginFailures:  v.GetInt("LOGIN_MAX_FAILURES"),
	}

	if cfg.StoreDriver != DriverPostgres && cfg.StoreDriver != DriverSQLite {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", cfg.StoreDriver, DriverPostgres, DriverSQLite)
	}

	// Parsing durations
	var err error
	if cfg.JWTTTL, err = parseDuration(v, "JWT_TTL"); err != nil {
		return nil, err
	}
	if cfg.ExpirySweepInterval, err = parseDuration(v, "EXPIRY_SWEEP_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.LoginThrottle, err = parseDuration(v, "LOGIN_THROTTLE"); err != nil {
		return nil, err
	}
	if cfg.SubjectsCacheTTL, err = parseDuration(v, "SUBJECTS_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.MaxLoginFailures <= 0 {
		return nil, fmt.Errorf("invalid LOGIN_MAX_FAILURES: must be positive")
	}
	if cfg.ExpirySweepInterval <= 0 {
		return nil, fmt.Errorf("invalid EXPIRY_SWEEP_INTERVAL: must be positive")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
