package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string

	CloudinaryURL          string
	CloudinaryUploadFolder string
	MaxUploadBytes         int64

	JWTSecret string
	JWTTTL    time.Duration

	LoginMaxAttempts int
	LoginWindow      time.Duration

	AutoCorrectionEnabled bool
	CorrectorToken        string

	StatsCacheTTL time.Duration

	SeedSuperAdminEmail    string
	SeedSuperAdminPassword string
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_NAME", "campus_admin")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("MEILISEARCH_HOST", "")
	v.SetDefault("MEILI_MASTER_KEY", "")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("CLOUDINARY_UPLOAD_FOLDER", "campus_admin")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_WINDOW", "15m")
	v.SetDefault("AUTO_CORRECTION_ENABLED", false)
	v.SetDefault("CORRECTOR_TOKEN", "")
	v.SetDefault("STATS_CACHE_TTL", "60s")
	v.SetDefault("SEED_SUPER_ADMIN_EMAIL", "")
	v.SetDefault("SEED_SUPER_ADMIN_PASSWORD", "")
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppEnv:         v.GetString("APP_ENV"),
		Port:           v.GetString("PORT"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),

		DBHost:    v.GetString("DB_HOST"),
		DBPort:    v.GetString("DB_PORT"),
		DBUser:    v.GetString("DB_USER"),
		DBPass:    v.GetString("DB_PASS"),
		DBName:    v.GetString("DB_NAME"),
		DBSSLMode: v.GetString("DB_SSLMODE"),

		RedisURL: v.GetString("REDIS_URL"),

		MeiliSearchHost: normalizeMeiliHost(v.GetString("MEILISEARCH_HOST")),
		MeiliMasterKey:  v.GetString("MEILI_MASTER_KEY"),

		CloudinaryURL:          v.GetString("CLOUDINARY_URL"),
		CloudinaryUploadFolder: v.GetString("CLOUDINARY_UPLOAD_FOLDER"),
		MaxUploadBytes:         v.GetInt64("MAX_UPLOAD_MB") << 20,

		JWTSecret: v.GetString("JWT_SECRET"),

		LoginMaxAttempts: v.GetInt("LOGIN_MAX_ATTEMPTS"),

		AutoCorrectionEnabled: v.GetBool("AUTO_CORRECTION_ENABLED"),
		CorrectorToken:        v.GetString("CORRECTOR_TOKEN"),

		SeedSuperAdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("SEED_SUPER_ADMIN_EMAIL"))),
		SeedSuperAdminPassword: v.GetString("SEED_SUPER_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(v, "JWT_TTL"); err != nil {
		return nil, err
	}
	if cfg.LoginWindow, err = parseDuration(v, "LOGIN_WINDOW"); err != nil {
		return nil, err
	}
	if cfg.StatsCacheTTL, err = parseDuration(v, "STATS_CACHE_TTL"); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required outside development")
		}
		log.Println("WARNING: JWT_SECRET is not set, using development secret")
		cfg.JWTSecret = "change-me"
	}
	if cfg.LoginMaxAttempts < 1 {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %d", cfg.LoginMaxAttempts)
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

func normalizeMeiliHost(host string) string {
	if host == "" || strings.HasPrefix(host, "http") {
		return host
	}
	return "http://" + host + ":7700"
}
