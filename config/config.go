package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Port               string
	PostgresURL        string
	AllowedOrigins     []string
	GoogleClientID     string
	GoogleClientSecret string
	AppURL             string
	// AdminEmails is the bootstrap allow-list: an OAuth identity with one of
	// these emails may grant admin status even before any admin exists.
	AdminEmails []string
	Debug       bool
}

func Load() (Config, error) {
	cfg := Config{
		Port:   getenv("PORT", "3000"),
		AppURL: getenv("APP_URL", "http://localhost:3000"),
		Debug:  os.Getenv("DEBUG") == "true",
	}

	postgresURL, exists := os.LookupEnv("POSTGRES_URL")
	if !exists {
		return Config{}, fmt.Errorf("missing POSTGRES_URL")
	}
	cfg.PostgresURL = postgresURL

	origins, exists := os.LookupEnv("ALLOWED_ORIGINS")
	if !exists {
		return Config{}, fmt.Errorf("missing ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = splitList(origins)

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.AdminEmails = splitList(os.Getenv("ADMIN_EMAILS"))

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
