package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	CORSOrigins string

	// Notify holds the delivery-receipt gateway settings. An empty token
	// disables outbound notifications entirely.
	Notify NotifyConfig
}

type NotifyConfig struct {
	BaseURL     string
	APIVersion  string
	AccessToken string
	SenderID    string
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=aquadesk port=5432 sslmode=disable"

func Load() *Config {
	// A missing .env file is fine; configuration may come straight from the
	// environment.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", defaultDSN),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		Notify: NotifyConfig{
			BaseURL:     getEnv("NOTIFY_BASE_URL", "https://graph.facebook.com"),
			APIVersion:  getEnv("NOTIFY_API_VERSION", "v20.0"),
			AccessToken: os.Getenv("NOTIFY_ACCESS_TOKEN"),
			SenderID:    os.Getenv("NOTIFY_SENDER_ID"),
		},
	}

	if cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is using the default value; set your own Postgres connection for production.")
	}
	if cfg.Notify.AccessToken == "" {
		log.Println("[WARN] NOTIFY_ACCESS_TOKEN is not set; delivery notifications are disabled.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
