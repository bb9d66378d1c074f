package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the download service.
type Config struct {
	Env            string
	HTTPPort       string
	DownloadRoot   string
	ClientTTL      time.Duration
	SweepInterval  time.Duration
	YTDLPPath      string
	InspectTimeout time.Duration
}

// Load reads configuration from environment variables with sane defaults
// for local development. A .env file in the working directory is honored
// when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:            getEnv("APP_ENV", "dev"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DownloadRoot:   getEnv("DOWNLOAD_ROOT", "./downloads"),
		ClientTTL:      getEnvDuration("CLIENT_TTL", 3*time.Hour),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),
		YTDLPPath:      getEnv("YTDLP_PATH", "yt-dlp"),
		InspectTimeout: getEnvDuration("INSPECT_TIMEOUT", 60*time.Second),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
