package config

import (
	"os"
	"strconv"
)

type Config struct {
	ListenAddr          string
	DataDir             string
	BaseURL             string
	SessionSecret       string
	AdminPassword       string
	MaxUploadBytes      int64
	LogLevel            string
	CleanupIntervalMins int
	OrphanGraceMins     int
	ReadOnly            bool
	ReportSignature     string
	DiskWarnYellowPct   float64
	DiskWarnRedPct      float64
	DiskWarnBlockPct    float64
}

func Load() *Config {
	return &Config{
		ListenAddr:          envOr("LISTEN_ADDR", ":8080"),
		DataDir:             envOr("DATA_DIR", "./data"),
		BaseURL:             envOr("BASE_URL", "http://localhost:8080"),
		SessionSecret:       envOr("SESSION_SECRET", "change-me-in-production-32-bytes!"),
		AdminPassword:       envOr("ADMIN_PASSWORD", "SESMTRH"),
		MaxUploadBytes:      envInt64Or("MAX_UPLOAD_BYTES", 20*1024*1024),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		CleanupIntervalMins: envIntOr("CLEANUP_INTERVAL_MINS", 60),
		OrphanGraceMins:     envIntOr("ORPHAN_GRACE_MINS", 60),
		ReadOnly:            envBoolOr("READ_ONLY", false),
		ReportSignature:     envOr("REPORT_SIGNATURE", "Atenciosamente,\nSESMT do Grupo Açotubo"),
		DiskWarnYellowPct:   envFloatOr("DISK_WARN_YELLOW_PCT", 15),
		DiskWarnRedPct:      envFloatOr("DISK_WARN_RED_PCT", 5),
		DiskWarnBlockPct:    envFloatOr("DISK_WARN_BLOCK_PCT", 2),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
