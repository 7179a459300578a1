package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth (single owner)
	AdminUsername   string
	AdminPassword   string // plaintext in env, bcrypt-hashed at startup
	AdminTelegramID int64
	JWTSecret       string

	// Secret encryption
	MasterKey string // 64 hex chars for AES-256-GCM

	// Telegram delivery
	TelegramBotToken string
	TelegramAPIURL   string

	// Reminders
	NotifyHourUTC    int
	SecretTTLSeconds int
}

func Load() (*Config, error) {
	ttl, err := strconv.Atoi(getEnv("SECRET_TTL_SECONDS", "45"))
	if err != nil {
		return nil, fmt.Errorf("SECRET_TTL_SECONDS must be an integer: %w", err)
	}
	if ttl < 10 || ttl > 300 {
		return nil, fmt.Errorf("SECRET_TTL_SECONDS must be in range 10..300, got %d", ttl)
	}

	hour, err := strconv.Atoi(getEnv("NOTIFY_HOUR_UTC", "9"))
	if err != nil {
		return nil, fmt.Errorf("NOTIFY_HOUR_UTC must be an integer: %w", err)
	}
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("NOTIFY_HOUR_UTC must be in range 0..23, got %d", hour)
	}

	masterKey := getEnv("MASTER_KEY", "")
	if raw, err := hex.DecodeString(masterKey); err != nil || len(raw) != 32 {
		return nil, fmt.Errorf("MASTER_KEY must be 64 hex chars (32 bytes)")
	}

	adminID, err := strconv.ParseInt(getEnv("ADMIN_TELEGRAM_ID", "0"), 10, 64)
	if err != nil || adminID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID must be a non-zero integer")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", ""),
		DBName:           getEnv("DB_NAME", "vpskeeper"),
		DBSSLMode:        getEnv("DB_SSLMODE", "disable"),
		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		AdminTelegramID:  adminID,
		JWTSecret:        getEnv("JWT_SECRET", ""),
		MasterKey:        masterKey,
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		NotifyHourUTC:    hour,
		SecretTTLSeconds: ttl,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
