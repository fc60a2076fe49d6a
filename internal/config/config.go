package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Port string
	Mode string

	// Database configuration
	DatabaseURL string

	// Redis configuration
	RedisURL string

	// Telegram configuration
	BotToken    string
	AdminChatID int64

	// Admin console configuration
	AdminUsername string
	AdminPassword string
	JWTSecret     string

	// Payment gateway (YooKassa) configuration
	YKShopID          string
	YKSecretKey       string
	YKReturnURL       string
	YKWebhookUser     string
	YKWebhookPassword string

	// Receipt email fallback domain (buyers are addressed as <tg_id>@<domain>)
	EmailDomain string

	// Donation configuration
	DonateAmountsMinor []int64
}

var AppConfig *Config

func InitConfig() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Ignore error if .env file doesn't exist
	}

	AppConfig = &Config{
		Port:               getEnv("PORT", "8080"),
		Mode:               getEnv("GIN_MODE", "debug"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		BotToken:           getEnv("BOT_TOKEN", ""),
		AdminChatID:        getEnvInt64("ADMIN_CHAT_ID", 0),
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		YKShopID:           getEnv("YK_SHOP_ID", ""),
		YKSecretKey:        getEnv("YK_SECRET_KEY", ""),
		YKReturnURL:        getEnv("YK_RETURN_URL", ""),
		YKWebhookUser:      getEnv("YK_WEBHOOK_USER", ""),
		YKWebhookPassword:  getEnv("YK_WEBHOOK_PASSWORD", ""),
		EmailDomain:        getEnv("EMAIL_DOMAIN", "tg.local"),
		DonateAmountsMinor: getEnvInt64List("DONATE_AMOUNTS", []int64{10000, 50000, 100000}),
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64List(key string, defaultValue []int64) []int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int64
	for _, part := range strings.Split(value, ",") {
		intValue, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return defaultValue
		}
		out = append(out, intValue)
	}
	return out
}
