package config

import (
	"os"
)

type Config struct {
	ListenAddr          string
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	RedisHost           string
	RedisPort           string
	SessionSecret       string
	GinMode             string
	StripeWebhookSecret string
}

func Load() *Config {
	return &Config{
		ListenAddr:          getEnv("LISTEN_ADDR", ":8080"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "plank"),
		DBPassword:          getEnv("DB_PASSWORD", "plank"),
		DBName:              getEnv("DB_NAME", "plank"),
		RedisHost:           getEnv("REDIS_HOST", "localhost"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		SessionSecret:       getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
	}
}

// RedisAddr returns the host:port pair shared by the session store and the
// fan-out bridge.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
