package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI    string
	MongoDB     string
	RedisAddr   string
	HTTPPort    string
	JWTSecret   string
	Store       string // "mongo" or "memory"
	LogLevel    string
	CORSOrigins string

	Game *GameConfig
	WS   WSConfig
}

// WSConfig limits how fast a single connection may send events
type WSConfig struct {
	RateLimit float64
	RateBurst int
}

func Load() *Config {
	return &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "bingohall"),
		RedisAddr:   redisAddr(getEnv("REDIS_URI", "localhost:6379")),
		HTTPPort:    getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		Store:       getEnv("STORE", "mongo"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		Game:        DefaultGameConfig(),
		WS: WSConfig{
			RateLimit: getFloat("WS_RATE_LIMIT", 10),
			RateBurst: getInt("WS_RATE_BURST", 20),
		},
	}
}

// redisAddr strips the redis:// prefix go-redis does not accept in Addr
func redisAddr(uri string) string {
	return strings.TrimPrefix(uri, "redis://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultVal
}

func getIntList(key string, defaultVal []int) []int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return defaultVal
		}
		out = append(out, n)
	}
	return out
}
