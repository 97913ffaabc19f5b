package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Socket endpoint used when SOCKET_LOCAL is set.
	localSocketURL = "http://localhost:5000"

	// Last-resort socket endpoint when nothing else is configured.
	productionSocketURL = "https://keshav-backend.onrender.com"
)

type Config struct {
	// Backend
	APIBaseURL  string
	SocketURL   string
	SocketLocal bool

	// Redis (session store)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Application
	HTTPAddr string
	LogLevel string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	return &Config{
		APIBaseURL:  getEnv("API_BASE_URL", ""),
		SocketURL:   getEnv("SOCKET_URL", ""),
		SocketLocal: getBoolEnv("SOCKET_LOCAL", false),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// ResolveSocketURL picks the notification server endpoint. Priority order:
// explicit SOCKET_URL override, the SOCKET_LOCAL flag, the API base URL with
// its trailing /api segment stripped, then the production fallback.
func (c *Config) ResolveSocketURL() string {
	if c.SocketURL != "" {
		return c.SocketURL
	}
	if c.SocketLocal {
		return localSocketURL
	}
	if c.APIBaseURL != "" {
		base := strings.TrimRight(c.APIBaseURL, "/")
		return strings.TrimSuffix(base, "/api")
	}
	return productionSocketURL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
