package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type Config struct {
	Port        string
	GinMode     string
	DBDriver    string
	DBDSN       string
	DBDebug     bool
	JWTSecret   string
	JWTTTL      time.Duration
	SeedFile    string
	SeedOnStart bool
	LogLevel    string
	CORSOrigin  string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// .env opsional; environment tetap dipakai kalau file tidak ada
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		DBDriver:    getEnv("DB_DRIVER", DriverSQLite),
		DBDSN:       getEnv("DB_DSN", "restaurant_pos.db?_foreign_keys=on"),
		DBDebug:     getBool("DB_DEBUG", false),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		JWTTTL:      time.Duration(getInt("JWT_TTL_HOURS", 12)) * time.Hour,
		SeedFile:    getEnv("SEED_FILE", ""),
		SeedOnStart: getBool("SEED_ON_START", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
