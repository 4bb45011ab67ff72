package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int

	TokenTTL       time.Duration
	RequestTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	MetricsUser     string
	MetricsPassword string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnvInt("DB_PORT", 5432),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "appdb"),
		DBMaxConns:      getEnvInt("DB_MAX_CONNS", 10),
		TokenTTL:        getEnvDuration("TOKEN_TTL", 8*time.Hour),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "kafka:29092"), ","),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "tidb-cdc"),
		KafkaGroup:      getEnv("KAFKA_GROUP", "cdc-consumer-group"),
		MetricsUser:     getEnv("METRICS_USER", "metrics"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return d
}
