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
	AppPort       string
	AppMode       string
	LogMode       string
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	JWTSecret     string
	JWTExpiryMin  int
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	EventBusMode  string
	CORSOrigins   []string

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string
	S3PresignTTL time.Duration

	PaymentGatewayURL     string
	PaymentGatewayKey     string
	PaymentCallbackSecret string
	PaymentReturnBase     string
	PaymentTimeout        time.Duration

	// Fallback fee schedule used when the service rate cannot be read.
	FeeTierLowLimit   int64
	FeeTierLowRate    float64
	FeeTierMidLimit   int64
	FeeTierMidRate    float64
	FeeTierHighRate   float64
	ServiceRateTTL    time.Duration
	MessageRateLimit  int
	MessageRateWindow time.Duration
	AuthRateLimit     int
	AuthRateWindow    time.Duration
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		AppMode:       getEnv("APP_MODE", "debug"),
		LogMode:       getEnv("LOG_MODE", "development"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "postgres"),
		DBName:        getEnv("DB_NAME", "uniform_studio"),
		DBPort:        getEnv("DB_PORT", "5432"),
		JWTSecret:     getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin:  getEnvAsInt("JWT_EXPIRY_MIN", 60),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		EventBusMode:  getEnv("EVENT_BUS", "redis"),
		CORSOrigins:   getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		S3Region:     getEnv("S3_REGION", ""),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3PublicBase: getEnv("S3_PUBLIC_BASE", ""),
		S3PresignTTL: getEnvAsDuration("S3_PRESIGN_TTL", 15*time.Minute),

		PaymentGatewayURL:     getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
		PaymentGatewayKey:     getEnv("PAYMENT_GATEWAY_KEY", ""),
		PaymentCallbackSecret: getEnv("PAYMENT_CALLBACK_SECRET", "change-me"),
		PaymentReturnBase:     getEnv("PAYMENT_RETURN_BASE", "http://localhost:3000"),
		PaymentTimeout:        getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second),

		FeeTierLowLimit:   getEnvAsInt64("FEE_TIER_LOW_LIMIT", 10_000_000),
		FeeTierLowRate:    getEnvAsFloat("FEE_TIER_LOW_RATE", 0.025),
		FeeTierMidLimit:   getEnvAsInt64("FEE_TIER_MID_LIMIT", 100_000_000),
		FeeTierMidRate:    getEnvAsFloat("FEE_TIER_MID_RATE", 0.02),
		FeeTierHighRate:   getEnvAsFloat("FEE_TIER_HIGH_RATE", 0.015),
		ServiceRateTTL:    getEnvAsDuration("SERVICE_RATE_TTL", 5*time.Minute),
		MessageRateLimit:  getEnvAsInt("MESSAGE_RATE_LIMIT", 60),
		MessageRateWindow: getEnvAsDuration("MESSAGE_RATE_WINDOW", time.Minute),
		AuthRateLimit:     getEnvAsInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:    getEnvAsDuration("AUTH_RATE_WINDOW", time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
