// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
)

// Config はアプリケーション設定を表す。
type Config struct {
	Port string

	// DatabaseURL が設定されている場合はDBバックエンドの認証情報リゾルバを、
	// 未設定の場合はSystemsFileの静的リゾルバを使用する。
	DatabaseURL string
	SystemsFile string

	KMSKeyName         string
	GoogleCloudProject string
	LogLevel           string

	// TimestampWindowSeconds はリプレイ攻撃対策のタイムスタンプ許容幅（秒）。
	TimestampWindowSeconds int

	// MatchNumericStrings は数値リテラルと数値文字列の相互一致を許可する。
	MatchNumericStrings bool

	OtelEnabled      bool
	OtelEndpoint     string
	OtelServiceName  string
	OtelSamplingRate float64
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	return &Config{
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		SystemsFile:            getEnv("SYSTEMS_FILE", "systems.json"),
		KMSKeyName:             os.Getenv("KMS_KEY_NAME"),
		GoogleCloudProject:     os.Getenv("GOOGLE_CLOUD_PROJECT"),
		LogLevel:               getEnv("LOG_LEVEL", "INFO"),
		TimestampWindowSeconds: getEnvInt("TIMESTAMP_WINDOW_SECONDS", 300),
		MatchNumericStrings:    getEnvBool("MATCH_NUMERIC_STRINGS", false),
		OtelEnabled:            getEnvBool("OTEL_ENABLED", false),
		OtelEndpoint:           getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OtelServiceName:        getEnv("OTEL_SERVICE_NAME", "data-anonymization-service"),
		OtelSamplingRate:       getEnvFloat("OTEL_SAMPLING_RATE", 0.1),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
