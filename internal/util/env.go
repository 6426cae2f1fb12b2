package util

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// The getters run before Init, so they log through zap.L(), which stays a
// no-op until the global logger is installed.

// GetEnv returns the value of key, or defaultValue when it is unset or blank.
func GetEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := GetEnv(key, ""); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		zap.L().Warn("Ignoring non-integer environment value", String("key", key), String("value", value))
	}
	return defaultValue
}

func GetEnvBool(key string, defaultValue bool) bool {
	if value := GetEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		zap.L().Warn("Ignoring non-boolean environment value", String("key", key), String("value", value))
	}
	return defaultValue
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := GetEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		zap.L().Warn("Ignoring invalid duration environment value", String("key", key), String("value", value))
	}
	return defaultValue
}
