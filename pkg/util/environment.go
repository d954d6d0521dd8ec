package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// GetEnvironmentDuration parses a duration variable, falling back when unset or invalid
func GetEnvironmentDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	if env[key] == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(env[key])
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

// GetEnvironmentInt parses an integer variable, falling back when unset or invalid
func GetEnvironmentInt(env map[string]string, key string, fallback int) int {
	if env[key] == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(env[key])
	if err != nil {
		return fallback
	}

	return parsed
}
