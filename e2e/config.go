package e2e

import (
	"os"
	"time"
)

// Config holds the configuration for E2E tests
type Config struct {
	TokenPath       string
	CredentialsPath string
	Timeout         time.Duration
	// FileName and Recipient enable the transfer test. Ownership of the file
	// is really offered to Recipient.
	FileName  string
	Recipient string
}

// LoadConfig loads E2E test configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		TokenPath:       getEnvOrDefault("GDRIVE_OWNERSHIP_E2E_TOKEN", "../token.json"),
		CredentialsPath: getEnvOrDefault("GDRIVE_OWNERSHIP_E2E_CREDENTIALS", "../credentials.json"),
		Timeout:         getTimeoutFromEnv("GDRIVE_OWNERSHIP_E2E_TIMEOUT", 120*time.Second),
		FileName:        os.Getenv("GDRIVE_OWNERSHIP_E2E_FILE"),
		Recipient:       os.Getenv("GDRIVE_OWNERSHIP_E2E_RECIPIENT"),
	}
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getTimeoutFromEnv parses timeout from environment variable
func getTimeoutFromEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
