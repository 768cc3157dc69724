package helper

import "os"

// Config holds the server and storage settings.
type Config struct {
	Port        string
	DBPath      string
	DatasetPath string
	Env         string
}

// LoadConfigFromEnv loads the configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		DBPath:      getEnvOrDefault("DB_PATH", "food_app.db"),
		DatasetPath: getEnvOrDefault("DATASET_PATH", ""),
		Env:         getEnvOrDefault("APP_ENV", "dev"),
	}
}

// getEnvOrDefault returns environment variable value or default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
