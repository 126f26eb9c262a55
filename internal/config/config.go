package config

import "os"

// Config holds all application configuration
type Config struct {
	Port            string
	PlatformBaseURL string
	PlatformToken   string
	PublicChannelID string
	WebhookSecret   string
	OpenAIAPIKey    string
	OpenAIModel     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", "http://localhost:9090"),
		PlatformToken:   getEnv("PLATFORM_TOKEN", ""),
		PublicChannelID: getEnv("PUBLIC_CHANNEL_ID", "general"),
		WebhookSecret:   getEnv("WEBHOOK_SECRET", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
