package config

import "os"

// Config holds the application configuration
type Config struct {
	Port          string
	DBPath        string
	TMDBAPIKey    string
	FrontendURL   string
	StaticDir     string
	AdminPassword string
}

// Load reads the configuration from environment variables or defaults.
// A .env file, if present, is loaded by the godotenv autoload import in main.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8787"),
		DBPath:        getEnv("DB_PATH", "data/medialib.db"),
		TMDBAPIKey:    os.Getenv("TMDB_API_KEY"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
		StaticDir:     os.Getenv("STATIC_DIR"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
