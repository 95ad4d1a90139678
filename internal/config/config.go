package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`
	Port        string `mapstructure:"port"`

	// SessionSecret signs the bearer tokens issued at login.
	SessionSecret string `mapstructure:"session_secret"`

	// CORSOrigin is the dashboard origin allowed to send credentials.
	CORSOrigin string `mapstructure:"cors_origin"`

	// DefaultAdmin seeds the first HQ account on an empty database.
	DefaultAdminUsername string `mapstructure:"default_admin_username"`
	DefaultAdminPassword string `mapstructure:"default_admin_password"`

	// Escalation worker
	SOSEscalationMinutes int `mapstructure:"sos_escalation_minutes"`
}

// App holds the global config instance
var App Config

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) error {
	// Auto-load .env file if present so 'go run' works without manually
	// exporting env vars. Missing .env is not an error.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	v := viper.New()

	// Set default values
	v.SetDefault("port", "8080")
	v.SetDefault("redis_url", "redis://localhost:6379")
	v.SetDefault("cors_origin", "*")
	v.SetDefault("default_admin_username", "admin")
	v.SetDefault("sos_escalation_minutes", 15)

	// Config file settings
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("dev.config")
		v.SetConfigType("yaml")
	}

	// Bind standard environment variables (Docker/deploy compatibility)
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("session_secret", "SESSION_SECRET")
	_ = v.BindEnv("cors_origin", "CORS_ORIGIN")
	_ = v.BindEnv("default_admin_username", "DEFAULT_ADMIN_USERNAME")
	_ = v.BindEnv("default_admin_password", "DEFAULT_ADMIN_PASSWORD")
	_ = v.BindEnv("sos_escalation_minutes", "SOS_ESCALATION_MINUTES")

	v.AutomaticEnv()

	// 1. Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and environment variables")
		} else {
			return err
		}
	} else {
		log.Printf("Loaded config from: %s", v.ConfigFileUsed())
	}

	// 2. Unmarshal into struct
	if err := v.Unmarshal(&App); err != nil {
		return err
	}

	// 3. Backfill environment variables for code that still reads os.Getenv()
	setEnvIfEmpty("DATABASE_URL", App.DatabaseURL)
	setEnvIfEmpty("REDIS_URL", App.RedisURL)
	setEnvIfEmpty("PORT", App.Port)
	setEnvIfEmpty("SESSION_SECRET", App.SessionSecret)

	return nil
}

func setEnvIfEmpty(key, value string) {
	if value != "" && os.Getenv(key) == "" {
		os.Setenv(key, value)
	}
}
