package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Deployment mode
	Mode string `yaml:"mode" mapstructure:"mode"` // "local", "team", "enterprise"

	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Audit configuration
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Logging configuration
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

type StorageConfig struct {
	Type        string `yaml:"type" mapstructure:"type"` // "postgres", "sqlite"
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	LocalPath   string `yaml:"local_path" mapstructure:"local_path"`
}

type AuditConfig struct {
	OverrideLogPath string `yaml:"override_log_path" mapstructure:"override_log_path"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Mode: "local",
		Storage: StorageConfig{
			Type:      "sqlite",
			LocalPath: filepath.Join(homeDir, ".caresignal", "local.db"),
		},
		Audit: AuditConfig{
			OverrideLogPath: ".caresignal/override_log.jsonl",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("audit", cfg.Audit)
	v.SetDefault("log", cfg.Log)

	v.SetEnvPrefix("CARESIGNAL")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".caresignal")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".caresignal"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
}

// applyEnvOverrides applies direct environment variable overrides that are
// not covered by viper's automatic binding of nested keys.
func applyEnvOverrides(cfg *Config) {
	if dsn := os.Getenv("CARESIGNAL_POSTGRES_DSN"); dsn != "" {
		cfg.Storage.Type = "postgres"
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("CARESIGNAL_SQLITE_PATH"); path != "" {
		cfg.Storage.LocalPath = path
	}
	if level := os.Getenv("CARESIGNAL_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}
