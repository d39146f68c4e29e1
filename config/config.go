package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the agent
type Config struct {
	// Server settings
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Authentication
	APIKey    string
	JWTSecret string

	// Security
	RateLimitRPS int

	// Logging
	LogLevel string

	// Reporting
	ReportConfFile string
	CPUInterval    time.Duration
	DefaultChannel string

	// Relay forwarding; empty RelayURL only logs actions
	RelayURL     string
	RelayTimeout time.Duration

	EnvFile string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	envFile := getEnvFile()

	// Load .env file if it exists
	_ = godotenv.Load(envFile)

	cfg := &Config{
		Port:           getEnvInt("PORT", 8092),
		Host:           getEnv("HOST", "0.0.0.0"),
		ReadTimeout:    time.Duration(getEnvInt("READ_TIMEOUT_SECONDS", 30)) * time.Second,
		WriteTimeout:   time.Duration(getEnvInt("WRITE_TIMEOUT_SECONDS", 120)) * time.Second,
		APIKey:         getEnv("API_KEY", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 20),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ReportConfFile: getEnv("SYSINFO_CONF", defaultReportConf()),
		CPUInterval:    time.Duration(getEnvInt("CPU_SAMPLE_MS", 200)) * time.Millisecond,
		DefaultChannel: getEnv("DEFAULT_CHANNEL", "jabber"),
		RelayURL:       getEnv("RELAY_URL", ""),
		RelayTimeout:   time.Duration(getEnvInt("RELAY_TIMEOUT_SECONDS", 10)) * time.Second,
		EnvFile:        envFile,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		// Use API key as fallback for JWT secret
		cfg.JWTSecret = cfg.APIKey
	}

	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("API_KEY is required")
	}
	if c.DefaultChannel != "jabber" && c.DefaultChannel != "tg" {
		return fmt.Errorf("DEFAULT_CHANNEL must be jabber or tg, got %q", c.DefaultChannel)
	}
	if c.CPUInterval < 0 {
		return errors.New("CPU_SAMPLE_MS must not be negative")
	}
	return nil
}

// defaultReportConf mirrors the plugin layout: $ZOE_HOME/etc/sysinfo.conf
func defaultReportConf() string {
	if home := os.Getenv("ZOE_HOME"); home != "" {
		return filepath.Join(home, "etc", "sysinfo.conf")
	}
	return filepath.Join("etc", "sysinfo.conf")
}

// getEnvFile returns the path to the .env file
func getEnvFile() string {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		return envFile
	}

	if _, err := os.Stat(".env"); err == nil {
		return ".env"
	}

	// Fall back to the directory holding the executable
	exe, err := os.Executable()
	if err == nil {
		envPath := filepath.Join(filepath.Dir(exe), ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	return ".env"
}

// LoadWithDefaults loads config with defaults for testing
func LoadWithDefaults() *Config {
	return &Config{
		Port:           8092,
		Host:           "0.0.0.0",
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   120 * time.Second,
		APIKey:         "test-api-key",
		JWTSecret:      "test-jwt-secret",
		RateLimitRPS:   100,
		LogLevel:       "info",
		ReportConfFile: filepath.Join("etc", "sysinfo.conf"),
		CPUInterval:    0,
		DefaultChannel: "jabber",
		RelayTimeout:   10 * time.Second,
	}
}

// Addr returns the server address string
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}
