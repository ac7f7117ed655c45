// Package config has the configuration of the drug checker service
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment is the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum JSON request body size in bytes
	MaxUploadSize     int64 // Maximum uploaded document size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	LexiconFile   string // Empty means the embedded table
	LexiconReload string // "HH:MM;HH:MM" reload times, empty disables reloading
	MergePolicy   string

	AllowedOrigins    []string
	RateLimitRate     float64 // Tokens refilled per second
	RateLimitCapacity int64
}

// LoadDotEnv reads a .env file from the working directory if there is one
func LoadDotEnv() {
	// A missing .env is normal outside development
	_ = godotenv.Load()
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", string(EnvDevelopment)))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          getEnvWithDefault("LOG_LEVEL", ""),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxUploadSize:     getInt64EnvWithDefault("MAX_UPLOAD_SIZE", 5242880),     // 5MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		LexiconFile:       getEnvWithDefault("LEXICON_FILE", ""),
		LexiconReload:     getEnvWithDefault("LEXICON_RELOAD", ""),
		MergePolicy:       getEnvWithDefault("MERGE_POLICY", "overwrite"),
		AllowedOrigins:    splitList(getEnvWithDefault("ALLOWED_ORIGINS", "*")),
		RateLimitRate:     getFloatEnvWithDefault("RATE_LIMIT_RATE", 3),
		RateLimitCapacity: getInt64EnvWithDefault("RATE_LIMIT_CAPACITY", 1000),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxUploadSize, "MAX_UPLOAD_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateReloadTimes(cfg.LexiconReload); err != nil {
		return fmt.Errorf("invalid LEXICON_RELOAD: %w", err)
	}

	if cfg.LexiconReload != "" && cfg.LexiconFile == "" {
		return fmt.Errorf("LEXICON_RELOAD requires LEXICON_FILE")
	}

	if err := validateMergePolicy(cfg.MergePolicy); err != nil {
		return fmt.Errorf("invalid MERGE_POLICY: %w", err)
	}

	if len(cfg.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.RateLimitRate <= 0 {
		return fmt.Errorf("RATE_LIMIT_RATE must be positive, got: %v", cfg.RateLimitRate)
	}

	if cfg.RateLimitCapacity <= 0 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY must be positive, got: %d", cfg.RateLimitCapacity)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" || address == "0.0.0.0" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Clinical documents go through this service, keep it off public interfaces
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// ParseEnvironment accepts the short names and their long forms
func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}

	validEnvs := []Environment{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, value)
}

func (e Environment) String() string {
	return string(e)
}

// validateLogLevel validates the LOG_LEVEL environment variable.
// Empty means the environment default.
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateReloadTimes checks a "HH:MM;HH:MM" list
func validateReloadTimes(times string) error {
	if times == "" {
		return nil
	}

	for _, t := range ReloadTimes(times) {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("time %q is not HH:MM", t)
		}
	}

	return nil
}

// validateMergePolicy mirrors analyzer.ParseMergePolicy without importing it
func validateMergePolicy(policy string) error {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", "overwrite", "keep-first", "union-dosages":
		return nil
	default:
		return fmt.Errorf("must be one of overwrite, keep-first, union-dosages, got: %s", policy)
	}
}

// ReloadTimes splits a LEXICON_RELOAD value into its HH:MM entries
func ReloadTimes(times string) []string {
	var out []string
	for _, t := range strings.Split(times, ";") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_DIR",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_UPLOAD_SIZE",
		"MAX_HEADER_SIZE",
		"LEXICON_FILE",
		"LEXICON_RELOAD",
		"MERGE_POLICY",
		"ALLOWED_ORIGINS",
		"RATE_LIMIT_RATE",
		"RATE_LIMIT_CAPACITY",
	}
}
