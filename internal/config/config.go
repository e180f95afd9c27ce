package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	Port              string
	StaffCount        int
	MinutesPerPatient int
	OverloadRatio     float64
	ObserverBuffer    int
	RateLimitRPS      int
	AllowedOrigins    []string
	RedisURL          string
	RedisChannel      string
	NatsURL           string
	NatsSubjectPrefix string
	RelayBuffer       int
	LogLevel          string
	LogFormat         string
	Debug             bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisChannel:      getEnv("REDIS_CHANNEL", "triage:events"),
		NatsURL:           getEnv("NATS_URL", ""),
		NatsSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "triage.events"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	var err error
	if cfg.StaffCount, err = getEnvInt("STAFF_COUNT", 5); err != nil {
		return nil, err
	}
	if cfg.MinutesPerPatient, err = getEnvInt("MINUTES_PER_PATIENT", 5); err != nil {
		return nil, err
	}
	if cfg.OverloadRatio, err = getEnvFloat("OVERLOAD_RATIO", 3); err != nil {
		return nil, err
	}
	if cfg.ObserverBuffer, err = getEnvInt("OBSERVER_BUFFER", 256); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getEnvInt("RATE_LIMIT_RPS", 50); err != nil {
		return nil, err
	}
	if cfg.RelayBuffer, err = getEnvInt("RELAY_BUFFER", 1024); err != nil {
		return nil, err
	}
	if cfg.Debug, err = getEnvBool("DEBUG", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that env parsing alone cannot catch
func (c *Config) Validate() error {
	if c.StaffCount <= 0 {
		return fmt.Errorf("STAFF_COUNT must be positive, got %d", c.StaffCount)
	}
	if c.MinutesPerPatient < 0 {
		return fmt.Errorf("MINUTES_PER_PATIENT must not be negative, got %d", c.MinutesPerPatient)
	}
	if c.OverloadRatio <= 0 {
		return fmt.Errorf("OVERLOAD_RATIO must be positive, got %g", c.OverloadRatio)
	}
	if c.ObserverBuffer <= 0 {
		return fmt.Errorf("OBSERVER_BUFFER must be positive, got %d", c.ObserverBuffer)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %d", c.RateLimitRPS)
	}
	if c.RelayBuffer <= 0 {
		return fmt.Errorf("RELAY_BUFFER must be positive, got %d", c.RelayBuffer)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
