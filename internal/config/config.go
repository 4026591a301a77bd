// Package config loads the external configuration the verification core
// consumes: a database descriptor, key material, and the audit window. Core
// packages never read environment sources directly; they receive the
// structured values built here.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/db"
	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/hipaa"
)

// Config is the loaded configuration surface.
type Config struct {
	DBKind        string        `mapstructure:"DB_KIND"`
	DBHost        string        `mapstructure:"DB_HOST"`
	DBPort        int           `mapstructure:"DB_PORT"`
	DBName        string        `mapstructure:"DB_NAME"`
	DBUser        string        `mapstructure:"DB_USER"`
	DBSecret      string        `mapstructure:"DB_SECRET"`
	DBPath        string        `mapstructure:"DB_PATH"`
	DBTimeout     time.Duration `mapstructure:"DB_TIMEOUT"`
	EncryptionKey string        `mapstructure:"PHI_ENCRYPTION_KEY"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	AuditWindow   time.Duration `mapstructure:"AUDIT_WINDOW"`
}

// Load reads configuration from a .env file when present and the process
// environment, environment taking precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("DB_KIND", string(db.SQLite))
	v.SetDefault("DB_PATH", "data/healthcare.db")
	v.SetDefault("DB_TIMEOUT", "30s")
	v.SetDefault("AUDIT_WINDOW", hipaa.DefaultRecencyWindow.String())

	for _, key := range []string{
		"DB_KIND", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_SECRET",
		"DB_PATH", "DB_TIMEOUT", "PHI_ENCRYPTION_KEY", "JWT_SECRET", "AUDIT_WINDOW",
	} {
		v.BindEnv(key)
	}

	// A missing .env file is fine; the environment still applies.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a
// component, so misconfiguration surfaces at startup.
func (c *Config) Validate() error {
	if err := c.Database().Validate(); err != nil {
		return err
	}
	if c.EncryptionKey != "" {
		key, err := hex.DecodeString(c.EncryptionKey)
		if err != nil {
			return fmt.Errorf("PHI_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("PHI_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(key))
		}
	}
	if c.AuditWindow <= 0 {
		return fmt.Errorf("AUDIT_WINDOW must be positive")
	}
	return nil
}

// Database builds the backend descriptor for the connection manager.
func (c *Config) Database() db.Config {
	return db.Config{
		Kind:     db.Kind(c.DBKind),
		Host:     c.DBHost,
		Port:     c.DBPort,
		Database: c.DBName,
		User:     c.DBUser,
		Secret:   c.DBSecret,
		Path:     c.DBPath,
		Timeout:  c.DBTimeout,
	}
}

// Security builds the key-material config for the security helper.
func (c *Config) Security() hipaa.Config {
	return hipaa.Config{
		EncryptionKey: c.EncryptionKey,
		JWTSecret:     c.JWTSecret,
	}
}
