package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig  `json:"server"`
	Logging  LoggingConfig `json:"logging"`
	Sessions SessionConfig `json:"sessions"`
	Archive  ArchiveConfig `json:"archive"`
	Report   ReportConfig  `json:"report"`
	Upload   UploadConfig  `json:"upload"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	IdleTimeout  Duration `json:"idle_timeout"`
	Mode         string   `json:"mode"` // gin mode: debug, release, test
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// SessionConfig controls how long analyses stay in memory
type SessionConfig struct {
	TTL           Duration `json:"ttl"`
	SweepSchedule string   `json:"sweep_schedule"` // cron spec
}

// ArchiveConfig enables S3 archiving of exported reports. An empty bucket
// disables it.
type ArchiveConfig struct {
	Bucket        string   `json:"bucket"`
	Region        string   `json:"region"`
	Prefix        string   `json:"prefix"`
	PresignExpiry Duration `json:"presign_expiry"`
}

// Enabled reports whether an archive bucket is configured
func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}

// ReportConfig
type ReportConfig struct {
	Organisation string `json:"organisation"`
	Title        string `json:"title"`
}

// UploadConfig
type UploadConfig struct {
	MaxBytes int64  `json:"max_bytes"`
	Policy   string `json:"policy"` // reject_row or reject_upload
}

// Duration is a time.Duration that reads "30m" style strings from JSON
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*d = Duration(v * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(60 * time.Second),
			IdleTimeout:  Duration(60 * time.Second),
			Mode:         "release",
		},
		Logging: LoggingConfig{Level: "info"},
		Sessions: SessionConfig{
			TTL:           Duration(30 * time.Minute),
			SweepSchedule: "@every 1m",
		},
		Archive: ArchiveConfig{
			Region:        "ap-southeast-2",
			Prefix:        "scenario-reports/",
			PresignExpiry: Duration(15 * time.Minute),
		},
		Report: ReportConfig{
			Title: "Climate Scenario Analysis Report",
		},
		Upload: UploadConfig{
			MaxBytes: 10 << 20,
			Policy:   "reject_row",
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
// A .env file in the working directory is loaded first when present.
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	config := Default()

	// Load from file if exists
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := overrideWithEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) error {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", ttl, err)
		}
		config.Sessions.TTL = Duration(d)
	}
	if bucket := os.Getenv("REPORT_ARCHIVE_BUCKET"); bucket != "" {
		config.Archive.Bucket = bucket
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Archive.Region = region
	}
	if org := os.Getenv("REPORT_ORGANISATION"); org != "" {
		config.Report.Organisation = org
	}
	if policy := os.Getenv("UPLOAD_POLICY"); policy != "" {
		config.Upload.Policy = policy
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max_bytes must be positive")
	}
	if c.Archive.Enabled() && c.Archive.Region == "" {
		return fmt.Errorf("archive region is required when a bucket is set")
	}
	return nil
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
