// Package config loads and validates the engine configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values exported for documentation and validation
const (
	DefaultAddress           = ":8080"
	DefaultRecordingsRoot    = "/app/recordings"
	DefaultRetentionWindow   = time.Hour
	DefaultSweepInterval     = 15 * time.Minute
	DefaultURLCheckTimeout   = 10 * time.Second
	DefaultPrepTimeout       = 60 * time.Second
	DefaultStepTruncateRunes = 500
	DefaultUploadAttempts    = 3
	DefaultUploadBaseDelay   = 2 * time.Second
	DefaultUploadMaxDelay    = 10 * time.Second
	DefaultScanRatePerMinute = 30
	DefaultScanBurst         = 5
	DefaultBucket            = "agentrank-replays"
)

// Config represents the complete engine configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Recording RecordingConfig `yaml:"recording"`
	Scan      ScanConfig      `yaml:"scan"`
	Storage   StorageConfig   `yaml:"storage"`
	Agentd    AgentdConfig    `yaml:"agentd"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Address           string `yaml:"address"`
	ScanRatePerMinute int    `yaml:"scan_rate_per_minute"`
	ScanBurst         int    `yaml:"scan_burst"`
}

// RecordingConfig controls the on-disk recording store and its retention.
type RecordingConfig struct {
	Root            string        `yaml:"root"`
	RetentionWindow time.Duration `yaml:"retention_window"`
	SweepInterval   time.Duration `yaml:"sweep_interval"`
}

// ScanConfig carries the orchestrator timeouts and limits.
type ScanConfig struct {
	URLCheckTimeout   time.Duration `yaml:"url_check_timeout"`
	PrepTimeout       time.Duration `yaml:"prep_timeout"`
	StepTruncateRunes int           `yaml:"step_truncate_runes"`
}

// StorageConfig configures the R2 replay store. All credential fields
// must be set for uploads to be attempted.
type StorageConfig struct {
	AccountID      string        `yaml:"account_id"`
	AccessKey      string        `yaml:"access_key"`
	SecretKey      string        `yaml:"secret_key"`
	Bucket         string        `yaml:"bucket"`
	PublicURL      string        `yaml:"public_url"`
	UploadAttempts int           `yaml:"upload_attempts"`
	UploadBase     time.Duration `yaml:"upload_base_delay"`
	UploadMax      time.Duration `yaml:"upload_max_delay"`
}

// AgentdConfig points at the browser agent daemon.
type AgentdConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:           DefaultAddress,
			ScanRatePerMinute: DefaultScanRatePerMinute,
			ScanBurst:         DefaultScanBurst,
		},
		Recording: RecordingConfig{
			Root:            DefaultRecordingsRoot,
			RetentionWindow: DefaultRetentionWindow,
			SweepInterval:   DefaultSweepInterval,
		},
		Scan: ScanConfig{
			URLCheckTimeout:   DefaultURLCheckTimeout,
			PrepTimeout:       DefaultPrepTimeout,
			StepTruncateRunes: DefaultStepTruncateRunes,
		},
		Storage: StorageConfig{
			Bucket:         DefaultBucket,
			UploadAttempts: DefaultUploadAttempts,
			UploadBase:     DefaultUploadBaseDelay,
			UploadMax:      DefaultUploadMaxDelay,
		},
		Agentd: AgentdConfig{
			Endpoint: "http://127.0.0.1:9222",
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the config file at path (if it exists), applies
// environment overrides, and validates the result. An empty path loads
// defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides reads the same environment variables the container
// deployment uses, so setups without a file keep working.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ENGINE_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("RECORDINGS_DIR"); v != "" {
		c.Recording.Root = v
	}
	if v := os.Getenv("R2_ACCOUNT_ID"); v != "" {
		c.Storage.AccountID = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
	if v := os.Getenv("R2_BUCKET_NAME"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("R2_PUBLIC_URL"); v != "" {
		c.Storage.PublicURL = v
	}
	if v := os.Getenv("AGENTD_ENDPOINT"); v != "" {
		c.Agentd.Endpoint = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SCAN_RATE_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.ScanRatePerMinute = n
		}
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Recording.Root == "" {
		return fmt.Errorf("recording.root is required")
	}
	if c.Recording.RetentionWindow <= 0 {
		return fmt.Errorf("recording.retention_window must be positive")
	}
	if c.Recording.SweepInterval <= 0 {
		return fmt.Errorf("recording.sweep_interval must be positive")
	}
	if c.Scan.URLCheckTimeout <= 0 {
		return fmt.Errorf("scan.url_check_timeout must be positive")
	}
	if c.Scan.PrepTimeout <= 0 {
		return fmt.Errorf("scan.prep_timeout must be positive")
	}
	if c.Storage.UploadAttempts < 1 {
		return fmt.Errorf("storage.upload_attempts must be at least 1")
	}
	if c.Storage.UploadBase <= 0 || c.Storage.UploadMax < c.Storage.UploadBase {
		return fmt.Errorf("storage upload delays misconfigured")
	}
	return nil
}

// StorageConfigured reports whether all R2 credentials are present.
func (c *Config) StorageConfigured() bool {
	s := c.Storage
	return s.AccountID != "" && s.AccessKey != "" && s.SecretKey != "" && s.Bucket != ""
}
