// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the YAML config path.
const FileEnv = "COMPLIANCE_CONFIG"

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	DatasetPath    string `yaml:"dataset_path"`
	TranscribeURL  string `yaml:"transcribe_url"`
	MockTranscribe bool   `yaml:"mock_transcribe"`

	AMQPURL    string `yaml:"amqp_url"`
	AMQPQueue  string `yaml:"amqp_queue"`
	SQLitePath string `yaml:"sqlite_path"`

	Workers             int `yaml:"workers"`
	CallTimeoutSec      int `yaml:"call_timeout_sec"`
	SafeExceptionWindow int `yaml:"safe_exception_window"`
	DemoLimit           int `yaml:"demo_limit"`
}

func Default() Config {
	return Config{
		Port:           "8080",
		DatasetPath:    "calls.xlsx",
		AMQPQueue:      "compliance.results",
		Workers:        runtime.NumCPU(),
		CallTimeoutSec: 40,
		DemoLimit:      5,
	}
}

// Load reads the file named by COMPLIANCE_CONFIG, if any, then applies
// environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"PORT":           &c.Port,
		"ENVIRONMENT":    &c.Environment,
		"LOG_LEVEL":      &c.LogLevel,
		"DATASET_PATH":   &c.DatasetPath,
		"TRANSCRIBE_URL": &c.TranscribeURL,
		"AMQP_URL":       &c.AMQPURL,
		"AMQP_QUEUE":     &c.AMQPQueue,
		"SQLITE_PATH":    &c.SQLitePath,
	}
	for k, p := range str {
		if v := os.Getenv(k); v != "" {
			*p = v
		}
	}

	ints := map[string]*int{
		"WORKERS":               &c.Workers,
		"CALL_TIMEOUT_SEC":      &c.CallTimeoutSec,
		"SAFE_EXCEPTION_WINDOW": &c.SafeExceptionWindow,
		"DEMO_LIMIT":            &c.DemoLimit,
	}
	for k, p := range ints {
		v := os.Getenv(k)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		*p = n
	}

	if v := os.Getenv("USE_MOCK_TRANSCRIBE"); v != "" {
		c.MockTranscribe = v == "true"
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.CallTimeoutSec < 1 {
		errs = append(errs, fmt.Errorf("call_timeout_sec must be positive, got %d", c.CallTimeoutSec))
	}
	if c.SafeExceptionWindow < 0 {
		errs = append(errs, fmt.Errorf("safe_exception_window must not be negative, got %d", c.SafeExceptionWindow))
	}
	return errors.Join(errs...)
}

func (c Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
}
