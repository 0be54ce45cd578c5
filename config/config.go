// Package config loads the service configuration from YAML and watches it
// for changes so analysis parameters can be tuned without a restart.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the full service configuration.
type Config struct {
	Records struct {
		Path string `yaml:"path"`
	} `yaml:"records"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Monitor struct {
		Port int `yaml:"port"`
	} `yaml:"monitor"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
	Analysis Analysis `yaml:"analysis"`
}

// Analysis tunes the analysis engine.
type Analysis struct {
	AnomalyThreshold   float64 `yaml:"anomaly_threshold"`
	ChangePointWindow  int     `yaml:"change_point_window"`
	ClusterCount       int     `yaml:"cluster_count"`
	PCAComponents      int     `yaml:"pca_components"`
	EigenMaxIterations int     `yaml:"eigen_max_iterations"`
	CacheSize          int     `yaml:"cache_size"`
	Seed               int64   `yaml:"seed"`
}

// Load reads, decodes, and validates a YAML config file, filling defaults
// for anything the file omits.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Records.Path == "" {
		c.Records.Path = "records.json"
	}
	if c.Database.Path == "" {
		c.Database.Path = "ringpulse.db"
	}
	if c.Monitor.Port == 0 {
		c.Monitor.Port = 8090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}

	a := &c.Analysis
	if a.AnomalyThreshold == 0 {
		a.AnomalyThreshold = 2.5
	}
	if a.ChangePointWindow == 0 {
		a.ChangePointWindow = 7
	}
	if a.ClusterCount == 0 {
		a.ClusterCount = 3
	}
	if a.PCAComponents == 0 {
		a.PCAComponents = 3
	}
	if a.EigenMaxIterations == 0 {
		a.EigenMaxIterations = 1000
	}
	if a.CacheSize == 0 {
		a.CacheSize = 128
	}
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("%w: monitor port %d", ErrInvalidConfig, c.Monitor.Port)
	}
	if c.Analysis.AnomalyThreshold <= 0 {
		return fmt.Errorf("%w: anomaly threshold %v", ErrInvalidConfig, c.Analysis.AnomalyThreshold)
	}
	if c.Analysis.ClusterCount < 1 {
		return fmt.Errorf("%w: cluster count %d", ErrInvalidConfig, c.Analysis.ClusterCount)
	}
	if c.Analysis.PCAComponents < 1 {
		return fmt.Errorf("%w: pca components %d", ErrInvalidConfig, c.Analysis.PCAComponents)
	}
	if c.Analysis.CacheSize < 1 {
		return fmt.Errorf("%w: cache size %d", ErrInvalidConfig, c.Analysis.CacheSize)
	}
	return nil
}
