// Package config loads and watches the agent configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"svckit/internal/logger"
)

// ServiceConfig identifies the service entry this process installs and
// runs as.
type ServiceConfig struct {
	Name        string
	DisplayName string
	// StartType is one of "auto", "demand"/"manual", "disabled".
	StartType string
	// Account empty means LocalSystem.
	Account string
	// StopTimeout bounds how long removal waits for the service to
	// reach Stopped.
	StopTimeout time.Duration
}

// HeartbeatConfig controls the periodic self-report while running.
type HeartbeatConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Config is the full agent configuration.
type Config struct {
	Service   ServiceConfig
	Heartbeat HeartbeatConfig
	Logging   logger.Config
}

// rawConfig carries durations as strings for JSON unmarshaling.
type rawConfig struct {
	Service struct {
		Name        string `json:"Name"`
		DisplayName string `json:"DisplayName"`
		StartType   string `json:"StartType"`
		Account     string `json:"Account"`
		StopTimeout string `json:"StopTimeout"`
	} `json:"Service"`
	Heartbeat struct {
		Enabled  bool   `json:"Enabled"`
		Interval string `json:"Interval"`
	} `json:"Heartbeat"`
	Logging logger.Config `json:"Logging"`
}

// Default values applied for fields missing from the file.
const (
	defaultServiceName = "SvcKitAgent"
	defaultStartType   = "demand"
	defaultStopTimeout = time.Minute
	defaultHeartbeat   = 30 * time.Second
)

// Load reads configuration from the specified file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &Config{
		Service: ServiceConfig{
			Name:        raw.Service.Name,
			DisplayName: raw.Service.DisplayName,
			StartType:   raw.Service.StartType,
			Account:     raw.Service.Account,
		},
		Heartbeat: HeartbeatConfig{
			Enabled: raw.Heartbeat.Enabled,
		},
		Logging: raw.Logging,
	}

	cfg.Service.StopTimeout, err = parseDuration(raw.Service.StopTimeout, defaultStopTimeout)
	if err != nil {
		return nil, fmt.Errorf("Service.StopTimeout: %w", err)
	}
	cfg.Heartbeat.Interval, err = parseDuration(raw.Heartbeat.Interval, defaultHeartbeat)
	if err != nil {
		return nil, fmt.Errorf("Heartbeat.Interval: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %s must be positive", d)
	}
	return d, nil
}

func (c *Config) applyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = defaultServiceName
	}
	if c.Service.DisplayName == "" {
		c.Service.DisplayName = c.Service.Name
	}
	if c.Service.StartType == "" {
		c.Service.StartType = defaultStartType
	}
	if c.Logging.Level == "" {
		c.Logging = logger.DefaultConfig()
	}
}
