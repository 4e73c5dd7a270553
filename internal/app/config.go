package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BuildPath string // .hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
	DisabledPlugins []string

	// EventsURL is a socket.io server that receives build events. Empty
	// disables the event stream.
	EventsURL       string
	EventsNamespace string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.BuildPath == "" {
		return nil, errors.New("BuildPath is a required configuration field and cannot be empty")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d: must be between 0 and 65535", cfg.HealthcheckPort)
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must not be negative", cfg.WorkerCount)
	}
	return &cfg, nil
}
