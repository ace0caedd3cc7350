package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// GraphPath points to a single .hcl graph file or a directory of them.
	GraphPath string

	// Fetches are the tensor references to evaluate and print, in order.
	Fetches []string
	// Targets are node names to execute for their side effects only.
	Targets []string

	// Trace enables logging of every node completion and value observation.
	Trace bool
	// DebugStreamURL, when set, streams observations to a socket.io endpoint.
	DebugStreamURL string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if len(cfg.Fetches) == 0 && len(cfg.Targets) == 0 {
		return nil, errors.New("at least one fetch or target is required")
	}

	return &cfg, nil
}
