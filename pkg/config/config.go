// Package config holds server configuration resolved from environment
// variables and command-line flags. Flags win over environment, which wins
// over defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	// EnvBaseURL overrides the Theta Terminal base URL.
	EnvBaseURL = "THETADATA_BASE_URL"
	// EnvTimeout overrides the request timeout, in seconds (fractional
	// values allowed, e.g. "2.5").
	EnvTimeout = "THETADATA_TIMEOUT"

	DefaultBaseURL = "http://127.0.0.1:25503/v3"
	DefaultTimeout = 30 * time.Second

	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the full server configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	Transport string
	HTTPAddr  string
	HTTPPath  string
	SpecPath  string
}

// FromEnv builds a Config from defaults and environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		Transport: TransportStdio,
		HTTPAddr:  "127.0.0.1:8080",
		HTTPPath:  "/mcp",
	}

	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid timeout %q: %w", EnvTimeout, v, err)
		}
		cfg.Timeout = time.Duration(secs * float64(time.Second))
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Transport != TransportStdio && c.Transport != TransportHTTP {
		return fmt.Errorf("transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL %q", c.BaseURL)
	}
	if c.Transport == TransportHTTP && c.HTTPAddr == "" {
		return fmt.Errorf("http transport requires a listen address")
	}
	return nil
}
