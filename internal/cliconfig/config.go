// Package cliconfig loads the batchship CLI configuration from defaults, a
// config file, BATCHSHIP_* environment variables and command-line flags, in
// increasing order of precedence.
package cliconfig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sink kinds.
const (
	SinkStdout = "stdout"
	SinkHTTP   = "http"
	SinkSQLite = "sqlite"
)

// DefaultServiceURL is the default endpoint of the http sink.
const DefaultServiceURL = "http://localhost:8080"

// Config holds CLI configuration for batchship.
type Config struct {
	// Input is the file to read; "-" or empty reads stdin.
	Input  string
	Follow bool

	Sink        string
	ServiceURL  string
	AuthKey     string
	HTTPTimeout time.Duration
	SQLitePath  string

	Interval time.Duration
	Max      int

	DropPattern string
	Trim        bool

	MetricsAddr string
	LogLevel    string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Input:       "-",
		Sink:        SinkStdout,
		ServiceURL:  DefaultServiceURL,
		HTTPTimeout: 15 * time.Second,
		SQLitePath:  "batchship.db",
		Interval:    time.Second,
		Max:         1000,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors and normalizes values.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.Max < 0 {
		return fmt.Errorf("max must not be negative")
	}

	switch c.Sink {
	case SinkStdout:
	case SinkHTTP:
		if c.ServiceURL == "" {
			return fmt.Errorf("service-url is required for the http sink")
		}
		c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
		if c.HTTPTimeout <= 0 {
			return fmt.Errorf("http timeout must be positive")
		}
	case SinkSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite-path is required for the sqlite sink")
		}
	default:
		return fmt.Errorf("unknown sink %q (want %s, %s or %s)", c.Sink, SinkStdout, SinkHTTP, SinkSQLite)
	}

	if c.Follow && (c.Input == "" || c.Input == "-") {
		return fmt.Errorf("follow requires a file input")
	}

	if _, err := c.DropRegexp(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// DropRegexp compiles DropPattern. It returns nil when no pattern is set.
func (c *Config) DropRegexp() (*regexp.Regexp, error) {
	if c.DropPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(c.DropPattern)
	if err != nil {
		return nil, fmt.Errorf("parse drop-pattern: %w", err)
	}
	return re, nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log-level: %w", err)
	}
	return lvl, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
