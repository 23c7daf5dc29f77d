package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (BATCHSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("input", os.Getenv("BATCHSHIP_INPUT"), &cfg.Input)
	s.setString("sink", os.Getenv("BATCHSHIP_SINK"), &cfg.Sink)
	s.setString("service-url", os.Getenv("BATCHSHIP_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("BATCHSHIP_AUTH_KEY"), &cfg.AuthKey)
	s.setString("sqlite-path", os.Getenv("BATCHSHIP_SQLITE_PATH"), &cfg.SQLitePath)
	s.setString("drop-pattern", os.Getenv("BATCHSHIP_DROP_PATTERN"), &cfg.DropPattern)
	s.setString("metrics-addr", os.Getenv("BATCHSHIP_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", os.Getenv("BATCHSHIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("timeout", os.Getenv("BATCHSHIP_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("interval", os.Getenv("BATCHSHIP_INTERVAL"), &cfg.Interval); err != nil {
		return err
	}

	if err := s.setIntFromString("max", os.Getenv("BATCHSHIP_MAX"), &cfg.Max); err != nil {
		return err
	}

	s.setBoolFromString("follow", os.Getenv("BATCHSHIP_FOLLOW"), &cfg.Follow)
	s.setBoolFromString("trim", os.Getenv("BATCHSHIP_TRIM"), &cfg.Trim)

	return nil
}
