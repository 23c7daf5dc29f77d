package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"BATCHSHIP_INPUT":        "/var/log/app.log",
				"BATCHSHIP_FOLLOW":       "true",
				"BATCHSHIP_SINK":         "http",
				"BATCHSHIP_SERVICE_URL":  "http://example.com",
				"BATCHSHIP_AUTH_KEY":     "secret",
				"BATCHSHIP_HTTP_TIMEOUT": "30s",
				"BATCHSHIP_SQLITE_PATH":  "/data/out.db",
				"BATCHSHIP_INTERVAL":     "250ms",
				"BATCHSHIP_MAX":          "20",
				"BATCHSHIP_DROP_PATTERN": "^DEBUG",
				"BATCHSHIP_TRIM":         "1",
				"BATCHSHIP_METRICS_ADDR": ":9090",
				"BATCHSHIP_LOG_LEVEL":    "warn",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Input:       "/var/log/app.log",
				Follow:      true,
				Sink:        "http",
				ServiceURL:  "http://example.com",
				AuthKey:     "secret",
				HTTPTimeout: 30 * time.Second,
				SQLitePath:  "/data/out.db",
				Interval:    250 * time.Millisecond,
				Max:         20,
				DropPattern: "^DEBUG",
				Trim:        true,
				MetricsAddr: ":9090",
				LogLevel:    "warn",
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"BATCHSHIP_SINK":     "sqlite",
				"BATCHSHIP_INTERVAL": "3s",
			},
			changed:  map[string]bool{"sink": true},
			initial:  Config{Sink: "stdout"},
			expected: Config{Sink: "stdout", Interval: 3 * time.Second},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"BATCHSHIP_INTERVAL": "not-a-duration"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"BATCHSHIP_MAX": "lots"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:     "handles bool 'false' as false",
			envVars:  map[string]string{"BATCHSHIP_TRIM": "false"},
			changed:  map[string]bool{},
			initial:  Config{Trim: true},
			expected: Config{Trim: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}
			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		Sink:       "sqlite",
		SQLitePath: "/file/out.db",
		Interval:   "10s",
		Trim:       &trueVal,
	}

	t.Setenv("BATCHSHIP_SINK", "http")
	t.Setenv("BATCHSHIP_SQLITE_PATH", "/env/out.db")
	t.Setenv("BATCHSHIP_MAX", "7")

	// Simulate CLI flags
	changed := map[string]bool{
		"sink": true,
	}

	cfg := DefaultConfig()
	cfg.Sink = "stdout" // set by flag

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.Sink != "stdout" {
		t.Errorf("Sink = %v, want stdout (CLI should win)", cfg.Sink)
	}
	if cfg.SQLitePath != "/env/out.db" {
		t.Errorf("SQLitePath = %v, want /env/out.db (env should override file)", cfg.SQLitePath)
	}
	if cfg.Max != 7 {
		t.Errorf("Max = %v, want 7 (env should set)", cfg.Max)
	}
	if cfg.Interval != 10*time.Second {
		t.Errorf("Interval = %v, want 10s (file should set)", cfg.Interval)
	}
	if !cfg.Trim {
		t.Errorf("Trim = %v, want true (file should set)", cfg.Trim)
	}
}
