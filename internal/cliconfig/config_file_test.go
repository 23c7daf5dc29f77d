package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Input:       "/var/log/app.log",
				Follow:      &trueVal,
				Sink:        "http",
				ServiceURL:  "http://example.com",
				AuthKey:     "secret",
				HTTPTimeout: "30s",
				SQLitePath:  "/data/out.db",
				Interval:    "5s",
				Max:         50,
				DropPattern: "^DEBUG",
				Trim:        &trueVal,
				MetricsAddr: ":9090",
				LogLevel:    "debug",
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
				Interval:    5 * time.Second,
				Max:         50,
				DropPattern: "^DEBUG",
				Trim:        true,
				MetricsAddr: ":9090",
				LogLevel:    "debug",
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				Sink:     "sqlite",
				Interval: "10s",
			},
			changed: map[string]bool{"sink": true},
			initial: Config{Sink: "stdout"},
			expected: Config{
				Sink:     "stdout", // unchanged because flag was set
				Interval: 10 * time.Second,
			},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Interval: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}
			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig_TOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	tomlContent := `
sink = "sqlite"
sqlite_path = "/tmp/out.db"
interval = "2s"
max = 10
trim = true
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Sink != "sqlite" {
		t.Errorf("Sink = %v, want sqlite", fc.Sink)
	}
	if fc.SQLitePath != "/tmp/out.db" {
		t.Errorf("SQLitePath = %v, want /tmp/out.db", fc.SQLitePath)
	}
	if fc.Interval != "2s" {
		t.Errorf("Interval = %v, want 2s", fc.Interval)
	}
	if fc.Max != 10 {
		t.Errorf("Max = %v, want 10", fc.Max)
	}
	if fc.Trim == nil || !*fc.Trim {
		t.Errorf("Trim = %v, want true", fc.Trim)
	}
	if fc.Follow != nil {
		t.Errorf("Follow = %v, want nil when absent", fc.Follow)
	}
}

func TestLoadFileConfig_YAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
sink: http
service_url: http://collector:8080
auth_key: secret
follow: true
drop_pattern: "^DEBUG"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.Sink != "http" {
		t.Errorf("Sink = %v, want http", fc.Sink)
	}
	if fc.ServiceURL != "http://collector:8080" {
		t.Errorf("ServiceURL = %v, want http://collector:8080", fc.ServiceURL)
	}
	if fc.AuthKey != "secret" {
		t.Errorf("AuthKey = %v, want secret", fc.AuthKey)
	}
	if fc.Follow == nil || !*fc.Follow {
		t.Errorf("Follow = %v, want true", fc.Follow)
	}
	if fc.DropPattern != "^DEBUG" {
		t.Errorf("DropPattern = %v, want ^DEBUG", fc.DropPattern)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidContent(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"invalid.toml", "sink = \"stdout\"\nthis is not valid toml\n"},
		{"invalid.yml", "sink: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), tt.file)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			if _, err := LoadFileConfig(configPath); err == nil {
				t.Error("LoadFileConfig() expected error for invalid content")
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".batchship") {
		t.Errorf("DefaultConfigPath() = %v, should contain .batchship", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
