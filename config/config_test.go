package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Telegram      struct {
		Token       string        `mapstructure:"token"`
		PollTimeout time.Duration `mapstructure:"poll_timeout"`
	} `mapstructure:"telegram"`
	Transcription struct {
		Model string `mapstructure:"model"`
	} `mapstructure:"transcription"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected logging defaults, got %+v", cfg.Logging)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: transcribot
environment: staging
telegram:
  token: from-file
  poll_timeout: 25s
transcription:
  model: base
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("transcribot", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "transcribot" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.Telegram.Token != "from-file" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.PollTimeout != 25*time.Second {
		t.Errorf("poll_timeout = %v", cfg.Telegram.PollTimeout)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("telegram:\n  token: from-file\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("WHISPER_MODEL", "large-v3")

	var cfg testConfig
	err := LoadConfig("transcribot", &cfg,
		WithConfigFile(configPath),
		WithEnvAlias("WHISPER_MODEL", "transcription.model"),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("token = %q, want from-env", cfg.Telegram.Token)
	}
	if cfg.Transcription.Model != "large-v3" {
		t.Errorf("model = %q, want large-v3", cfg.Transcription.Model)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("name: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	var cfg testConfig
	if err := LoadConfig("transcribot", &cfg, WithConfigFile(configPath)); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverSearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/transcribot/config.yml": true,
		"./config.yml":                 true,
		"./.env":                       true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("transcribot", LoaderConfig{})
	if files.ConfigFile != "./cmd/transcribot/config.yml" {
		t.Errorf("config file = %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("env file = %q", files.EnvFile)
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./config.yml": true}}}
	files := resolver.ResolveFiles("svc", LoaderConfig{ConfigFile: "/etc/svc.yml", EnvFile: "/etc/svc.env"})
	if files.ConfigFile != "/etc/svc.yml" || files.EnvFile != "/etc/svc.env" {
		t.Errorf("unexpected resolution: %+v", files)
	}
}

func TestConfigKeys(t *testing.T) {
	keys := configKeys(reflect.TypeOf(&testConfig{}), "")
	for _, want := range []string{"name", "environment", "logging.level", "telegram.token", "telegram.poll_timeout", "transcription.model"} {
		if !slices.Contains(keys, want) {
			t.Errorf("missing key %q in %v", want, keys)
		}
	}
	if envName("telegram.poll_timeout") != "TELEGRAM_POLL_TIMEOUT" {
		t.Errorf("envName = %q", envName("telegram.poll_timeout"))
	}
}

func TestEnvAliasOption(t *testing.T) {
	var lc LoaderConfig
	WithEnvAlias("WHISPER_LANGUAGE", "transcription.language")(&lc)
	if lc.EnvAliases["WHISPER_LANGUAGE"] != "transcription.language" {
		t.Errorf("alias not recorded: %v", lc.EnvAliases)
	}
}
