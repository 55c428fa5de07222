package internal

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestSyncConfig_ParsesDurationString(t *testing.T) {
	var cfg SyncConfig
	if err := yaml.Unmarshal([]byte("interval: 90s\n"), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Interval != 90*time.Second {
		t.Errorf("interval = %s, want 90s", cfg.Interval)
	}
}

func TestSyncConfig_EmptyIntervalKeepsDefault(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal([]byte("sync: {}\n"), cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Sync.Interval != 5*time.Minute {
		t.Errorf("interval = %s, want default 5m", cfg.Sync.Interval)
	}
}

func TestSyncConfig_RejectsSubSecondInterval(t *testing.T) {
	cfg := SyncConfig{Interval: 100 * time.Millisecond}
	if err := cfg.Validate(); err == nil {
		t.Fatal("sub-second interval should fail validation")
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfig_MissingRemoteURLFails(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Remote.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing remote base_url should fail validation")
	}
}
