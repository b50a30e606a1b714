package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret", Owner: "rina"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Owner: "rina"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_TokenModeEmptyOwner(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "x"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "owner is empty") {
		t.Errorf("err = %v, want owner is empty", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if got := cfg.App.Location().String(); got != "Asia/Jakarta" {
		t.Errorf("location = %q", got)
	}
	if !strings.HasSuffix(cfg.Data.ImagesDir(), "images") {
		t.Errorf("images dir = %q", cfg.Data.ImagesDir())
	}
}

func TestAppConfig_BadTimezone(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown timezone should fail")
	}
}

func TestMetricsConfig(t *testing.T) {
	cfg := MetricsConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled metrics without path should fail")
	}
	cfg = MetricsConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled metrics should pass: %v", err)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
