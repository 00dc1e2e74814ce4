package internal

import (
	"strings"
	"testing"
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

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
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
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("backend = %q", cfg.Storage.Backend)
	}
}

func TestStorageConfig_UnknownBackend(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = "dropbox"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail validation")
	}
}

func TestStorageConfig_OnlySelectedBlockValidated(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Remote.BaseURL = ""
	cfg.Storage.Backend = BackendDisk
	if err := cfg.Validate(); err != nil {
		t.Fatalf("remote block should be ignored for disk: %v", err)
	}

	cfg.Storage.Backend = BackendRemote
	err := cfg.Validate()
	if err == nil {
		t.Fatal("remote without base_url should fail")
	}
	if !strings.Contains(err.Error(), "storage.remote") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStorageConfig_RemoteURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = BackendRemote
	cfg.Storage.Remote.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid base_url should fail")
	}
	cfg.Storage.Remote.BaseURL = "http://localhost:8081"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid remote config failed: %v", err)
	}
}

func TestStorageConfig_LocalDefaultPrefix(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = BackendLocal
	cfg.Storage.Local.Prefix = ""
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Local.Prefix == "" {
		t.Error("empty prefix should fall back to the default")
	}
}

func TestDialogConfig_InboxSize(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Dialog.InboxSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero inbox size should fail")
	}
}
