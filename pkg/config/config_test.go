package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("FILEDOCK_TEST_NAME", "dock")
	s := sample{Port: 1}
	if err := Parse([]byte("name: ${FILEDOCK_TEST_NAME}\ntimeout: 3s\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "dock" || s.Timeout != 3*time.Second {
		t.Errorf("got %+v", s)
	}
	if s.Port != 1 {
		t.Errorf("default port overwritten: %d", s.Port)
	}
}

func TestParse_Validates(t *testing.T) {
	var s sample
	err := Parse([]byte("name: x\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	s := sample{Port: 8080}
	if err := LoadOptional(filepath.Join(dir, "nope.yaml"), &s); err != nil {
		t.Fatalf("missing file should keep defaults: %v", err)
	}

	path := filepath.Join(dir, "c.yaml")
	if err := os.WriteFile(path, []byte("port: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadOptional(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Port != 9090 {
		t.Errorf("port = %d", s.Port)
	}

	bad := sample{}
	if err := LoadOptional(filepath.Join(dir, "nope.yaml"), &bad); err == nil {
		t.Fatal("invalid defaults should fail")
	}
}
