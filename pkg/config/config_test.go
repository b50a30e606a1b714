package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port < 0 {
		return errors.New("invalid")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExpand(t *testing.T) {
	t.Setenv("CATATAN_SET", "yes")
	t.Setenv("CATATAN_EMPTY", "")

	cases := map[string]string{
		"${CATATAN_SET}":             "yes",
		"${CATATAN_SET:-no}":         "yes",
		"${CATATAN_EMPTY:-fallback}": "fallback",
		"${CATATAN_UNSET_XYZ:-8080}": "8080",
		"${CATATAN_UNSET_XYZ}":       "",
		"plain":                      "plain",
	}
	for in, want := range cases {
		if got := Expand(in); got != want {
			t.Errorf("Expand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("CATATAN_TEST_PORT", "9090")
	path := writeFile(t, "name: ${CATATAN_TEST_NAME:-catatan}\nport: ${CATATAN_TEST_PORT}\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "catatan" || s.Port != 9090 {
		t.Errorf("got %+v", s)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 1}
	if err := Load(filepath.Join(t.TempDir(), "none.yaml"), &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "default" || s.Port != 1 {
		t.Errorf("defaults changed: %+v", s)
	}
}

func TestLoadValidationFails(t *testing.T) {
	path := writeFile(t, "port: -1\n")
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "port: [\n")
	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected parse error")
	}
}
