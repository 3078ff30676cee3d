package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	_, err := Load(path)
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"users": [`)
	_, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadTrailingDataRejected(t *testing.T) {
	for name, content := range map[string]string{
		"second document": `{"users":[{"username":"a","password":"b"}]} {"users":[]}`,
		"garbage tail":    `{"users":[{"username":"a","password":"b"}]} garbage`,
	} {
		path := writeConfig(t, content)
		_, err := Load(path)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestLoadUnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, `{"accounts": [{"username":"a","password":"b"}]}`)
	_, err := Load(path)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown field, got %v", err)
	}
}

func TestLoadEmptyUsers(t *testing.T) {
	for name, content := range map[string]string{
		"empty list": `{"users": []}`,
		"absent key": `{}`,
	} {
		path := writeConfig(t, content)
		_, err := Load(path)
		if !errors.Is(err, ErrNoAccounts) {
			t.Fatalf("%s: expected ErrNoAccounts, got %v", name, err)
		}
	}
}

func TestLoadPreservesOrder(t *testing.T) {
	path := writeConfig(t, `{"users": [
		{"username":"carol","password":"p3"},
		{"username":"alice","password":"p1"},
		{"username":"bob","password":"p2"}
	]}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"carol", "alice", "bob"}
	if len(cfg.Users) != len(want) {
		t.Fatalf("expected %d users, got %d", len(want), len(cfg.Users))
	}
	for i, u := range cfg.Users {
		if u.Username != want[i] {
			t.Fatalf("user %d: got %q want %q", i, u.Username, want[i])
		}
	}
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample is not valid JSON: %v", err)
	}
	if len(cfg.Users) != 2 {
		t.Fatalf("expected exactly 2 placeholder users, got %d", len(cfg.Users))
	}
	for _, u := range cfg.Users {
		if u.Username == "" || u.Password == "" {
			t.Fatalf("placeholder entry is incomplete: %+v", u)
		}
	}

	// Sample must be loadable, so the operator only has to edit values.
	if _, err := Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	for _, err := range []error{ErrMissing, ErrInvalid, ErrNoAccounts} {
		if !IsFatal(err) {
			t.Fatalf("expected %v to be fatal", err)
		}
	}
	if IsFatal(errors.New("network blip")) {
		t.Fatal("unclassified error must not be fatal")
	}
}
