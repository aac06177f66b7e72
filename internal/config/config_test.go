package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("AUTOSAVE_DRAFT_DELAY", "")
	t.Setenv("AUTOSAVE_EDIT_DELAY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverSQLite)
	}
	if cfg.DraftDelay != time.Second {
		t.Errorf("DraftDelay = %v, want 1s", cfg.DraftDelay)
	}
	if cfg.EditDelay != 500*time.Millisecond {
		t.Errorf("EditDelay = %v, want 500ms", cfg.EditDelay)
	}
	if cfg.ProtectLastRecord {
		t.Error("ProtectLastRecord should default to false")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "STORE_DRIVER", "redis"},
		{"bad draft delay", "AUTOSAVE_DRAFT_DELAY", "soon"},
		{"zero edit delay", "AUTOSAVE_EDIT_DELAY", "0s"},
		{"bad quota", "STORE_QUOTA_BYTES", "lots"},
		{"bad bool", "PROTECT_LAST_RECORD", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "1", DBName: "d", DBSSLMode: "disable"}
	if got, want := cfg.PostgresDSN(), "postgres://u:p@h:1/d?sslmode=disable"; got != want {
		t.Errorf("PostgresDSN() = %q, want %q", got, want)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList() = %v", got)
	}
}

func TestLoadDotEnvKeepsProcessEnvironment(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	if err := os.WriteFile(file, []byte("PORT=9090\nGIN_MODE=release\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	orig := EnvFiles
	EnvFiles = []string{filepath.Join(dir, "missing.env"), file}
	t.Cleanup(func() { EnvFiles = orig })

	t.Setenv("PORT", "7070")
	t.Setenv("GIN_MODE", "")
	os.Unsetenv("GIN_MODE")

	loaded := LoadDotEnv()
	if len(loaded) != 1 || loaded[0] != file {
		t.Fatalf("LoadDotEnv() = %v, want only %s", loaded, file)
	}
	if got := os.Getenv("PORT"); got != "7070" {
		t.Errorf("PORT = %q, the process value should win", got)
	}
	if got := os.Getenv("GIN_MODE"); got != "release" {
		t.Errorf("GIN_MODE = %q, want release from the file", got)
	}
}
