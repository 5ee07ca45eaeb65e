package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ServiceURL != DefaultServiceURL {
		t.Fatalf("unexpected service URL %q", cfg.ServiceURL)
	}
	if cfg.DBPath == "" || cfg.LogDir == "" {
		t.Fatalf("defaults incomplete: %+v", cfg)
	}
	if cfg.Debug {
		t.Fatal("debug should default to off")
	}
}

func TestLoadFileMissingIsNotAnError(t *testing.T) {
	cfg := Default()
	if err := LoadFile(&cfg, filepath.Join(t.TempDir(), "absent.toml")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
	if cfg.ServiceURL != DefaultServiceURL {
		t.Fatal("config should be untouched when the file is missing")
	}
}

func TestLoadFileMergesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrcarechat.toml")
	content := "service_url = \"http://localhost:8000\"\ndebug = true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(&cfg, path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.ServiceURL != "http://localhost:8000" || !cfg.Debug {
		t.Fatalf("file values not merged: %+v", cfg)
	}
	// keys absent from the file keep their defaults
	if cfg.DBPath != Default().DBPath {
		t.Fatalf("unset key was clobbered: %q", cfg.DBPath)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("service_url = [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := LoadFile(&cfg, path); err == nil {
		t.Fatal("malformed file should be an error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HRCARE_SERVICE_URL", "http://localhost:9000")
	t.Setenv("HRCARE_DB_PATH", "/tmp/chat.db")
	t.Setenv("HRCARE_DEBUG", "true")

	cfg := Default()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.ServiceURL != "http://localhost:9000" || cfg.DBPath != "/tmp/chat.db" || !cfg.Debug {
		t.Fatalf("env values not merged: %+v", cfg)
	}
}

func TestApplyEnvInvalidDebug(t *testing.T) {
	t.Setenv("HRCARE_DEBUG", "maybe")
	cfg := Default()
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("invalid HRCARE_DEBUG should be an error")
	}
}
