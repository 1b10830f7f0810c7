package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	configFile = ""
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Metrics.Namespace != "conduit" {
		t.Fatalf("expected default namespace, got %q", cfg.Metrics.Namespace)
	}
}

func TestLoadConfigReadsYAMLBySuffix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conduit.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	configFile = path
	defer func() { configFile = "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected yaml-loaded level=debug, got %q", cfg.Logging.Level)
	}
}
