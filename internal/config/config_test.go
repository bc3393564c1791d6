package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
catalog:
  base_url: https://api.lib.harvard.edu/v2/items?
  limit: 10
cache_dir: /tmp/cache
known_rightsholders:
  - publisher: MIT Press
    copyright_holder: MIT
test_mode:
  on: true
  num_records: 5
`)

	t.Setenv("EBOOK_IDENT_API_KEY", "sekrit")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Catalog.BaseURL != "https://api.lib.harvard.edu/v2/items?" {
		t.Errorf("BaseURL = %q", cfg.Catalog.BaseURL)
	}
	if cfg.APIKey != "sekrit" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if !cfg.TestMode.On || cfg.TestMode.NumRecords != 5 {
		t.Errorf("TestMode = %+v", cfg.TestMode)
	}
	if len(cfg.OutputColumns) == 0 {
		t.Error("OutputColumns default not applied")
	}
	if !cfg.Allowed("MIT Press", "MIT") {
		t.Error("Allowed = false for listed pair")
	}
	if cfg.Allowed("MIT Press", "Harvard") {
		t.Error("Allowed = true for unlisted pair")
	}
}

func TestLoadRejectsMissingBaseURL(t *testing.T) {
	path := writeConfig(t, "cache_dir: /tmp/x\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded without catalog.base_url")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load succeeded on missing file")
	}
}
