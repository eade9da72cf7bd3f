package main

import "testing"

func TestLoadConfig_DefaultsWhenNoConfigFile(t *testing.T) {
	cfgFile = ""
	dbPath = "onionwatch.db"
	defer func() { dbPath = "onionwatch.db" }()

	cfg, err := loadConfig([]string{"http://abcdefghijklmnopqrstuvwxyz234567abcdefghijklmnopqrstuvwx.onion/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != "onionwatch.db" {
		t.Errorf("expected db path onionwatch.db, got %s", cfg.DBPath())
	}
	if len(cfg.SeedURLs()) != 1 {
		t.Errorf("expected 1 seed url, got %d", len(cfg.SeedURLs()))
	}
}

func TestLoadConfig_RejectsEmptySeeds(t *testing.T) {
	cfgFile = ""

	if _, err := loadConfig(nil); err == nil {
		t.Error("expected an error for empty seed URLs, got none")
	}
}
