package config_test

import (
	"testing"

	"github.com/onionwatch/onionwatch/internal/config"
)

func TestBuild_RequiresSeedURLs(t *testing.T) {
	_, err := config.WithDefault(nil).Build()
	if err == nil {
		t.Fatal("expected error for empty seed URLs")
	}
}

func TestBuild_DefaultsAllowedHostsFromSeeds(t *testing.T) {
	cfg, err := config.WithDefault([]string{"http://abc123.onion/", "http://def456.onion/page"}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hosts := cfg.AllowedHosts()
	if _, ok := hosts["abc123.onion"]; !ok {
		t.Errorf("expected abc123.onion in allowed hosts, got %v", hosts)
	}
	if _, ok := hosts["def456.onion"]; !ok {
		t.Errorf("expected def456.onion in allowed hosts, got %v", hosts)
	}
}

func TestBuild_ExplicitAllowedHostsNotOverridden(t *testing.T) {
	cfg, err := config.WithDefault([]string{"http://abc123.onion/"}).
		WithAllowedHosts([]string{"other.onion"}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hosts := cfg.AllowedHosts()
	if _, ok := hosts["other.onion"]; !ok {
		t.Errorf("expected explicit allowed host to survive, got %v", hosts)
	}
	if _, ok := hosts["abc123.onion"]; ok {
		t.Errorf("did not expect seed host to be injected when allowed hosts set explicitly")
	}
}

func TestBuild_DefaultsAreSane(t *testing.T) {
	cfg, err := config.WithDefault([]string{"http://abc123.onion/"}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxWorkers() <= 0 {
		t.Errorf("expected positive default max workers, got %d", cfg.MaxWorkers())
	}
	if cfg.SessionRecycle() != 40 {
		t.Errorf("expected default session recycle 40, got %d", cfg.SessionRecycle())
	}
	if cfg.SocksPrimaryPort() != 9050 || cfg.SocksFallbackPort() != 9150 {
		t.Errorf("unexpected default socks ports: %d / %d", cfg.SocksPrimaryPort(), cfg.SocksFallbackPort())
	}
}
