package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.MaxSessions <= 0 {
		t.Errorf("MaxSessions = %d, want > 0", cfg.MaxSessions)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RRSCHED_ADDR", ":9999")
	t.Setenv("RRSCHED_LOG_LEVEL", "debug")
	t.Setenv("RRSCHED_MAX_SESSIONS", "3")

	cfg := DefaultServerConfig()
	cfg.ApplyEnv()
	if cfg.Addr != ":9999" || cfg.LogLevel != "debug" || cfg.MaxSessions != 3 {
		t.Errorf("ApplyEnv() = %+v", cfg)
	}
}

func TestApplyEnv_IgnoresBadNumbers(t *testing.T) {
	t.Setenv("RRSCHED_MAX_SESSIONS", "many")
	cfg := DefaultServerConfig()
	cfg.ApplyEnv()
	if cfg.MaxSessions != 64 {
		t.Errorf("MaxSessions = %d, want default 64", cfg.MaxSessions)
	}
}

func TestResolveDBPath(t *testing.T) {
	cfg := ServerConfig{DBPath: ":memory:"}
	if p, err := cfg.ResolveDBPath(); err != nil || p != ":memory:" {
		t.Errorf("ResolveDBPath() = %q, %v", p, err)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	p, err := ServerConfig{}.ResolveDBPath()
	if err != nil {
		t.Fatalf("ResolveDBPath: %v", err)
	}
	if want := filepath.Join(home, ".rrsched", "rrsched.db"); p != want {
		t.Errorf("ResolveDBPath() = %q, want %q", p, want)
	}
}

func TestDefaultClientConfig_Env(t *testing.T) {
	t.Setenv("RRSCHED_SERVER", "http://sched:1234")
	if got := DefaultClientConfig().Server; got != "http://sched:1234" {
		t.Errorf("Server = %q", got)
	}
}
