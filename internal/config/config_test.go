package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", cfg.DatabaseType)
	}
	if cfg.SessionDuration != 30*24*time.Hour {
		t.Errorf("SessionDuration = %v, want 720h", cfg.SessionDuration)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_URL", "postgres://localhost/gramtrack")
	t.Setenv("SESSION_DURATION", "1h")

	cfg := Load()

	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q, want 9000", cfg.ServerPort)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("DatabaseType = %q, want postgres", cfg.DatabaseType)
	}
	if cfg.DatabaseURL != "postgres://localhost/gramtrack" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.SessionDuration != time.Hour {
		t.Errorf("SessionDuration = %v, want 1h", cfg.SessionDuration)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SESSION_DURATION", "not-a-duration")

	cfg := Load()
	if cfg.SessionDuration != 30*24*time.Hour {
		t.Errorf("SessionDuration = %v, want default", cfg.SessionDuration)
	}
}
