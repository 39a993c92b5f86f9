package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadFallsBackOnBadDurations(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("CLOUD_SYNC_TIMEOUT_SECONDS", "-5")

	cfg := Load()
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected TTL fallback 480, got %d", cfg.AccessTokenTTLMinutes)
	}
	if cfg.CloudSyncTimeoutSecs != 10 {
		t.Fatalf("expected sync timeout fallback 10, got %d", cfg.CloudSyncTimeoutSecs)
	}
}
