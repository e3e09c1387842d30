package config

import (
	"os"
	"testing"
	"time"
)

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestAuthConfig_PolicyDefaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MaxLoginHits != 5 {
		t.Errorf("MaxLoginHits: got %d, want 5", cfg.Auth.MaxLoginHits)
	}
	if cfg.Auth.TempBlockDuration != 600*time.Second {
		t.Errorf("TempBlockDuration: got %v, want %v", cfg.Auth.TempBlockDuration, 600*time.Second)
	}
	if cfg.Auth.AccessTokenExpiry != 72*time.Hour {
		t.Errorf("AccessTokenExpiry: got %v, want %v", cfg.Auth.AccessTokenExpiry, 72*time.Hour)
	}
}

func TestAuthConfig_PolicyCustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("MAX_LOGIN_HITS", "3")
	os.Setenv("TEMP_LOGIN_BLOCK_DURATION", "5m")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.MaxLoginHits != 3 {
		t.Errorf("MaxLoginHits: got %d, want 3", cfg.Auth.MaxLoginHits)
	}
	if cfg.Auth.TempBlockDuration != 5*time.Minute {
		t.Errorf("TempBlockDuration: got %v, want %v", cfg.Auth.TempBlockDuration, 5*time.Minute)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with no JWT_SECRET should fail")
	}
}

func TestLoad_ShortJWTSecretInProduction(t *testing.T) {
	os.Setenv("JWT_SECRET", "short-secret-1234")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with a short secret in production should fail")
	}
}

func TestSocialConfig_AppleBundle(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("APPLE_TEAM_ID", "TEAM123")
	os.Setenv("APPLE_KEY_ID", "KEY456")
	os.Setenv("APPLE_CLIENT_ID", "com.example.app")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Social.Apple.TeamID != "TEAM123" {
		t.Errorf("Apple.TeamID: got %q, want %q", cfg.Social.Apple.TeamID, "TEAM123")
	}
	if cfg.Social.Apple.KeyID != "KEY456" {
		t.Errorf("Apple.KeyID: got %q, want %q", cfg.Social.Apple.KeyID, "KEY456")
	}
	if cfg.Social.ExchangeTimeout != 10*time.Second {
		t.Errorf("ExchangeTimeout: got %v, want %v", cfg.Social.ExchangeTimeout, 10*time.Second)
	}
}
