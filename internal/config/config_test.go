package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"empty", "", true},
		{"production", "production", false},
		{"prod", "prod", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsDevelopment(); got != tt.expected {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfig_Validate_Production(t *testing.T) {
	tests := []struct {
		name          string
		sessionSecret string
		wantError     bool
		errorContains string
	}{
		{
			name:          "valid_secret",
			sessionSecret: "this-is-a-very-secure-secret-with-32-plus-characters",
			wantError:     false,
		},
		{
			name:          "empty_secret",
			sessionSecret: "",
			wantError:     true,
			errorContains: "SESSION_SECRET must be set",
		},
		{
			name:          "default_secret",
			sessionSecret: "change-this-in-production",
			wantError:     true,
			errorContains: "SESSION_SECRET must be set",
		},
		{
			name:          "short_secret",
			sessionSecret: "short",
			wantError:     true,
			errorContains: "at least 32 characters",
		},
		{
			name:          "exactly_32_chars",
			sessionSecret: "12345678901234567890123456789012",
			wantError:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Environment:     "production",
				SessionSecret:   tt.sessionSecret,
				AccessTokenTTL:  12 * time.Hour,
				RefreshTokenTTL: 7 * 24 * time.Hour,
			}

			err := cfg.Validate()

			if tt.wantError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
			if tt.errorContains != "" && err != nil && !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("Expected error containing %q, got: %v", tt.errorContains, err)
			}
		})
	}
}

func TestConfig_Validate_Development_DefaultSecret(t *testing.T) {
	cfg := &Config{
		Environment:     "development",
		AccessTokenTTL:  12 * time.Hour,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.SessionSecret == "" {
		t.Error("Expected a default session secret in development")
	}
}

func TestConfig_Validate_TokenTTLs(t *testing.T) {
	tests := []struct {
		name       string
		accessTTL  time.Duration
		refreshTTL time.Duration
		wantError  bool
	}{
		{"defaults", 12 * time.Hour, 7 * 24 * time.Hour, false},
		{"equal ttls", time.Hour, time.Hour, false},
		{"refresh shorter than access", 12 * time.Hour, time.Hour, true},
		{"zero access ttl", 0, 7 * 24 * time.Hour, true},
		{"negative refresh ttl", 12 * time.Hour, -time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Environment:     "development",
				SessionSecret:   "dev-secret",
				AccessTokenTTL:  tt.accessTTL,
				RefreshTokenTTL: tt.refreshTTL,
			}

			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}
