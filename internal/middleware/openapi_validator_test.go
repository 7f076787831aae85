package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAPIValidator_Disabled(t *testing.T) {
	mw := OpenAPIValidator(&OpenAPIValidatorConfig{Enabled: false})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/anything", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("disabled validator should pass through, got %d", rec.Code)
	}
}

func TestOpenAPIValidator_MissingSpecDegradesToNoop(t *testing.T) {
	mw := OpenAPIValidator(&OpenAPIValidatorConfig{
		Enabled:  true,
		SpecPath: "does/not/exist.yaml",
	})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/anything", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("validator with missing spec should pass through, got %d", rec.Code)
	}
}

func TestShouldSkipPath(t *testing.T) {
	skip := []string{"/health", "/metrics"}

	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/ready", true},
		{"/metrics", true},
		{"/api/v1/auth/login", false},
	}

	for _, tt := range tests {
		if got := shouldSkipPath(tt.path, skip); got != tt.want {
			t.Errorf("shouldSkipPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
