package main

import (
	"os"
	"reflect"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "actual",
			want:         "actual",
		},
		{
			name:         "returns default when env not set",
			key:          "UNSET_KEY",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns parsed int when valid",
			key:          "TEST_INT",
			defaultValue: 42,
			envValue:     "100",
			want:         100,
		},
		{
			name:         "returns default when not set",
			key:          "UNSET_INT",
			defaultValue: 42,
			envValue:     "",
			want:         42,
		},
		{
			name:         "returns default when invalid int",
			key:          "INVALID_INT",
			defaultValue: 42,
			envValue:     "not-a-number",
			want:         42,
		},
		{
			name:         "handles zero value",
			key:          "ZERO_INT",
			defaultValue: 42,
			envValue:     "0",
			want:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHealthURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://127.0.0.1:8080", "health", "http://127.0.0.1:8080/health"},
		{"http://127.0.0.1:8080/", "/health", "http://127.0.0.1:8080/health"},
		{"http://llm:8000/v1", "models", "http://llm:8000/v1/models"},
	}
	for _, tt := range tests {
		if got := healthURL(tt.base, tt.path); got != tt.want {
			t.Errorf("healthURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" 919000000001, ,918000000002,")
	want := []string{"919000000001", "918000000002"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitList() = %v, want %v", got, want)
	}
	if splitList("") != nil {
		t.Error("expected nil for an empty list")
	}
}

func TestTargetsIncludesLLMWhenConfigured(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://127.0.0.1:8080")
	t.Setenv("LLM_HEALTH_PATH", "")

	list := targets()
	if len(list) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(list))
	}
	if list[2].HealthURL != "http://127.0.0.1:8080/health" {
		t.Errorf("unexpected llm health url %q", list[2].HealthURL)
	}
}

func TestNewAlerterRejectsUnknownChannel(t *testing.T) {
	t.Setenv("ALERT_CHANNEL", "pager")
	if _, _, err := newAlerter(nil); err == nil {
		t.Error("expected an error for an unknown alert channel")
	}
}
