package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEVICE_TIMEOUT", "")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("ASSISTANT_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DeviceTimeout != 2*time.Second || cfg.DeviceMaxAge != time.Minute || cfg.NoticeTTL != 4*time.Second {
		t.Fatalf("unexpected resolver defaults %+v", cfg)
	}
	if cfg.AssistantModel != "llama-3.3-70b-versatile" || cfg.AssistantMaxTokens != 500 || cfg.AssistantTemperature != 0.7 {
		t.Fatalf("unexpected assistant defaults %+v", cfg)
	}
	if cfg.AssistantAPIKey != "groq-key" {
		t.Fatalf("AssistantAPIKey = %q; want GROQ_API_KEY fallback", cfg.AssistantAPIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEVICE_TIMEOUT", "500ms")
	t.Setenv("NOTICE_TTL", "10s")
	t.Setenv("ASSISTANT_MAX_TOKENS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DeviceTimeout != 500*time.Millisecond || cfg.NoticeTTL != 10*time.Second || cfg.AssistantMaxTokens != 250 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("SESSION_IDLE_TTL", "forever")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid SESSION_IDLE_TTL")
	}
}

func TestLoadInvalidNumbers(t *testing.T) {
	cases := map[string]string{
		"ASSISTANT_TEMPERATURE": "hot",
		"ASSISTANT_MAX_TOKENS":  "abc",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error naming %s, got %v", key, err)
			}
		})
	}
}
