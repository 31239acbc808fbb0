package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary YAML config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "{}")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "localhost" || cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT broker defaults = %+v", cfg.MQTT.Broker)
	}
	if cfg.API.Port != 5000 {
		t.Errorf("api.port = %d, want 5000", cfg.API.Port)
	}
	if cfg.Presence.SweepInterval != 30 || cfg.Presence.StaleThreshold != 45 {
		t.Errorf("presence defaults = %+v", cfg.Presence)
	}
	if cfg.WebSocket.Path != "/ws" {
		t.Errorf("websocket.path = %q, want /ws", cfg.WebSocket.Path)
	}
	if len(cfg.Catalog) != 6 {
		t.Errorf("default catalog has %d entries, want 6", len(cfg.Catalog))
	}
	if cfg.Catalog[0].Name != "Sapo Dardo Dorada" {
		t.Errorf("catalog[0] = %+v", cfg.Catalog[0])
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker:
    host: broker.exhibit.local
    port: 8883
    tls: true
    client_id: bridge-01
  qos: 2
presence:
  sweep_interval: 10
  stale_threshold: 20
catalog:
  - id: "7"
    name: "Cóndor"
    icon: "🦅"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.exhibit.local" || !cfg.MQTT.Broker.TLS {
		t.Errorf("broker = %+v", cfg.MQTT.Broker)
	}
	if cfg.MQTT.QoS != 2 {
		t.Errorf("qos = %d, want 2", cfg.MQTT.QoS)
	}
	if cfg.SweepInterval() != 10*time.Second || cfg.StaleThreshold() != 20*time.Second {
		t.Errorf("presence durations = %v / %v", cfg.SweepInterval(), cfg.StaleThreshold())
	}
	if len(cfg.Catalog) != 1 || cfg.Catalog[0].ID != "7" {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}

	// API settings not in the file keep their defaults.
	if cfg.API.Port != 5000 {
		t.Errorf("api.port = %d, want default 5000", cfg.API.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ANIMATRONICS_MQTT_HOST", "env-broker")
	t.Setenv("ANIMATRONICS_API_PORT", "9000")
	t.Setenv("ANIMATRONICS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	path := writeConfig(t, `
mqtt:
  broker:
    host: file-broker
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("env should override file, got %q", cfg.MQTT.Broker.Host)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("api.port = %d, want 9000", cfg.API.Port)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.API.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("allowed origins = %v", cfg.API.CORS.AllowedOrigins)
	}
	for i, origin := range want {
		if cfg.API.CORS.AllowedOrigins[i] != origin {
			t.Errorf("allowed_origins[%d] = %q, want %q", i, cfg.API.CORS.AllowedOrigins[i], origin)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.MQTT.Broker.ClientID = "" },
			wantErr: "client_id",
		},
		{
			name:    "bad api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:    "zero sweep interval",
			mutate:  func(c *Config) { c.Presence.SweepInterval = 0 },
			wantErr: "sweep_interval",
		},
		{
			name:    "negative stale threshold",
			mutate:  func(c *Config) { c.Presence.StaleThreshold = -1 },
			wantErr: "stale_threshold",
		},
		{
			name:    "empty catalog",
			mutate:  func(c *Config) { c.Catalog = nil },
			wantErr: "catalog",
		},
		{
			name: "duplicate catalog id",
			mutate: func(c *Config) {
				c.Catalog = []CatalogEntry{{ID: "1", Name: "a"}, {ID: "1", Name: "b"}}
			},
			wantErr: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}
