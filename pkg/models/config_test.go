package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/carverauto/dashgate/pkg/logger"
)

func TestRelayConfigUnmarshalJSONAcceptsDurationString(t *testing.T) {
	var cfg RelayConfig
	payload := `{"reconnect_delay":"1500ms","reconnect_attempts":10}`

	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		t.Fatalf("unmarshal relay config: %v", err)
	}

	if time.Duration(cfg.ReconnectDelay) != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s delay, got %v", time.Duration(cfg.ReconnectDelay))
	}
}

func TestRelayConfigUnmarshalJSONAcceptsDurationNumber(t *testing.T) {
	var cfg RelayConfig
	payload := `{"login_cooldown": 5000000000}`

	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		t.Fatalf("unmarshal relay config number: %v", err)
	}

	if time.Duration(cfg.LoginCooldown) != 5*time.Second {
		t.Fatalf("expected 5s cooldown, got %v", time.Duration(cfg.LoginCooldown))
	}
}

func TestDurationMarshalJSONFormatsString(t *testing.T) {
	data, err := json.Marshal(RelayConfig{ReconnectDelay: Duration(time.Second)})
	if err != nil {
		t.Fatalf("marshal relay config: %v", err)
	}

	if want := `"reconnect_delay":"1s"`; !strings.Contains(string(data), want) {
		t.Fatalf("expected JSON to contain %s, got %s", want, string(data))
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ListenAddr: ":3000",
			Logging:    &logger.Config{Level: "info"},
			Targets: TargetsConfig{
				DNSFilter: TargetConfig{URL: "http://pi.hole"},
			},
			Relay: RelayConfig{URL: "http://kuma:3001", ReconnectAttempts: 10},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg := valid()
	cfg.Targets.AutomationHub.URL = "homeassistant:8123"

	if err := cfg.Validate(); !errors.Is(err, errInvalidTargetURL) {
		t.Fatalf("expected invalid url error, got %v", err)
	}

	cfg = valid()
	cfg.Relay.ReconnectAttempts = 0

	if err := cfg.Validate(); !errors.Is(err, errInvalidReconnect) {
		t.Fatalf("expected reconnect error, got %v", err)
	}

	cfg = valid()
	cfg.ListenAddr = ""

	if err := cfg.Validate(); !errors.Is(err, errListenAddrRequired) {
		t.Fatalf("expected listen address error, got %v", err)
	}
}
