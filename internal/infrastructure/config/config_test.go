package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Errorf("expected mongo driver, got %q", cfg.StoreDriver)
	}
	if cfg.RegistrationTTL != 30*time.Minute {
		t.Errorf("expected 30m registration ttl, got %v", cfg.RegistrationTTL)
	}
	if cfg.DBTimeout != 10*time.Second {
		t.Errorf("expected 10s db timeout, got %v", cfg.DBTimeout)
	}
	if !cfg.Redis.Enabled || cfg.Events.Channel != "velvet:events" {
		t.Errorf("unexpected redis/events defaults: %+v %+v", cfg.Redis, cfg.Events)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development environment by default")
	}
}

func TestLoad_AdminIDs(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "secret",
		"ADMIN_IDS":    "1000,2000",
		"STORE_DRIVER": "memory",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 1000 || cfg.AdminIDs[1] != 2000 {
		t.Errorf("unexpected admin ids %v", cfg.AdminIDs)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "unknown driver", env: map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"}},
		{name: "bad admin id", env: map[string]string{"JWT_SECRET": "s", "ADMIN_IDS": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(context.Background(), envconfig.MapLookuper(tt.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
