package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Sim.TickRate != 60 {
		t.Errorf("TickRate = %d, want 60", cfg.Sim.TickRate)
	}
	if cfg.Player.MaxHealth != 500 {
		t.Errorf("MaxHealth = %d, want 500", cfg.Player.MaxHealth)
	}
	if cfg.Player.DamagePerHit != 15 || cfg.Player.HealthRegenPerTick != 5 || cfg.Player.GraceTicks != 120 {
		t.Errorf("health params = %d/%d/%d, want 15/5/120",
			cfg.Player.DamagePerHit, cfg.Player.HealthRegenPerTick, cfg.Player.GraceTicks)
	}
	if cfg.Lives.Max != 5 {
		t.Errorf("Lives.Max = %d, want 5", cfg.Lives.Max)
	}
	if cfg.Derived.TicksPerStaminaStep != 60 {
		t.Errorf("TicksPerStaminaStep = %d, want 60", cfg.Derived.TicksPerStaminaStep)
	}
	if cfg.Level.Map == "" {
		t.Error("default level map is empty")
	}
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("player:\n  walk_speed: 0.2\nlives:\n  max: 0\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Player.WalkSpeed != 0.2 {
		t.Errorf("WalkSpeed = %v, want 0.2", cfg.Player.WalkSpeed)
	}
	if cfg.Player.SprintSpeed != 0.16 {
		t.Errorf("SprintSpeed = %v, want default 0.16", cfg.Player.SprintSpeed)
	}
	if cfg.Lives.Max != 0 {
		t.Errorf("Lives.Max = %d, want 0", cfg.Lives.Max)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero tick rate", "sim:\n  tick_rate: 0\n"},
		{"stamina faster than ticks", "sim:\n  stamina_hz: 120\n"},
		{"negative lives", "lives:\n  max: -1\n"},
		{"zero tile", "level:\n  tile_size: 0\n"},
		{"zero stats window", "telemetry:\n  stats_window: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Player.AttackRange = 2.5

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Player.AttackRange != 2.5 {
		t.Errorf("AttackRange = %v, want 2.5", loaded.Player.AttackRange)
	}
}

func TestInitSetsGlobal(t *testing.T) {
	prev := global
	t.Cleanup(func() { global = prev })

	global = nil
	if err := Init(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Init with a missing file should fail")
	}
	if global != nil {
		t.Fatal("failed Init replaced the global config")
	}

	if err := Init(""); err != nil {
		t.Fatalf("Init(\"\"): %v", err)
	}
	if Cfg().Sim.TickRate != 60 {
		t.Errorf("Cfg().Sim.TickRate = %d, want 60", Cfg().Sim.TickRate)
	}
}
