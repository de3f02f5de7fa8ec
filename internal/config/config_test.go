package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Anchor != "USDT" {
		t.Errorf("expected default anchor USDT, got %s", cfg.Anchor)
	}
	if cfg.PollIntervalSec != 10 {
		t.Errorf("expected default poll interval 10, got %v", cfg.PollIntervalSec)
	}
	if cfg.ProfitActionThresholdPct != 0.05 {
		t.Errorf("expected default threshold 0.05, got %v", cfg.ProfitActionThresholdPct)
	}
	if cfg.MaxIterations != 1000 {
		t.Errorf("expected default max_iterations 1000, got %d", cfg.MaxIterations)
	}
	if cfg.TimeoutMS != 10000 {
		t.Errorf("expected default timeout 10000ms, got %d", cfg.TimeoutMS)
	}
	if cfg.MirrorCooldownMinutes != 12 {
		t.Errorf("expected default cooldown 12min, got %v", cfg.MirrorCooldownMinutes)
	}
	if cfg.MinAmountMultiplier != 1.2 {
		t.Errorf("expected default multiplier 1.2, got %v", cfg.MinAmountMultiplier)
	}
	if cfg.MirrorTailLines != 2000 {
		t.Errorf("expected default tail 2000, got %d", cfg.MirrorTailLines)
	}
}

func TestLoad_FileValuesAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
exchanges: [binance, kraken]
anchor: EUR
poll_interval_sec: 5
swapper_log_path: /var/log/swapper.log
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SWAPPER_LOG_PATH", "/tmp/override.log")
	t.Setenv("MONITOR_EXCHANGES", "gate, okx")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Anchor != "EUR" {
		t.Errorf("expected anchor EUR from file, got %s", cfg.Anchor)
	}
	if cfg.PollIntervalSec != 5 {
		t.Errorf("expected poll 5 from file, got %v", cfg.PollIntervalSec)
	}
	if cfg.SwapperLogPath != "/tmp/override.log" {
		t.Errorf("env must override file, got %s", cfg.SwapperLogPath)
	}
	if len(cfg.Exchanges) != 2 || cfg.Exchanges[0] != "gate" || cfg.Exchanges[1] != "okx" {
		t.Errorf("env exchange list must override file, got %v", cfg.Exchanges)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure with no exchanges")
	}
	cfg.Exchanges = []string{"binance"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
	cfg.SnapshotEveryN = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation failure for zero cadence")
	}
}
