package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Exchanges                []string `yaml:"exchanges"`
	Anchor                   string   `yaml:"anchor"`
	Bridge                   string   `yaml:"bridge"`
	PollIntervalSec          float64  `yaml:"poll_interval_sec"`
	MinValueAnchor           float64  `yaml:"min_value_anchor"`
	ProfitActionThresholdPct float64  `yaml:"profit_action_threshold_pct"`
	MaxIterations            int      `yaml:"max_iterations"`
	RunDurationSec           float64  `yaml:"run_duration_sec"`
	TimeoutMS                int      `yaml:"timeout_ms"`
	Concurrency              int      `yaml:"concurrency"`
	MirrorCooldownMinutes    float64  `yaml:"mirror_cooldown_minutes"`
	MinAmountMultiplier      float64  `yaml:"min_amount_multiplier"`
	MirrorTailLines          int      `yaml:"mirror_tail_lines"`
	SwapperLogPath           string   `yaml:"swapper_log_path"`
	SwapperCmd               string   `yaml:"swapper_cmd"`
	RenderEveryN             int      `yaml:"render_every_n"`
	SnapshotEveryN           int      `yaml:"snapshot_every_n"`
	LogEveryN                int      `yaml:"log_every_n"`
	HistoryEveryN            int      `yaml:"history_every_n"`
	ClearScreen              bool     `yaml:"clear_screen"`
	Output                   struct {
		SnapshotCSV string `yaml:"snapshot_csv"`
		SnapshotLog string `yaml:"snapshot_log"`
		HistoryCSV  string `yaml:"history_csv"`
		HistoryLog  string `yaml:"history_log"`
		PerfCSV     string `yaml:"perf_csv"`
	} `yaml:"output"`
	HistoryRotateCron string `yaml:"history_rotate_cron"`
	StateFile         string `yaml:"state_file"`
	SQLitePath        string `yaml:"sqlite_path"`
	Telegram          struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and documented defaults. A missing file yields a default config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("MONITOR_EXCHANGES"); v != "" {
		cfg.Exchanges = nil
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.Exchanges = append(cfg.Exchanges, e)
			}
		}
	}
	if v := os.Getenv("SWAPPER_LOG_PATH"); v != "" {
		cfg.SwapperLogPath = v
	}
	if v := os.Getenv("SWAPPER_CMD"); v != "" {
		cfg.SwapperCmd = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxIterations = n
		}
	}

	// Defaults
	if cfg.Anchor == "" {
		cfg.Anchor = "USDT"
	}
	if cfg.Bridge == "" {
		cfg.Bridge = "USDT"
	}
	if cfg.PollIntervalSec == 0 {
		cfg.PollIntervalSec = 10
	}
	if cfg.MinValueAnchor == 0 {
		cfg.MinValueAnchor = 1.0
	}
	if cfg.ProfitActionThresholdPct == 0 {
		cfg.ProfitActionThresholdPct = 0.05
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 1000
	}
	if cfg.TimeoutMS == 0 {
		cfg.TimeoutMS = 10000
	}
	if cfg.MirrorCooldownMinutes == 0 {
		cfg.MirrorCooldownMinutes = 12
	}
	if cfg.MinAmountMultiplier == 0 {
		cfg.MinAmountMultiplier = 1.2
	}
	if cfg.MirrorTailLines == 0 {
		cfg.MirrorTailLines = 2000
	}
	if cfg.SwapperLogPath == "" {
		cfg.SwapperLogPath = "data/swapper.log"
	}
	if cfg.RenderEveryN == 0 {
		cfg.RenderEveryN = 1
	}
	if cfg.SnapshotEveryN == 0 {
		cfg.SnapshotEveryN = 1
	}
	if cfg.LogEveryN == 0 {
		cfg.LogEveryN = 5
	}
	if cfg.HistoryEveryN == 0 {
		cfg.HistoryEveryN = 10
	}
	if cfg.Output.SnapshotCSV == "" {
		cfg.Output.SnapshotCSV = "data/snapshot.csv"
	}
	if cfg.Output.SnapshotLog == "" {
		cfg.Output.SnapshotLog = "data/snapshot.log"
	}
	if cfg.Output.HistoryCSV == "" {
		cfg.Output.HistoryCSV = "data/history.csv"
	}
	if cfg.Output.HistoryLog == "" {
		cfg.Output.HistoryLog = "data/history.log"
	}
	if cfg.Output.PerfCSV == "" {
		cfg.Output.PerfCSV = "data/perf.csv"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and coherent.
func (c *Config) Validate() error {
	if len(c.Exchanges) == 0 {
		return fmt.Errorf("exchanges must list at least one exchange")
	}
	if c.Anchor == "" {
		return fmt.Errorf("anchor is required")
	}
	if c.PollIntervalSec <= 0 {
		return fmt.Errorf("poll_interval_sec must be positive")
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("timeout_ms must be positive")
	}
	if c.RenderEveryN < 1 || c.SnapshotEveryN < 1 || c.LogEveryN < 1 || c.HistoryEveryN < 1 {
		return fmt.Errorf("cadence divisors must be >= 1")
	}
	if c.MinAmountMultiplier < 1 {
		return fmt.Errorf("min_amount_multiplier must be >= 1")
	}
	return nil
}
