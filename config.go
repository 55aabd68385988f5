package main

import (
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/spf13/viper"
)

// MatchConfig holds the operational knobs configuration surface (everything
// except JWT secret and port, which remain Nakama's own concern). Loaded once
// at MatchInit from data/soccer/config.yaml via viper, the configuration
// library this backend already depends on; falls back to these
// field defaults if the file is missing or partially specified.
type MatchConfig struct {
	NetworkTickMs       int
	GameDurationSeconds int
	OvertimeSeconds     int
	KickCooldownMs      int
	LagCompWindowMs     int
	InputQueueDepth     int
	SkillSelectionSeconds int

	// PlayerMessagesPerSecond / PlayerMessageBurst bound the
	// golang.org/x/time/rate limiter guarding per-player input ingestion
	// (Domain Stack addition).
	PlayerMessagesPerSecond float64
	PlayerMessageBurst      int

	// UseLatestInputOnly toggles between consuming one queued input per
	// physics step (false, the default) and draining the whole queue each
	// step while applying only the newest input (true).
	UseLatestInputOnly bool
}

func defaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		NetworkTickMs:           25, // 40 Hz broadcast cadence
		GameDurationSeconds:     300,
		OvertimeSeconds:         60,
		KickCooldownMs:          KickCooldownMs,
		LagCompWindowMs:         500,
		InputQueueDepth:         maxInputQueueDepth,
		SkillSelectionSeconds:   30,
		PlayerMessagesPerSecond: 60,
		PlayerMessageBurst:      30,
		UseLatestInputOnly:      false,
	}
}

// LoadMatchConfig reads data/soccer/config.yaml relative to dataDir, merging
// any present fields onto the defaults. A missing or malformed file is
// logged and the defaults are used as-is; configuration is an ambient
// convenience, not a match-start precondition.
func LoadMatchConfig(logger runtime.Logger, dataDir string) *MatchConfig {
	cfg := defaultMatchConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)

	if err := v.ReadInConfig(); err != nil {
		logger.Info("soccer match config: using defaults (%v)", err)
		return cfg
	}

	if v.IsSet("network_tick_ms") {
		cfg.NetworkTickMs = v.GetInt("network_tick_ms")
	}
	if v.IsSet("game_duration_seconds") {
		cfg.GameDurationSeconds = v.GetInt("game_duration_seconds")
	}
	if v.IsSet("overtime_seconds") {
		cfg.OvertimeSeconds = v.GetInt("overtime_seconds")
	}
	if v.IsSet("kick_cooldown_ms") {
		cfg.KickCooldownMs = v.GetInt("kick_cooldown_ms")
	}
	if v.IsSet("lag_comp_window_ms") {
		cfg.LagCompWindowMs = v.GetInt("lag_comp_window_ms")
	}
	if v.IsSet("input_queue_depth") {
		cfg.InputQueueDepth = v.GetInt("input_queue_depth")
	}
	if v.IsSet("skill_selection_seconds") {
		cfg.SkillSelectionSeconds = v.GetInt("skill_selection_seconds")
	}
	if v.IsSet("player_messages_per_second") {
		cfg.PlayerMessagesPerSecond = v.GetFloat64("player_messages_per_second")
	}
	if v.IsSet("player_message_burst") {
		cfg.PlayerMessageBurst = v.GetInt("player_message_burst")
	}
	if v.IsSet("use_latest_input_only") {
		cfg.UseLatestInputOnly = v.GetBool("use_latest_input_only")
	}

	logger.Info("soccer match config loaded from %s", dataDir)
	return cfg
}

func (c *MatchConfig) networkTickDuration() time.Duration {
	return time.Duration(c.NetworkTickMs) * time.Millisecond
}
