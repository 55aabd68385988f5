package main

import (
	"os"
	"path/filepath"

	"github.com/heroiclabs/nakama-common/runtime"
	lua "github.com/yuin/gopher-lua"
)

// SkillTuning holds the designer-adjustable numeric parameters of the six
// skills. Only magnitudes live here;
// the dispatch logic and precedence rules stay in skills.go as Go code,
// never as script: a startup-only config table, not a per-tick scripting
// surface.
type SkillTuning struct {
	SlowdownFactor     float64
	SlowdownDurationMs int64
	SlowdownCooldownMs int64

	BlinkCooldownMs int64

	MetavisionDurationMs int64
	MetavisionKickMul    float64
	MetavisionCooldownMs int64

	LurkingRadius     float64
	LurkingWindowMs   int64
	LurkingCooldownMs int64

	PowerShotKnockback  float64
	PowerShotRetention  float64
	PowerShotDurationMs int64
	PowerShotCooldownMs int64
}

// defaultSkillTuning returns the built-in literal defaults, used whenever
// no tuning script is present or it fails to load.
func defaultSkillTuning() *SkillTuning {
	return &SkillTuning{
		SlowdownFactor:     0.35,
		SlowdownDurationMs: 5000,
		SlowdownCooldownMs: 30000,

		BlinkCooldownMs: 12000,

		MetavisionDurationMs: 8000,
		MetavisionKickMul:    1.2,
		MetavisionCooldownMs: 20000,

		LurkingRadius:     500,
		LurkingWindowMs:   5000,
		LurkingCooldownMs: 20000,

		PowerShotKnockback:  300,
		PowerShotRetention:  0.8,
		PowerShotDurationMs: 3000,
		PowerShotCooldownMs: 20000,
	}
}

// LoadSkillTuning evaluates an optional skills.lua in dataDir once at match
// init, reading a "tuning" global table into SkillTuning fields on top of
// the defaults. A missing file, a script error, or any missing field falls
// back silently to the default value for that field, since tuning is an
// ambient convenience and never a match-start precondition.
func LoadSkillTuning(logger runtime.Logger, dataDir string) *SkillTuning {
	tuning := defaultSkillTuning()

	path := filepath.Join(dataDir, "skills.lua")
	if _, err := os.Stat(path); err != nil {
		logger.Info("skill tuning script not found, using defaults (%v)", err)
		return tuning
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: false})
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		logger.Error("skill tuning script %s failed, using defaults: %v", path, err)
		return tuning
	}

	tv := L.GetGlobal("tuning")
	tbl, ok := tv.(*lua.LTable)
	if !ok {
		logger.Info("skill tuning script %s has no tuning table, using defaults", path)
		return tuning
	}

	getFloat := func(key string, dst *float64) {
		if v, ok := tbl.RawGetString(key).(lua.LNumber); ok {
			*dst = float64(v)
		}
	}
	getMs := func(key string, dst *int64) {
		if v, ok := tbl.RawGetString(key).(lua.LNumber); ok {
			*dst = int64(v)
		}
	}

	getFloat("slowdown_factor", &tuning.SlowdownFactor)
	getMs("slowdown_duration_ms", &tuning.SlowdownDurationMs)
	getMs("slowdown_cooldown_ms", &tuning.SlowdownCooldownMs)

	getMs("blink_cooldown_ms", &tuning.BlinkCooldownMs)

	getMs("metavision_duration_ms", &tuning.MetavisionDurationMs)
	getFloat("metavision_kick_mul", &tuning.MetavisionKickMul)
	getMs("metavision_cooldown_ms", &tuning.MetavisionCooldownMs)

	getFloat("lurking_radius", &tuning.LurkingRadius)
	getMs("lurking_window_ms", &tuning.LurkingWindowMs)
	getMs("lurking_cooldown_ms", &tuning.LurkingCooldownMs)

	getFloat("power_shot_knockback", &tuning.PowerShotKnockback)
	getFloat("power_shot_retention", &tuning.PowerShotRetention)
	getMs("power_shot_duration_ms", &tuning.PowerShotDurationMs)
	getMs("power_shot_cooldown_ms", &tuning.PowerShotCooldownMs)

	logger.Info("skill tuning loaded from %s", path)
	return tuning
}
