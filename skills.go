package main

import (
	"math"
	"math/rand"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	blinkMinDistance = 300.0
	blinkMaxDistance = 400.0

	lurkingTeleportRange = 40.0

	powerShotRange         = 200.0
	powerShotKickBasePower = 2000.0
	powerShotRecoil        = 400.0
	powerShotKickPowerBonus = 5
)

var goalXFor = map[Team]float64{
	TeamRed:  3400,
	TeamBlue: 120,
}

// skillDef is the static per-skill metadata the activation handler consults
// before running the skill-specific effect.
type skillDef struct {
	id         string
	cooldownMs func(*SkillTuning) int64
}

var skillRegistry = map[string]skillDef{
	"slowdown":       {"slowdown", func(t *SkillTuning) int64 { return t.SlowdownCooldownMs }},
	"blink":          {"blink", func(t *SkillTuning) int64 { return t.BlinkCooldownMs }},
	"metavision":     {"metavision", func(t *SkillTuning) int64 { return t.MetavisionCooldownMs }},
	"ninja_step":     {"ninja_step", func(t *SkillTuning) int64 { return 0 }},
	"lurking_radius": {"lurking_radius", func(t *SkillTuning) int64 { return t.LurkingCooldownMs }},
	"power_shot":     {"power_shot", func(t *SkillTuning) int64 { return t.PowerShotCooldownMs }},
}

// ActivateSkill validates and applies a skill activation request.
// Returns false if the request must be silently dropped: unknown skill,
// unassigned ownership outside LOBBY, or still on cooldown. A lurking_radius
// activation inside its armed window is the trigger stage and bypasses the
// cooldown, which was already started when the window was armed.
func (gs *GameMatchState) ActivateSkill(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID, skillID string, facingDirection float64, hasFacing bool) bool {
	p, ok := gs.players[playerID]
	if !ok || p.Team == TeamSpectator {
		return false
	}
	if _, known := skillRegistry[skillID]; !known {
		return false
	}

	if gs.match.Status != StatusLobby {
		if gs.match.AssignedSkill[playerID] != skillID {
			gs.metrics.dropMessage("skill_not_owned")
			return false
		}
	}

	skill := gs.skillState[playerID]
	if skill == nil {
		skill = newPlayerSkillState()
		gs.skillState[playerID] = skill
	}
	lurkingArmed := skillID == "lurking_radius" && skill.Lurking != nil && gs.simTimeMs < skill.Lurking.ExpiresAtMs
	if next, ok := skill.Cooldowns[skillID]; ok && gs.simTimeMs < next && !lurkingArmed {
		gs.metrics.dropMessage("skill_cooldown")
		return false
	}

	switch skillID {
	case "slowdown":
		gs.activateSlowdown(playerID)
	case "blink":
		gs.activateBlink(dispatcher, logger, playerID, facingDirection, hasFacing)
	case "metavision":
		gs.activateMetavision(playerID)
	case "ninja_step":
		skill.PhaseThroughToggled = !skill.PhaseThroughToggled
	case "lurking_radius":
		gs.activateLurking(dispatcher, logger, playerID)
	case "power_shot":
		gs.activatePowerShot(dispatcher, logger, playerID)
	}

	if cd := skillRegistry[skillID].cooldownMs(gs.skills); cd > 0 && !lurkingArmed {
		skill.Cooldowns[skillID] = gs.simTimeMs + cd
	}
	gs.BroadcastSkillActivated(dispatcher, logger, playerID, skillID)
	return true
}

// activateSlowdown applies an immediate velocity cut to every other active
// player and a standing speed-multiplier penalty for the effect's duration.
func (gs *GameMatchState) activateSlowdown(casterID string) {
	expiresAt := gs.simTimeMs + gs.skills.SlowdownDurationMs
	for id, other := range gs.players {
		if id == casterID || other.Team == TeamSpectator {
			continue
		}
		other.Vx *= gs.skills.SlowdownFactor
		other.Vy *= gs.skills.SlowdownFactor
		if s := gs.skillState[id]; s != nil {
			s.SlowedUntilMs = expiresAt
		}
	}
}

// activateBlink teleports the player a random 300-400px along
// facingDirection, canceling only when the endpoint collides with a static
// collider and the player is a spectator.
func (gs *GameMatchState) activateBlink(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID string, facing float64, hasFacing bool) {
	p := gs.players[playerID]
	if !hasFacing {
		return
	}
	fromX, fromY := p.X, p.Y
	dist := blinkMinDistance + rand.Float64()*(blinkMaxDistance-blinkMinDistance)
	nx, ny := p.X+math.Cos(facing)*dist, p.Y+math.Sin(facing)*dist

	if p.Team == TeamSpectator && gs.pointInAnyCollider(nx, ny) {
		return
	}
	p.X, p.Y = clampF(nx, PlayerRadius, PitchWidth-PlayerRadius), clampF(ny, PlayerRadius, PitchHeight-PlayerRadius)
	p.Vx, p.Vy = 0, 0
	gs.BroadcastBlinkActivated(dispatcher, logger, playerID, fromX, fromY, p.X, p.Y)
}

func (gs *GameMatchState) pointInAnyCollider(x, y float64) bool {
	for _, rb := range gs.world.Colliders {
		halfW, halfH := rb.Width/2, rb.Height/2
		if x >= rb.Position.X-halfW && x <= rb.Position.X+halfW && y >= rb.Position.Y-halfH && y <= rb.Position.Y+halfH {
			return true
		}
	}
	return false
}

// activateMetavision widens the kicker's own kick distance tolerance and
// kick power for the effect duration (consulted directly in ValidateKick /
// KickVelocity via MetavisionUntilMs).
func (gs *GameMatchState) activateMetavision(playerID string) {
	skill := gs.skillState[playerID]
	skill.MetavisionUntilMs = gs.simTimeMs + gs.skills.MetavisionDurationMs
}

// activateLurking implements the two-stage arm/trigger skill: the first
// activation opens a window; a second activation inside that window
// teleports the player to the ball if it's within range and takes
// possession.
func (gs *GameMatchState) activateLurking(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID string) {
	skill := gs.skillState[playerID]
	p := gs.players[playerID]

	if skill.Lurking != nil && gs.simTimeMs < skill.Lurking.ExpiresAtMs {
		dist := math.Hypot(gs.ball.X-p.X, gs.ball.Y-p.Y)
		if dist <= skill.Lurking.Radius {
			dir := 1.0
			if p.Team == TeamBlue {
				dir = -1.0
			}
			p.X = gs.ball.X - dir*lurkingTeleportRange
			p.Y = gs.ball.Y
			gs.ball.Vx, gs.ball.Vy = 0, 0
			gs.ball.Moving = false
			gs.ball.KickSequence++
			gs.ball.PreviousTouchID = gs.ball.LastTouchID
			gs.ball.LastTouchID = playerID
			gs.ball.LastTouchAtMs = gs.simTimeMs
			gs.BroadcastSkillTriggered(dispatcher, logger, playerID, "lurking_radius")
		}
		skill.Lurking = nil
		return
	}

	skill.Lurking = &LurkingEffect{Radius: gs.skills.LurkingRadius, ExpiresAtMs: gs.simTimeMs + gs.skills.LurkingWindowMs}
}

// activatePowerShot auto-aims a high-power kick at the opponent goal when
// the player is within range of the ball, and opens a 3s knockback/retention
// override window plus a temporary kick-power buff.
func (gs *GameMatchState) activatePowerShot(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID string) {
	p := gs.players[playerID]
	dist := math.Hypot(gs.ball.X-p.X, gs.ball.Y-p.Y)
	if dist > powerShotRange {
		return
	}

	targetX := goalXFor[p.Team]
	targetY := 800.0
	theta := math.Atan2(targetY-gs.ball.Y, targetX-gs.ball.X)

	gs.ball.Vx = math.Cos(theta) * powerShotKickBasePower * p.Stats.KickPowerMul()
	gs.ball.Vy = math.Sin(theta) * powerShotKickBasePower * p.Stats.KickPowerMul()
	gs.ball.Moving = true
	gs.ball.KickSequence++
	gs.ball.PreviousTouchID = gs.ball.LastTouchID
	gs.ball.LastTouchID = playerID
	gs.ball.LastTouchAtMs = gs.simTimeMs

	mag := math.Hypot(gs.ball.Vx, gs.ball.Vy)
	if mag > 0 {
		p.Vx -= (gs.ball.Vx / mag) * powerShotRecoil
		p.Vy -= (gs.ball.Vy / mag) * powerShotRecoil
	}

	expiresAt := gs.simTimeMs + gs.skills.PowerShotDurationMs
	skill := gs.skillState[playerID]
	skill.PowerShot = &PowerShotEffect{
		KnockbackForce: gs.skills.PowerShotKnockback,
		BallRetention:  gs.skills.PowerShotRetention,
		ExpiresAtMs:    expiresAt,
	}
	skill.KickPowerBuff = &TimedBuff{Amount: powerShotKickPowerBonus, ExpiresAtMs: expiresAt}
	gs.BroadcastSkillTriggered(dispatcher, logger, playerID, "power_shot")
}

// ExpireSkills clears timed effects whose window has passed, run once per
// physics step after collision resolution, broadcasting one skillEnded event
// per effect that naturally expires.
func (gs *GameMatchState) ExpireSkills(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for id, skill := range gs.skillState {
		if skill.PowerShot != nil && gs.simTimeMs >= skill.PowerShot.ExpiresAtMs {
			skill.PowerShot = nil
			gs.BroadcastSkillEnded(dispatcher, logger, id, "power_shot")
		}
		if skill.KickPowerBuff != nil && gs.simTimeMs >= skill.KickPowerBuff.ExpiresAtMs {
			skill.KickPowerBuff = nil
		}
		if skill.Lurking != nil && gs.simTimeMs >= skill.Lurking.ExpiresAtMs {
			skill.Lurking = nil
			gs.BroadcastSkillEnded(dispatcher, logger, id, "lurking_radius")
		}
		if skill.SlowedUntilMs != 0 && gs.simTimeMs >= skill.SlowedUntilMs {
			skill.SlowedUntilMs = 0
			gs.BroadcastSkillEnded(dispatcher, logger, id, "slowdown")
		}
		if skill.MetavisionUntilMs != 0 && gs.simTimeMs >= skill.MetavisionUntilMs {
			skill.MetavisionUntilMs = 0
			gs.BroadcastSkillEnded(dispatcher, logger, id, "metavision")
		}
	}
}

// EffectiveKickPowerMul folds in any active power-shot kick-power buff on
// top of the player's stat-derived multiplier.
func (gs *GameMatchState) EffectiveKickPowerMul(playerID string) float64 {
	p := gs.players[playerID]
	mul := p.Stats.KickPowerMul()
	if skill := gs.skillState[playerID]; skill != nil && skill.KickPowerBuff != nil && gs.simTimeMs < skill.KickPowerBuff.ExpiresAtMs {
		mul += skill.KickPowerBuff.Amount * 0.1
	}
	return mul
}

// EffectiveSpeedMul folds in the slowdown penalty on top of the player's
// stat-derived speed multiplier, consulted by the physics step: while
// slowed, the speed multiplier is scaled down by the slowdown factor.
func (gs *GameMatchState) EffectiveSpeedMul(playerID string) float64 {
	p := gs.players[playerID]
	mul := p.Stats.SpeedMul()
	if skill := gs.skillState[playerID]; skill != nil && gs.simTimeMs < skill.SlowedUntilMs {
		mul *= gs.skills.SlowdownFactor
	}
	return mul
}
