package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivateSkill_UnknownSkillRejected(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	ok := gs.ActivateSkill(nil, nil, "p1", "not_a_skill", 0, false)
	assert.False(t, ok)
}

func TestActivateSkill_RespectsOwnershipOutsideLobby(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	gs.match.Status = StatusActive
	gs.match.AssignedSkill = map[string]string{"p1": "blink"}

	assert.False(t, gs.ActivateSkill(nil, nil, "p1", "metavision", 0, false), "player cannot activate a skill they were not assigned")
	assert.True(t, gs.ActivateSkill(nil, nil, "p1", "blink", 0, false))
}

func TestActivateSkill_Cooldown(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)

	assert.True(t, gs.ActivateSkill(nil, nil, "p1", "metavision", 0, false))
	assert.False(t, gs.ActivateSkill(nil, nil, "p1", "metavision", 0, false), "second activation should be rejected while on cooldown")

	gs.simTimeMs += gs.skills.MetavisionCooldownMs
	assert.True(t, gs.ActivateSkill(nil, nil, "p1", "metavision", 0, false), "cooldown elapsed, should be usable again")
}

func TestActivateSlowdown_AffectsOtherPlayersOnly(t *testing.T) {
	gs := newTestState()
	caster := addTestPlayer(gs, "caster", TeamRed, 1000, 800)
	other := addTestPlayer(gs, "other", TeamBlue, 1100, 800)
	caster.Vx, other.Vx = 100, 100

	gs.activateSlowdown("caster")

	assert.Equal(t, 100.0, caster.Vx, "caster's own velocity is untouched")
	assert.InDelta(t, 100*gs.skills.SlowdownFactor, other.Vx, 0.0001)
	assert.Equal(t, gs.simTimeMs+gs.skills.SlowdownDurationMs, gs.skillState["other"].SlowedUntilMs)
}

func TestActivateBlink_MovesAlongFacing(t *testing.T) {
	gs := newTestState()
	p := addTestPlayer(gs, "p1", TeamRed, 1000, 800)

	gs.activateBlink(nil, nil, "p1", 0, true)

	assert.GreaterOrEqual(t, p.X, 1000.0+blinkMinDistance-0.0001, "blink distance must be at least 300px")
	assert.LessOrEqual(t, p.X, 1000.0+blinkMaxDistance+0.0001, "blink distance must be at most 400px")
	assert.Equal(t, 800.0, p.Y)
	assert.Equal(t, 0.0, p.Vx, "blink must zero velocity on landing")
	assert.Equal(t, 0.0, p.Vy)
}

func TestActivateBlink_NoFacingIsNoOp(t *testing.T) {
	gs := newTestState()
	p := addTestPlayer(gs, "p1", TeamRed, 1000, 800)

	gs.activateBlink(nil, nil, "p1", 0, false)

	assert.Equal(t, 1000.0, p.X)
}

func TestActivateLurking_SecondActivationTeleportsToBall(t *testing.T) {
	gs := newTestState()
	p := addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	gs.ball = BallState{X: 1100, Y: 800}

	gs.activateLurking(nil, nil, "p1")
	assert.NotNil(t, gs.skillState["p1"].Lurking, "first activation arms the window")

	gs.activateLurking(nil, nil, "p1")
	assert.Nil(t, gs.skillState["p1"].Lurking, "second activation consumes the window")
	assert.InDelta(t, 1100-lurkingTeleportRange, p.X, 0.0001)
	assert.Equal(t, "p1", gs.ball.LastTouchID)
}

func TestActivateLurking_SecondActivationOutOfRangeStillConsumesWindow(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	gs.ball = BallState{X: 1000 + gs.skills.LurkingRadius + 100, Y: 800}

	gs.activateLurking(nil, nil, "p1")
	gs.activateLurking(nil, nil, "p1")

	assert.Nil(t, gs.skillState["p1"].Lurking)
	assert.NotEqual(t, "p1", gs.ball.LastTouchID, "out of range, no possession change")
}

func TestActivatePowerShot_AimsAtOpponentGoal(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	gs.ball = BallState{X: 1000, Y: 800}

	gs.activatePowerShot(nil, nil, "p1")

	assert.True(t, gs.ball.Moving)
	assert.Greater(t, gs.ball.Vx, 0.0, "red's opponent goal sits at a larger x, shot should aim right")
	assert.NotNil(t, gs.skillState["p1"].PowerShot)
}

func TestActivatePowerShot_OutOfRangeIsNoOp(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	gs.ball = BallState{X: 1000 + powerShotRange + 1, Y: 800}

	gs.activatePowerShot(nil, nil, "p1")

	assert.False(t, gs.ball.Moving)
	assert.Nil(t, gs.skillState["p1"].PowerShot)
}

func TestExpireSkills_ClearsPastWindows(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	gs.skillState["p1"].PowerShot = &PowerShotEffect{ExpiresAtMs: 100}
	gs.skillState["p1"].Lurking = &LurkingEffect{ExpiresAtMs: 100}
	gs.simTimeMs = 200

	gs.ExpireSkills(nil, nil)

	assert.Nil(t, gs.skillState["p1"].PowerShot)
	assert.Nil(t, gs.skillState["p1"].Lurking)
}

func TestEffectiveSpeedMul_SlowdownPenaltyAppliesWhileActive(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	base := gs.EffectiveSpeedMul("p1")

	gs.skillState["p1"].SlowedUntilMs = gs.simTimeMs + 1000
	slowed := gs.EffectiveSpeedMul("p1")

	assert.InDelta(t, base*gs.skills.SlowdownFactor, slowed, 0.0001)
}

func TestEffectiveKickPowerMul_BuffAppliesWhileActive(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)
	base := gs.EffectiveKickPowerMul("p1")

	gs.skillState["p1"].KickPowerBuff = &TimedBuff{Amount: powerShotKickPowerBonus, ExpiresAtMs: gs.simTimeMs + 1000}
	buffed := gs.EffectiveKickPowerMul("p1")

	assert.InDelta(t, base+powerShotKickPowerBonus*0.1, buffed, 0.0001)
}

func TestGoalXFor_OppositeEnds(t *testing.T) {
	assert.True(t, math.Abs(goalXFor[TeamRed]-goalXFor[TeamBlue]) > PitchWidth/2, "the two aim targets should sit on opposite halves of the pitch")
}
