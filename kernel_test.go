package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegrateBall_DragAndBounds(t *testing.T) {
	b := IntegrateBall(KinematicBall{X: PitchWidth / 2, Y: PitchHeight / 2, Vx: 100, Vy: 0}, 0.1)
	assert.Less(t, b.Vx, 100.0, "drag should reduce speed")
	assert.Greater(t, b.Vx, 0.0, "drag should not reverse direction in one short step")

	left := IntegrateBall(KinematicBall{X: BallRadius - 1, Y: 800, Vx: -50, Vy: 0}, 0.016)
	assert.Equal(t, BallRadius, left.X)
	assert.Greater(t, left.Vx, 0.0, "bouncing off the left wall should reverse x velocity")

	bottom := IntegrateBall(KinematicBall{X: 1000, Y: PitchHeight - BallRadius + 1, Vx: 0, Vy: 50}, 0.016)
	assert.Equal(t, PitchHeight-BallRadius, bottom.Y)
	assert.Less(t, bottom.Vy, 0.0)
}

func TestIntegrateBall_BounceScalesByRestitution(t *testing.T) {
	b := IntegrateBall(KinematicBall{X: BallRadius - 1, Y: 800, Vx: -100, Vy: 0}, 0.0)
	assert.InDelta(t, 100*BallBounce, b.Vx, 0.0001)
}

func TestIntegratePlayer_AccelAndMaxSpeed(t *testing.T) {
	p := KinematicPlayer{X: 1000, Y: 800}
	for i := 0; i < 100; i++ {
		p = IntegratePlayer(p, FixedTimestepSeconds, 1.0, 1.0, Input{Right: true})
	}
	speed := math.Hypot(p.Vx, p.Vy)
	assert.LessOrEqual(t, speed, PlayerMaxSpeed+0.01, "speed should be clamped to PlayerMaxSpeed")
	assert.Greater(t, p.X, 1000.0, "player should have moved right")
}

func TestIntegratePlayer_SpeedMulScalesMaxSpeed(t *testing.T) {
	p := KinematicPlayer{X: 1000, Y: 800}
	base := KinematicPlayer{X: 1000, Y: 800}
	for i := 0; i < 200; i++ {
		p = IntegratePlayer(p, FixedTimestepSeconds, 1.0, 2.0, Input{Right: true})
		base = IntegratePlayer(base, FixedTimestepSeconds, 1.0, 1.0, Input{Right: true})
	}
	speed := math.Hypot(p.Vx, p.Vy)
	baseSpeed := math.Hypot(base.Vx, base.Vy)
	assert.LessOrEqual(t, speed, PlayerMaxSpeed*2+0.01)
	assert.Greater(t, speed, baseSpeed*1.5, "doubled speed multiplier should roughly double top speed")
}

func TestIntegratePlayer_WallClampZeroesVelocity(t *testing.T) {
	p := IntegratePlayer(KinematicPlayer{X: PlayerRadius - 1, Y: 800, Vx: -10, Vy: 0}, 0.016, 1.0, 1.0, Input{})
	assert.Equal(t, PlayerRadius, p.X)
	assert.Equal(t, 0.0, p.Vx)
}

func TestPlayerStats_Multipliers(t *testing.T) {
	s := PlayerStats{Speed: 5, KickPower: 5, Dribbling: 5}
	assert.True(t, s.Valid())
	assert.InDelta(t, 1.5, s.SpeedMul(), 0.0001)
	assert.InDelta(t, 1.5, s.KickPowerMul(), 0.0001)
	assert.InDelta(t, 0.75, s.DragMul(), 0.0001)

	invalid := PlayerStats{Speed: 10, KickPower: 10, Dribbling: 0}
	assert.False(t, invalid.Valid())
}

func TestPlayerStats_DragMulFloor(t *testing.T) {
	s := PlayerStats{Speed: 0, KickPower: 0, Dribbling: 15}
	assert.Equal(t, 0.5, s.DragMul(), "drag multiplier should never drop below 0.5")
}

func TestKickVelocity_MetavisionBoost(t *testing.T) {
	base := KickVelocity(0, 1000, 1.0, false, 1.2)
	boosted := KickVelocity(0, 1000, 1.0, true, 1.2)
	assert.InDelta(t, 1000, base.X, 0.0001)
	assert.InDelta(t, 1200, boosted.X, 0.0001)
}
