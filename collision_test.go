package main

import (
	"testing"

	"github.com/rudransh61/Physix-go/pkg/vector"
	"github.com/stretchr/testify/assert"
)

func newTestState() *GameMatchState {
	cfg := defaultMatchConfig()
	skills := defaultSkillTuning()
	metrics := newMatchMetrics("test-match")
	gs := newGameMatchState(cfg, &StaticWorld{}, skills, metrics, nil, "test-match")
	return gs
}

func addTestPlayer(gs *GameMatchState, id string, team Team, x, y float64) *PlayerPhysics {
	gs.AddPlayer(id, vector.Vector{X: x, Y: y}, PlayerStats{Speed: 5, KickPower: 5, Dribbling: 5}, team)
	return gs.players[id]
}

func TestStepPlayerPlayer_SeparatesOverlap(t *testing.T) {
	gs := newTestState()
	a := addTestPlayer(gs, "a", TeamRed, 1000, 800)
	b := addTestPlayer(gs, "b", TeamBlue, 1010, 800)
	a.X, a.Y = 1000, 800
	b.X, b.Y = 1010, 800

	gs.StepPlayerPlayer()

	dist := b.X - a.X
	assert.GreaterOrEqual(t, dist, 2*PlayerRadius-0.01, "players should no longer overlap")
	assert.Less(t, a.Vx, 0.0, "left player pushed left")
	assert.Greater(t, b.Vx, 0.0, "right player pushed right")
}

func TestStepPlayerPlayer_SkipsSpectators(t *testing.T) {
	gs := newTestState()
	a := addTestPlayer(gs, "a", TeamSpectator, 1000, 800)
	b := addTestPlayer(gs, "b", TeamBlue, 1010, 800)

	gs.StepPlayerPlayer()

	assert.Equal(t, 0.0, a.Vx)
	assert.Equal(t, 0.0, b.Vx)
}

func TestStepBallPlayer_ReflectsAndTracksTouch(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "kicker", TeamRed, 1000, 800)
	gs.ball = BallState{X: 1000 + PlayerRadius + BallRadius - 1, Y: 800, Vx: -50, Vy: 0}

	gs.StepBallPlayer(nil, nil)

	assert.Equal(t, "kicker", gs.ball.LastTouchID)
	assert.Greater(t, gs.ball.Vx, 0.0, "ball should bounce back off the player")
}

func TestStepBallPlayer_CreditsInterceptionAcrossTeams(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "red1", TeamRed, 0, 0)
	addTestPlayer(gs, "blue1", TeamBlue, 1000, 800)

	gs.ball = BallState{
		X:           gs.players["blue1"].X + PlayerRadius + BallRadius - 1,
		Y:           gs.players["blue1"].Y,
		LastTouchID: "red1",
	}

	gs.StepBallPlayer(nil, nil)

	assert.Equal(t, 1, gs.match.PlayerStats["blue1"].Interceptions)
}

func TestStepBallGoal_ScoresOpponentAndSchedulesReset(t *testing.T) {
	gs := newTestState()
	gs.world.Goals = []GoalZone{{Name: "red_goal", Team: TeamRed, X: 0, Y: 650, Width: 40, Height: 300}}
	addTestPlayer(gs, "blue1", TeamBlue, 0, 800)
	gs.ball = BallState{X: 20, Y: 800, LastTouchID: "blue1"}

	gs.StepBallGoal(nil, nil)

	assert.Equal(t, 1, gs.match.ScoreBlue, "blue scores by entering red's own goal zone")
	assert.Equal(t, 0, gs.match.ScoreRed)
	assert.True(t, gs.goalResetPending)
	assert.Equal(t, 1, gs.match.PlayerStats["blue1"].Goals)
}

func TestStepBallGoal_NoOpWhileResetPending(t *testing.T) {
	gs := newTestState()
	gs.world.Goals = []GoalZone{{Name: "red_goal", Team: TeamRed, X: 0, Y: 650, Width: 40, Height: 300}}
	gs.goalResetPending = true
	gs.ball = BallState{X: 20, Y: 800}

	gs.StepBallGoal(nil, nil)

	assert.Equal(t, 0, gs.match.ScoreBlue)
}

func TestStepBallStop_SnapsBelowThreshold(t *testing.T) {
	gs := newTestState()
	gs.ball = BallState{Vx: stopBallThreshold - 1, Vy: 0, Moving: true}
	gs.StepBallStop()
	assert.Equal(t, 0.0, gs.ball.Vx)
	assert.False(t, gs.ball.Moving)
}

func TestResolveNormal_FallbackOnCoincidentCenters(t *testing.T) {
	nx, ny := resolveNormal(0, 0, 0)
	assert.Equal(t, 1.0, nx)
	assert.Equal(t, 0.0, ny)
}
