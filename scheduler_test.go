package main

import (
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
)

func TestTimerWheel_FiresOncePastDeadline(t *testing.T) {
	var tw TimerWheel
	gs := newTestState()
	fired := 0

	tw.Schedule(1000, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { fired++ })

	tw.Drain(500, gs, nil, nil)
	assert.Equal(t, 0, fired, "should not fire before the deadline")

	tw.Drain(1000, gs, nil, nil)
	assert.Equal(t, 1, fired)

	tw.Drain(2000, gs, nil, nil)
	assert.Equal(t, 1, fired, "already-fired entries are removed, not fired twice")
}

func TestTimerWheel_CancelTombstonesEntry(t *testing.T) {
	var tw TimerWheel
	gs := newTestState()
	fired := false

	id := tw.Schedule(1000, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { fired = true })
	tw.Cancel(id)
	tw.Drain(1000, gs, nil, nil)

	assert.False(t, fired)
}

func TestTimerWheel_FiresInSchedulingOrder(t *testing.T) {
	var tw TimerWheel
	gs := newTestState()
	var order []int

	tw.Schedule(100, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { order = append(order, 1) })
	tw.Schedule(100, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { order = append(order, 2) })
	tw.Schedule(100, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { order = append(order, 3) })

	tw.Drain(100, gs, nil, nil)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestTimerWheel_ClearRemovesAllPending(t *testing.T) {
	var tw TimerWheel
	gs := newTestState()
	fired := 0

	tw.Schedule(100, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { fired++ })
	tw.Schedule(200, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { fired++ })
	tw.Clear()
	tw.Drain(1000, gs, nil, nil)

	assert.Equal(t, 0, fired, "cleared entries must never fire")
}

func TestStepPhysics_AdvancesSimTimeAndRecordsHistory(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "p1", TeamRed, 1000, 800)

	gs.StepPhysics(nil, nil, FixedTimestepSeconds)

	assert.Equal(t, int64(FixedTimestepMs), gs.simTimeMs)
	s, ok := gs.ballHistory.At(gs.simTimeMs)
	assert.True(t, ok)
	assert.Equal(t, gs.ball.X, s.X)
}

func TestResetAfterGoal_RespawnsPlayersAndBall(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "r1", TeamRed, 50, 50)
	addTestPlayer(gs, "b1", TeamBlue, 3400, 50)
	gs.ball = BallState{X: 20, Y: 700, Vx: 500, Vy: 500, KickSequence: 3}
	gs.goalResetPending = true
	gs.skillState["r1"].SlowedUntilMs = 99999

	resetAfterGoal(gs, nil, nil)

	cx, cy := pitchCenter()
	assert.Equal(t, cx, gs.ball.X)
	assert.Equal(t, cy, gs.ball.Y)
	assert.Equal(t, 0.0, gs.ball.Vx)
	assert.False(t, gs.goalResetPending)
	assert.Equal(t, RedSpawnPoints[0].X, gs.players["r1"].X)
	assert.Equal(t, BlueSpawnPoints[0].X, gs.players["b1"].X)
	assert.Equal(t, int64(0), gs.skillState["r1"].SlowedUntilMs, "skill effects referencing stale positions must be cleared")
}

func TestResetMatch_ClearsTimersSkillsAndRespawns(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "r1", TeamRed, 50, 50)
	gs.players["r1"].Vx, gs.players["r1"].Vy = 100, 100
	gs.skillState["r1"].SlowedUntilMs = 99999
	gs.match.ScoreRed = 3
	gs.timers.Schedule(999999, func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger) { t.Fatal("stale timer must not fire after reset") })

	gs.resetMatch(nil, nil)

	assert.Equal(t, 0, gs.match.ScoreRed)
	assert.Equal(t, 0.0, gs.players["r1"].Vx)
	assert.Equal(t, int64(0), gs.skillState["r1"].SlowedUntilMs)
	assert.Equal(t, RedSpawnPoints[0].X, gs.players["r1"].X)
	assert.Empty(t, gs.timers.entries)
}
