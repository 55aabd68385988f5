package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartGame_BuildsSnakeOrderAndSkillPool(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "a", TeamRed, 300, 400)
	addTestPlayer(gs, "b", TeamBlue, 3220, 400)
	addTestPlayer(gs, "spec", TeamSpectator, 1760, 800)

	gs.StartGame(nil, nil)

	assert.Equal(t, StatusSkillSelection, gs.match.Status)
	assert.Len(t, gs.match.SelectionOrder, 2, "spectators are excluded from the pick order")
	assert.Len(t, gs.match.AvailableSkills, len(allSkillIDs))
	assert.Equal(t, float64(gs.config.GameDurationSeconds), gs.match.ClockSeconds)
}

func TestStartGame_NoPlayersGoesStraightToActive(t *testing.T) {
	gs := newTestState()
	gs.StartGame(nil, nil)
	assert.Equal(t, StatusActive, gs.match.Status)
}

func TestStartGame_IgnoredOutsideLobby(t *testing.T) {
	gs := newTestState()
	gs.match.Status = StatusActive
	gs.StartGame(nil, nil)
	assert.Equal(t, StatusActive, gs.match.Status, "StartGame should be a no-op once the match has already started")
}

func TestPickSkill_EnforcesTurnOrderAndAvailability(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "a", TeamRed, 300, 400)
	addTestPlayer(gs, "b", TeamBlue, 3220, 400)
	gs.StartGame(nil, nil)

	first := gs.currentPicker()
	other := "a"
	if first == "a" {
		other = "b"
	}

	assert.False(t, gs.PickSkill(nil, nil, other, "blink"), "out-of-turn pick must be rejected")
	assert.True(t, gs.PickSkill(nil, nil, first, "blink"))
	assert.False(t, gs.PickSkill(nil, nil, first, "blink"), "skill already taken and turn already advanced")
	assert.Equal(t, "blink", gs.match.AssignedSkill[first])
}

func TestPickSkill_LastPickTransitionsToActive(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "a", TeamRed, 300, 400)
	gs.StartGame(nil, nil)

	assert.True(t, gs.PickSkill(nil, nil, gs.currentPicker(), "blink"))
	assert.Equal(t, StatusActive, gs.match.Status)
}

func TestTickSelectionTimeout_AutoPicksOnExpiry(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "a", TeamRed, 300, 400)
	gs.StartGame(nil, nil)

	gs.simTimeMs = gs.match.SelectionDeadlineMs + 1
	gs.TickSelectionTimeout(nil, nil)

	assert.NotEmpty(t, gs.match.AssignedSkill["a"])
	assert.Equal(t, StatusActive, gs.match.Status)
}

func TestTickSelectionTimeout_NoOpBeforeDeadline(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "a", TeamRed, 300, 400)
	gs.StartGame(nil, nil)

	gs.TickSelectionTimeout(nil, nil)

	assert.Empty(t, gs.match.AssignedSkill["a"])
}

func TestTickClock_OvertimeOnTieThenGameEnd(t *testing.T) {
	gs := newTestState()
	gs.match.Status = StatusActive
	gs.match.ClockSeconds = 1
	gs.match.ScoreRed, gs.match.ScoreBlue = 1, 1

	gs.TickClock(nil, nil, 2)
	assert.True(t, gs.match.Overtime)
	assert.Equal(t, float64(gs.config.OvertimeSeconds), gs.match.ClockSeconds)

	gs.TickClock(nil, nil, float64(gs.config.OvertimeSeconds)+1)
	assert.Equal(t, StatusGameEnd, gs.match.Status)
}

func TestTickClock_DecisiveScoreEndsImmediately(t *testing.T) {
	gs := newTestState()
	gs.match.Status = StatusActive
	gs.match.ClockSeconds = 1
	gs.match.ScoreRed, gs.match.ScoreBlue = 2, 1

	gs.TickClock(nil, nil, 2)

	assert.Equal(t, StatusGameEnd, gs.match.Status)
	assert.False(t, gs.match.Overtime)
}

func TestWinner_TieReturnsTeamNone(t *testing.T) {
	gs := newTestState()
	gs.match.ScoreRed, gs.match.ScoreBlue = 2, 2
	assert.Equal(t, TeamNone, gs.Winner())
}

func TestMVP_HighestScoreWins(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "a", TeamRed, 300, 400)
	addTestPlayer(gs, "b", TeamBlue, 3220, 400)
	gs.match.PlayerStats["a"].Goals = 1
	gs.match.PlayerStats["b"].Goals = 3

	assert.Equal(t, "b", gs.MVP())
}

func TestSettleGameEnd_ComputesDeltasForActivePlayersOnly(t *testing.T) {
	gs := newTestState()
	addTestPlayer(gs, "a", TeamRed, 300, 400)
	addTestPlayer(gs, "b", TeamBlue, 3220, 400)
	addTestPlayer(gs, "spec", TeamSpectator, 1760, 800)
	gs.match.ScoreRed, gs.match.ScoreBlue = 2, 1

	result := gs.SettleGameEnd(NewMMRCalculator(), map[string]int{})

	assert.Equal(t, TeamRed, result.Winner)
	assert.Len(t, result.Rows, 2, "spectators do not get a settled row")
	for _, row := range result.Rows {
		if row.UserID == "a" {
			assert.Equal(t, mmrBaseDelta, row.MMRDelta)
		}
		if row.UserID == "b" {
			assert.Equal(t, -mmrBaseDelta, row.MMRDelta)
		}
	}
}
