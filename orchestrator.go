package main

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"golang.org/x/sync/errgroup"
)

var allSkillIDs = []string{"slowdown", "blink", "metavision", "ninja_step", "lurking_radius", "power_shot"}

// AssignTeam places playerID on the requested team, teleporting them to the
// next available indexed spawn on that team.
func (gs *GameMatchState) AssignTeam(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID string, team Team) {
	p, ok := gs.players[playerID]
	if !ok {
		return
	}
	p.Team = team
	if team == TeamRed || team == TeamBlue {
		sp := SpawnPoint(team, gs.teamCount(team)-1)
		p.X, p.Y, p.Vx, p.Vy = sp.X, sp.Y, 0, 0
	}
	gs.BroadcastTeamAssigned(dispatcher, logger, playerID, team)
}

func (gs *GameMatchState) teamCount(team Team) int {
	n := 0
	for _, p := range gs.players {
		if p.Team == team {
			n++
		}
	}
	return n
}

// RandomizeTeams shuffles every non-spectator player across red/blue evenly.
func (gs *GameMatchState) RandomizeTeams(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	ids := make([]string, 0, len(gs.players))
	for id, p := range gs.players {
		if p.Team != TeamSpectator {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	for i, id := range ids {
		team := TeamRed
		if i%2 == 1 {
			team = TeamBlue
		}
		gs.AssignTeam(dispatcher, logger, id, team)
	}
}

// availableSkillIDs returns the skills still unassigned during
// SKILL_SELECTION in a stable order, for the selectionUpdate broadcast.
func (gs *GameMatchState) availableSkillIDs() []string {
	ids := make([]string, 0, len(gs.match.AvailableSkills))
	for id := range gs.match.AvailableSkills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartGame transitions LOBBY -> SKILL_SELECTION, building a snake pick
// order over every non-spectator player and resetting score/clock.
func (gs *GameMatchState) StartGame(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if gs.match.Status != StatusLobby {
		return
	}

	ids := make([]string, 0, len(gs.players))
	for id, p := range gs.players {
		if p.Team != TeamSpectator {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	gs.match.SelectionOrder = ids
	gs.match.SelectionIndex = 0
	gs.match.AvailableSkills = make(map[string]bool, len(allSkillIDs))
	for _, id := range allSkillIDs {
		gs.match.AvailableSkills[id] = true
	}
	gs.match.AssignedSkill = make(map[string]string)
	gs.match.ScoreRed, gs.match.ScoreBlue = 0, 0
	gs.match.ClockSeconds = float64(gs.config.GameDurationSeconds)
	gs.match.Overtime = false

	if len(ids) == 0 {
		gs.match.Status = StatusActive
		gs.BroadcastGameStarted(dispatcher, logger)
		return
	}

	gs.match.Status = StatusSkillSelection
	gs.match.SelectionDeadlineMs = gs.simTimeMs + int64(gs.config.SkillSelectionSeconds)*1000
	gs.BroadcastGameStarted(dispatcher, logger)
	gs.BroadcastSelectionPhaseStarted(dispatcher, logger, gs.match.SelectionOrder)
}

// currentPicker returns the player whose turn it is during SKILL_SELECTION,
// or "" if selection is complete.
func (gs *GameMatchState) currentPicker() string {
	order := gs.match.SelectionOrder
	if gs.match.SelectionIndex >= len(order) {
		return ""
	}
	return order[gs.match.SelectionIndex]
}

// PickSkill assigns skillID to playerID if it's their turn and the skill is
// still available, then advances the snake-order turn.
func (gs *GameMatchState) PickSkill(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID, skillID string) bool {
	if gs.match.Status != StatusSkillSelection {
		return false
	}
	if gs.currentPicker() != playerID {
		return false
	}
	if !gs.match.AvailableSkills[skillID] {
		return false
	}

	gs.match.AssignedSkill[playerID] = skillID
	delete(gs.match.AvailableSkills, skillID)
	gs.BroadcastSkillPicked(dispatcher, logger, playerID, skillID)
	gs.advanceSelectionTurn(dispatcher, logger)
	return true
}

func (gs *GameMatchState) advanceSelectionTurn(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	gs.match.SelectionIndex++
	if gs.match.SelectionIndex >= len(gs.match.SelectionOrder) {
		gs.match.Status = StatusActive
		gs.BroadcastSelectionUpdate(dispatcher, logger, "", gs.availableSkillIDs())
		gs.BroadcastGameStarted(dispatcher, logger)
		return
	}
	gs.match.SelectionDeadlineMs = gs.simTimeMs + int64(gs.config.SkillSelectionSeconds)*1000
	gs.BroadcastSelectionUpdate(dispatcher, logger, gs.currentPicker(), gs.availableSkillIDs())
}

// TickSelectionTimeout auto-picks a random available skill for the current
// picker when their turn deadline has passed, firing exactly once.
func (gs *GameMatchState) TickSelectionTimeout(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if gs.match.Status != StatusSkillSelection {
		return
	}
	if gs.simTimeMs < gs.match.SelectionDeadlineMs {
		return
	}
	picker := gs.currentPicker()
	if picker == "" {
		return
	}

	available := gs.availableSkillIDs()
	if len(available) == 0 {
		gs.advanceSelectionTurn(dispatcher, logger)
		return
	}
	pick := available[rand.Intn(len(available))]

	gs.match.AssignedSkill[picker] = pick
	delete(gs.match.AvailableSkills, pick)
	gs.BroadcastSkillPicked(dispatcher, logger, picker, pick)
	gs.advanceSelectionTurn(dispatcher, logger)
}

// TickClock advances the match timer while ACTIVE, handling the overtime
// transition on a tie and the terminal GAME_END transition, broadcasting a
// timerUpdate on every 1Hz boundary crossing.
func (gs *GameMatchState) TickClock(dispatcher runtime.MatchDispatcher, logger runtime.Logger, dtSeconds float64) {
	if gs.match.Status != StatusActive {
		return
	}
	prevWhole := int(gs.match.ClockSeconds)
	gs.match.ClockSeconds -= dtSeconds
	if gs.match.ClockSeconds < 0 {
		gs.match.ClockSeconds = 0
	}
	if int(gs.match.ClockSeconds) != prevWhole {
		gs.BroadcastTimerUpdate(dispatcher, logger)
	}
	if gs.match.ClockSeconds > 0 {
		return
	}

	if !gs.match.Overtime && gs.match.ScoreRed == gs.match.ScoreBlue {
		gs.match.Overtime = true
		gs.match.ClockSeconds = float64(gs.config.OvertimeSeconds)
		gs.BroadcastOvertime(dispatcher, logger, gs.match.ClockSeconds)
		gs.BroadcastTimerUpdate(dispatcher, logger)
		return
	}

	gs.match.Status = StatusGameEnd
	gs.match.ClockSeconds = 0
}

// resetMatch fully reinitializes the match to a fresh LOBBY: a new
// MatchState, every pending timer cancelled (a stale goal-reset callback
// must never fire against reset state), every
// player's skill state cleared, and every player's velocity/position
// respawned in sorted order.
func (gs *GameMatchState) resetMatch(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	gs.timers.Clear()
	gs.goalResetPending = false
	gs.gameEndHandled = false
	gs.match = *newMatchState()

	cx, cy := pitchCenter()
	gs.ball = BallState{X: cx, Y: cy}

	redIdx, blueIdx := 0, 0
	for _, id := range gs.sortedPlayerIDs() {
		p := gs.players[id]
		gs.skillState[id] = newPlayerSkillState()
		gs.match.PlayerStats[id] = &PlayerMatchStats{}
		p.Vx, p.Vy = 0, 0
		switch p.Team {
		case TeamRed:
			sp := SpawnPoint(TeamRed, redIdx)
			p.X, p.Y = sp.X, sp.Y
			redIdx++
		case TeamBlue:
			sp := SpawnPoint(TeamBlue, blueIdx)
			p.X, p.Y = sp.X, sp.Y
			blueIdx++
		default:
			p.X, p.Y = cx, cy
		}
	}

	gs.BroadcastGameReset(dispatcher, logger)
}

// Winner returns the team with the higher score, or TeamNone on a tie.
func (gs *GameMatchState) Winner() Team {
	if gs.match.ScoreRed > gs.match.ScoreBlue {
		return TeamRed
	}
	if gs.match.ScoreBlue > gs.match.ScoreRed {
		return TeamBlue
	}
	return TeamNone
}

// MVP returns the red or blue player ID with the highest MVP score (ties go
// to the lexically first ID), or "" if no such player has a score above 0.
func (gs *GameMatchState) MVP() string {
	best := ""
	bestScore := 0
	ids := make([]string, 0, len(gs.match.PlayerStats))
	for id := range gs.match.PlayerStats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if p := gs.players[id]; p == nil || (p.Team != TeamRed && p.Team != TeamBlue) {
			continue
		}
		score := MVPScore(gs.match.PlayerStats[id])
		if score > bestScore {
			bestScore = score
			best = id
		}
	}
	return best
}

// GameEndResult is the settled outcome of one completed match, handed to
// the broadcaster for the soccer:gameEnd message and to FinalizeMatch for
// persistence fan-out.
type GameEndResult struct {
	Winner    Team
	ScoreRed  int
	ScoreBlue int
	MVPUserID string
	Rows      []MatchPlayerRow
}

// SettleGameEnd computes the winner, MVP, feats, and per-player MMR deltas,
// without touching persistence (pure, testable).
func (gs *GameMatchState) SettleGameEnd(mmr MMRCalculator, streaks map[string]int) *GameEndResult {
	winner := gs.Winner()
	mvp := gs.MVP()

	result := &GameEndResult{Winner: winner, ScoreRed: gs.match.ScoreRed, ScoreBlue: gs.match.ScoreBlue, MVPUserID: mvp}

	ids := make([]string, 0, len(gs.players))
	for id := range gs.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := gs.players[id]
		if p.Team != TeamRed && p.Team != TeamBlue {
			continue
		}
		stats := gs.match.PlayerStats[id]
		if stats == nil {
			stats = &PlayerMatchStats{}
		}
		won := p.Team == winner
		delta := mmr.Delta(won, streaks[id], id == mvp, FeatCount(stats))

		result.Rows = append(result.Rows, MatchPlayerRow{
			UserID:        id,
			Team:          string(p.Team),
			Goals:         stats.Goals,
			Assists:       stats.Assists,
			Interceptions: stats.Interceptions,
			MVPScore:      MVPScore(stats),
			MMRDelta:      delta,
		})
	}
	return result
}

// FinalizeMatch persists every player's updated MMR and the match-history
// entry concurrently, using errgroup so one player's storage failure
// doesn't block the others' writes from landing: per-player MMR rows are
// independent documents, safe to fan out rather than save sequentially.
// Each player's write failure is logged on its own; the returned error is
// the first failure, if any.
func FinalizeMatch(ctx context.Context, sp *SoccerPersistence, matchID string, result *GameEndResult, records map[string]*PlayerStatsRecord) error {
	var g errgroup.Group

	for _, row := range result.Rows {
		row := row
		record := records[row.UserID]
		if record == nil {
			continue
		}
		g.Go(func() error {
			record.MMR += row.MMRDelta
			if row.MMRDelta > 0 {
				record.Wins++
				record.WinStreak++
			} else {
				record.Losses++
				record.WinStreak = 0
			}
			record.TotalGoals += row.Goals
			record.TotalAssists += row.Assists
			record.TotalInterceptions += row.Interceptions
			record.LastMatchAt = time.Now()
			if err := sp.UpdateMMR(ctx, record); err != nil {
				sp.logger.Error("failed to persist soccer stats for %s: %v", row.UserID, err)
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		return sp.AddMatchHistory(ctx, &MatchHistoryEntry{
			MatchID:   matchID,
			PlayedAt:  time.Now(),
			Winner:    result.Winner,
			ScoreRed:  result.ScoreRed,
			ScoreBlue: result.ScoreBlue,
			MVPUserID: result.MVPUserID,
			Players:   result.Rows,
		})
	})

	return g.Wait()
}
