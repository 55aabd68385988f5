package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/rudransh61/Physix-go/pkg/vector"
)

// Inbound opcodes, decoded from runtime.MatchData.GetOpCode(). Kept in a
// low range disjoint from the outbound catalogue in
// broadcast.go, following a single-int-per-message-type
// convention (game.go's OpCodeWorldState family).
const (
	InOpInputBatch     = 1
	InOpKick           = 2
	InOpDribble        = 3
	InOpAssignTeam     = 4
	InOpRandomizeTeams = 5
	InOpStartGame      = 6
	InOpPickSkill      = 7
	InOpActivateSkill  = 8
	InOpResetGame      = 9
)

const soccerDataDir = "/nakama/data/soccer"

// GameMatch is the Nakama match handler implementation, built around the
// standard runtime.Match lifecycle (MatchInit/MatchJoin/MatchJoinAttempt/
// MatchLeave/MatchLoop/MatchSignal/MatchTerminate).
type GameMatch struct{}

// GameMessage is a {type, data} JSON envelope. Nothing in the module wraps
// messages in it: broadcast.go marshals bare payloads and MatchSignal returns
// plain text.
type GameMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (m *GameMatch) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]any) (any, int, string) {
	dataDir := soccerDataDir
	if v, ok := params["dataDir"].(string); ok && v != "" {
		dataDir = v
	}

	world, err := LoadStaticWorld(logger, dataDir)
	if err != nil {
		logger.Error("failed to load static world, using empty pitch: %v", err)
		world = &StaticWorld{}
	}
	config := LoadMatchConfig(logger, dataDir)
	skills := LoadSkillTuning(logger, dataDir)

	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	metrics := newMatchMetrics(matchID)
	persistence := NewSoccerPersistence(logger, nk)

	state := newGameMatchState(config, world, skills, metrics, persistence, matchID)

	logger.Info("soccer match initialized: %d colliders, %d goals", len(world.Colliders), len(world.Goals))
	return state, 60, "soccer_game"
}

func (m *GameMatch) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state any, presences []runtime.Presence) any {
	gs, ok := state.(*GameMatchState)
	if !ok {
		logger.Error("soccer match join: invalid state")
		return nil
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, presence := range presences {
		userID := presence.GetUserId()
		gs.presences[userID] = presence

		stats := PlayerStats{Speed: 5, KickPower: 5, Dribbling: 5}
		if record, err := gs.persistence.FindStatsByUserID(ctx, userID, presence.GetUsername()); err == nil {
			if record.PreferredStats.Valid() {
				stats = record.PreferredStats
			}
			gs.winStreaks[userID] = record.WinStreak
		} else {
			logger.Error("failed to load soccer stats for %s: %v", presence.GetUsername(), err)
		}

		spawn := vector.Vector{X: PitchWidth / 2, Y: PitchHeight / 2}
		gs.AddPlayer(userID, spawn, stats, TeamSpectator)
		logger.Info("player joined soccer match: %s", presence.GetUsername())
	}

	return gs
}

func (m *GameMatch) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state any, presence runtime.Presence, metadata map[string]string) (any, bool, string) {
	gs, ok := state.(*GameMatchState)
	if !ok {
		return nil, false, "internal server error"
	}
	return gs, true, ""
}

func (m *GameMatch) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state any, presences []runtime.Presence) any {
	gs, ok := state.(*GameMatchState)
	if !ok {
		return nil
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, presence := range presences {
		userID := presence.GetUserId()
		gs.RemovePlayer(userID)
		logger.Info("player left soccer match: %s", presence.GetUsername())
	}
	return gs
}

func (m *GameMatch) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state any, graceSeconds int) any {
	gs, ok := state.(*GameMatchState)
	if !ok {
		return nil
	}
	logger.Info("soccer match terminating")
	return gs
}

func (m *GameMatch) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state any, data string) (any, string) {
	gs, ok := state.(*GameMatchState)
	if !ok {
		return nil, "internal server error"
	}

	var signal struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(data), &signal); err != nil {
		return gs, ""
	}

	if signal.Type == "metrics" {
		gs.mu.Lock()
		text, err := gs.metrics.renderText()
		gs.mu.Unlock()
		if err != nil {
			logger.Error("soccer metrics render failed: %v", err)
			return gs, ""
		}
		return gs, text
	}

	return gs, ""
}

// MatchLoop implements the fixed-timestep scheduler on top of Nakama's
// own match-actor tick, rather than spinning a second goroutine: Nakama
// already guarantees this function runs single-threaded and serialized per
// match, so the accumulator absorbs whatever jitter exists between calls.
func (m *GameMatch) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state any, messages []runtime.MatchData) any {
	gs, ok := state.(*GameMatchState)
	if !ok {
		logger.Error("soccer match loop: invalid state")
		return nil
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, msg := range messages {
		gs.handleMessage(dispatcher, logger, msg)
	}

	gs.loopRunning = gs.ActivePlayerCount() > 0
	if gs.metrics != nil {
		if gs.loopRunning {
			gs.metrics.loopRunning.Set(1)
		} else {
			gs.metrics.loopRunning.Set(0)
		}
	}
	if !gs.loopRunning {
		gs.lastWakeUnixMs = 0
		return gs
	}

	now := time.Now().UnixMilli()
	if gs.lastWakeUnixMs == 0 {
		gs.lastWakeUnixMs = now
	}
	elapsed := now - gs.lastWakeUnixMs
	gs.lastWakeUnixMs = now
	if elapsed > 160 {
		elapsed = 160
	}
	if elapsed < 0 {
		elapsed = 0
	}

	gs.physAccumulatorMs += float64(elapsed)
	gs.netAccumulatorMs += float64(elapsed)

	for gs.physAccumulatorMs >= FixedTimestepMs {
		gs.safeStep(dispatcher, logger)
		gs.physAccumulatorMs -= FixedTimestepMs
	}

	if gs.netAccumulatorMs >= float64(gs.config.NetworkTickMs) {
		gs.BroadcastSnapshot(dispatcher, logger)
		gs.netAccumulatorMs -= float64(gs.config.NetworkTickMs)
	}

	if gs.match.Status == StatusGameEnd && !gs.gameEndHandled {
		gs.gameEndHandled = true
		gs.finishMatch(ctx, logger, dispatcher)
	}

	return gs
}

// safeStep runs one physics step and the orchestrator ticks that ride along
// with it, recovering from any panic so a single bad step never kills the
// loop.
func (gs *GameMatchState) safeStep(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("soccer physics step panicked, skipping: %v", r)
			gs.metrics.dropMessage("panic")
		}
	}()

	start := time.Now()
	gs.StepPhysics(dispatcher, logger, FixedTimestepSeconds)
	gs.TickSelectionTimeout(dispatcher, logger)
	gs.TickClock(dispatcher, logger, FixedTimestepSeconds)

	if gs.metrics != nil {
		gs.metrics.physicsSteps.Inc()
		gs.metrics.stepDuration.Observe(time.Since(start).Seconds())
	}
}

// finishMatch settles the completed match and fans persistence writes out
// concurrently, run once per match via the gameEndHandled guard.
func (gs *GameMatchState) finishMatch(ctx context.Context, logger runtime.Logger, dispatcher runtime.MatchDispatcher) {
	result := gs.SettleGameEnd(gs.mmr, gs.winStreaks)
	gs.BroadcastGameEnd(dispatcher, logger, result)

	records := make(map[string]*PlayerStatsRecord, len(result.Rows))
	for _, row := range result.Rows {
		presence := gs.presences[row.UserID]
		username := row.UserID
		if presence != nil {
			username = presence.GetUsername()
		}
		record, err := gs.persistence.FindStatsByUserID(ctx, row.UserID, username)
		if err != nil {
			logger.Error("failed to load stats for finalize %s: %v", row.UserID, err)
			continue
		}
		records[row.UserID] = record
	}

	if err := FinalizeMatch(ctx, gs.persistence, gs.matchID, result, records); err != nil {
		logger.Error("failed to finalize match persistence: %v", err)
	}
}

// handleMessage decodes one inbound runtime.MatchData by opcode and applies
// it. Every mutation below happens inside the loop's own message-drain
// phase, before any physics step runs.
func (gs *GameMatchState) handleMessage(dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	playerID := msg.GetUserId()

	switch msg.GetOpCode() {
	case InOpInputBatch:
		var payload struct {
			Inputs []Input `json:"inputs"`
		}
		if err := json.Unmarshal(msg.GetData(), &payload); err != nil {
			logger.Warn("soccer: bad input batch from %s: %v", playerID, err)
			return
		}
		for _, in := range payload.Inputs {
			if !gs.EnqueueInput(playerID, in) {
				gs.metrics.dropMessage("input_stale_or_ratelimited")
			}
		}

	case InOpKick:
		var req KickRequest
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			return
		}
		req.PlayerID = playerID
		if v, ok := gs.ValidateKick(req); ok {
			gs.ApplyKick(dispatcher, logger, playerID, req.LocalKickID, v)
		}

	case InOpDribble:
		var req DribbleRequest
		if err := json.Unmarshal(msg.GetData(), &req); err != nil {
			return
		}
		req.PlayerID = playerID
		if gs.ValidateDribble(req) {
			gs.ApplyDribble(req)
		}

	case InOpAssignTeam:
		var payload struct {
			Team string `json:"team"`
		}
		if err := json.Unmarshal(msg.GetData(), &payload); err != nil {
			return
		}
		gs.AssignTeam(dispatcher, logger, playerID, Team(payload.Team))

	case InOpRandomizeTeams:
		gs.RandomizeTeams(dispatcher, logger)

	case InOpStartGame:
		gs.StartGame(dispatcher, logger)

	case InOpPickSkill:
		var payload struct {
			SkillID string `json:"skillId"`
		}
		if err := json.Unmarshal(msg.GetData(), &payload); err != nil {
			return
		}
		gs.PickSkill(dispatcher, logger, playerID, payload.SkillID)

	case InOpActivateSkill:
		var payload struct {
			SkillID         string   `json:"skillId"`
			FacingDirection *float64 `json:"facingDirection,omitempty"`
		}
		if err := json.Unmarshal(msg.GetData(), &payload); err != nil {
			return
		}
		facing, has := 0.0, false
		if payload.FacingDirection != nil {
			facing, has = *payload.FacingDirection, true
		}
		gs.ActivateSkill(dispatcher, logger, playerID, payload.SkillID, facing, has)

	case InOpResetGame:
		gs.resetMatch(dispatcher, logger)

	default:
		logger.Debug("soccer: unknown opcode %d from %s", msg.GetOpCode(), playerID)
	}
}
