package main

import (
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"
)

// OpCode constants for the soccer message surface, following a
// single-int-per-message-type convention extended to the full soccer
// event catalogue.
const (
	OpBallState          = 10
	OpPlayersUpdate      = 11
	OpBallKicked         = 12
	OpBallIntercepted    = 13
	OpGoalScored         = 14
	OpPlayerReset        = 15
	OpTeamAssigned       = 16
	OpGameReset          = 17
	OpSelectionStarted   = 18
	OpSelectionUpdate    = 19
	OpSkillPicked        = 20
	OpSkillActivated     = 22
	OpSkillEnded         = 23
	OpSkillTriggered     = 24
	OpBlinkActivated     = 25
	OpGameStarted        = 26
	OpOvertime           = 27
	OpTimerUpdate        = 28
	OpGameEnd            = 29
)

// BallSnapshot is broadcast at network cadence.
type BallSnapshot struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Vx           float64 `json:"vx"`
	Vy           float64 `json:"vy"`
	LastTouchID  string  `json:"lastTouchId"`
	KickSequence uint64  `json:"kickSequence"`
	ServerTick   int64   `json:"serverTick"`
	TimestampMs  int64   `json:"timestamp"`
}

// PlayerSnapshot is one player's row of the broadcast player array.
type PlayerSnapshot struct {
	ID                    string  `json:"id"`
	X                     float64 `json:"x"`
	Y                     float64 `json:"y"`
	Vx                    float64 `json:"vx"`
	Vy                    float64 `json:"vy"`
	IsGhosted            bool    `json:"isGhosted"`
	IsSpectator           bool    `json:"isSpectator"`
	LastProcessedSequence uint64  `json:"lastProcessedSequence"`
	TimestampMs           int64   `json:"timestamp"`
}

// BuildBallSnapshot assembles the current authoritative ball state.
func (gs *GameMatchState) BuildBallSnapshot() BallSnapshot {
	return BallSnapshot{
		X: gs.ball.X, Y: gs.ball.Y,
		Vx: gs.ball.Vx, Vy: gs.ball.Vy,
		LastTouchID:  gs.ball.LastTouchID,
		KickSequence: gs.ball.KickSequence,
		ServerTick:   gs.simTimeMs / FixedTimestepMs,
		TimestampMs:  gs.simTimeMs,
	}
}

// BuildPlayerSnapshots assembles the per-player snapshot array, ghosted
// flagged for phase-through players currently away from the ball.
func (gs *GameMatchState) BuildPlayerSnapshots() []PlayerSnapshot {
	out := make([]PlayerSnapshot, 0, len(gs.players))
	for id, p := range gs.players {
		out = append(out, PlayerSnapshot{
			ID: id, X: p.X, Y: p.Y, Vx: p.Vx, Vy: p.Vy,
			IsGhosted:             gs.skipsPlayerCollision(id) && p.Team != TeamSpectator,
			IsSpectator:           p.Team == TeamSpectator,
			LastProcessedSequence: gs.lastSeq[id],
			TimestampMs:           gs.simTimeMs,
		})
	}
	return out
}

// broadcast marshals payload as JSON and sends it to the whole match room,
// marshals then calls BroadcastMessage(opCode, data, nil, nil, true).
func (gs *GameMatchState) broadcast(dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64, payload any) {
	if dispatcher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("broadcast marshal failed for opcode %d: %v", opCode, err)
		return
	}
	if _, err := dispatcher.BroadcastMessage(opCode, data, nil, nil, true); err != nil {
		logger.Error("broadcast failed for opcode %d: %v", opCode, err)
	}
}

// BroadcastSnapshot emits the ball and player snapshots at network cadence.
func (gs *GameMatchState) BroadcastSnapshot(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	gs.broadcast(dispatcher, logger, OpBallState, gs.BuildBallSnapshot())
	gs.broadcast(dispatcher, logger, OpPlayersUpdate, gs.BuildPlayerSnapshots())
}

// BallKickedEvent accompanies a successful kick.
type BallKickedEvent struct {
	KickerID     string `json:"kickerId"`
	KickSequence uint64 `json:"kickSequence"`
	LocalKickID  string `json:"localKickId,omitempty"`
}

func (gs *GameMatchState) BroadcastBallKicked(dispatcher runtime.MatchDispatcher, logger runtime.Logger, kickerID, localKickID string) {
	gs.broadcast(dispatcher, logger, OpBallKicked, BallKickedEvent{
		KickerID: kickerID, KickSequence: gs.ball.KickSequence, LocalKickID: localKickID,
	})
}

// GoalScoredEvent accompanies a goal.
type GoalScoredEvent struct {
	ScoringTeam Team   `json:"scoringTeam"`
	ScorerID    string `json:"scorerId"`
	AssistID    string `json:"assistId,omitempty"`
	ScoreRed    int    `json:"scoreRed"`
	ScoreBlue   int    `json:"scoreBlue"`
}

func (gs *GameMatchState) BroadcastGoal(dispatcher runtime.MatchDispatcher, logger runtime.Logger, scoringTeam Team) {
	gs.broadcast(dispatcher, logger, OpGoalScored, GoalScoredEvent{
		ScoringTeam: scoringTeam,
		ScorerID:    gs.ball.LastTouchID,
		AssistID:    gs.ball.PreviousTouchID,
		ScoreRed:    gs.match.ScoreRed,
		ScoreBlue:   gs.match.ScoreBlue,
	})
}

// TimerUpdateEvent is emitted once per whole second of simulated match clock
// change.
type TimerUpdateEvent struct {
	ClockSeconds int  `json:"clockSeconds"`
	Overtime     bool `json:"overtime"`
}

func (gs *GameMatchState) BroadcastTimerUpdate(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	gs.broadcast(dispatcher, logger, OpTimerUpdate, TimerUpdateEvent{
		ClockSeconds: int(gs.match.ClockSeconds), Overtime: gs.match.Overtime,
	})
}

// GameEndEvent is the terminal broadcast payload sent once a match settles.
type GameEndEvent struct {
	Winner    Team             `json:"winner"`
	ScoreRed  int              `json:"scoreRed"`
	ScoreBlue int              `json:"scoreBlue"`
	MVPUserID string           `json:"mvp"`
	MMRUpdates []MatchPlayerRow `json:"mmrUpdates"`
}

func (gs *GameMatchState) BroadcastGameEnd(dispatcher runtime.MatchDispatcher, logger runtime.Logger, result *GameEndResult) {
	gs.broadcast(dispatcher, logger, OpGameEnd, GameEndEvent{
		Winner: result.Winner, ScoreRed: result.ScoreRed, ScoreBlue: result.ScoreBlue,
		MVPUserID: result.MVPUserID, MMRUpdates: result.Rows,
	})
}

// SkillEvent accompanies skill:activated / skill:ended / skill:triggered.
type SkillEvent struct {
	PlayerID string `json:"playerId"`
	SkillID  string `json:"skillId"`
}

func (gs *GameMatchState) BroadcastSkillActivated(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID, skillID string) {
	gs.broadcast(dispatcher, logger, OpSkillActivated, SkillEvent{PlayerID: playerID, SkillID: skillID})
}

// BroadcastSkillEnded announces that a timed skill effect has naturally
// expired (as opposed to being cancelled by a reset or a goal).
func (gs *GameMatchState) BroadcastSkillEnded(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID, skillID string) {
	gs.broadcast(dispatcher, logger, OpSkillEnded, SkillEvent{PlayerID: playerID, SkillID: skillID})
}

// BroadcastSkillTriggered announces the effect side of a two-stage skill
// landing (lurking_radius's teleport, power_shot's fired kick), as distinct
// from the activation message that arms it.
func (gs *GameMatchState) BroadcastSkillTriggered(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID, skillID string) {
	gs.broadcast(dispatcher, logger, OpSkillTriggered, SkillEvent{PlayerID: playerID, SkillID: skillID})
}

// BlinkActivatedEvent carries the teleport endpoints for client-side effects.
type BlinkActivatedEvent struct {
	PlayerID   string  `json:"playerId"`
	FromX      float64 `json:"fromX"`
	FromY      float64 `json:"fromY"`
	ToX        float64 `json:"toX"`
	ToY        float64 `json:"toY"`
}

func (gs *GameMatchState) BroadcastBlinkActivated(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID string, fromX, fromY, toX, toY float64) {
	gs.broadcast(dispatcher, logger, OpBlinkActivated, BlinkActivatedEvent{
		PlayerID: playerID, FromX: fromX, FromY: fromY, ToX: toX, ToY: toY,
	})
}

// BallInterceptedEvent credits interceptorID with stealing possession from
// previousTouchID.
type BallInterceptedEvent struct {
	InterceptorID   string `json:"interceptorId"`
	PreviousTouchID string `json:"previousTouchId"`
}

func (gs *GameMatchState) BroadcastBallIntercepted(dispatcher runtime.MatchDispatcher, logger runtime.Logger, interceptorID, previousTouchID string) {
	gs.broadcast(dispatcher, logger, OpBallIntercepted, BallInterceptedEvent{
		InterceptorID: interceptorID, PreviousTouchID: previousTouchID,
	})
}

// PlayerResetInfo is one player's post-goal respawn position.
type PlayerResetInfo struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// PlayerResetEvent accompanies the post-goal respawn of every on-team player.
type PlayerResetEvent struct {
	Players []PlayerResetInfo `json:"players"`
}

func (gs *GameMatchState) BroadcastPlayerReset(dispatcher runtime.MatchDispatcher, logger runtime.Logger, resets []PlayerResetInfo) {
	gs.broadcast(dispatcher, logger, OpPlayerReset, PlayerResetEvent{Players: resets})
}

// TeamAssignedEvent accompanies a player's team assignment or reassignment.
type TeamAssignedEvent struct {
	PlayerID string `json:"playerId"`
	Team     Team   `json:"team"`
}

func (gs *GameMatchState) BroadcastTeamAssigned(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID string, team Team) {
	gs.broadcast(dispatcher, logger, OpTeamAssigned, TeamAssignedEvent{PlayerID: playerID, Team: team})
}

// GameResetEvent announces a full match reset back to LOBBY.
type GameResetEvent struct{}

func (gs *GameMatchState) BroadcastGameReset(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	gs.broadcast(dispatcher, logger, OpGameReset, GameResetEvent{})
}

// GameStartedEvent announces the LOBBY -> SKILL_SELECTION/ACTIVE transition.
type GameStartedEvent struct {
	ScoreRed  int     `json:"scoreRed"`
	ScoreBlue int     `json:"scoreBlue"`
	ClockSeconds float64 `json:"clockSeconds"`
}

func (gs *GameMatchState) BroadcastGameStarted(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	gs.broadcast(dispatcher, logger, OpGameStarted, GameStartedEvent{
		ScoreRed: gs.match.ScoreRed, ScoreBlue: gs.match.ScoreBlue, ClockSeconds: gs.match.ClockSeconds,
	})
}

// SelectionPhaseStartedEvent carries the snake pick order for the skill
// selection phase.
type SelectionPhaseStartedEvent struct {
	SelectionOrder []string `json:"selectionOrder"`
}

func (gs *GameMatchState) BroadcastSelectionPhaseStarted(dispatcher runtime.MatchDispatcher, logger runtime.Logger, order []string) {
	gs.broadcast(dispatcher, logger, OpSelectionStarted, SelectionPhaseStartedEvent{SelectionOrder: order})
}

// SelectionUpdateEvent accompanies every advance of the skill-selection turn:
// who picks next (empty once selection is complete) and what remains.
type SelectionUpdateEvent struct {
	CurrentPicker   string   `json:"currentPicker,omitempty"`
	AvailableSkills []string `json:"availableSkills"`
}

func (gs *GameMatchState) BroadcastSelectionUpdate(dispatcher runtime.MatchDispatcher, logger runtime.Logger, currentPicker string, available []string) {
	gs.broadcast(dispatcher, logger, OpSelectionUpdate, SelectionUpdateEvent{
		CurrentPicker: currentPicker, AvailableSkills: available,
	})
}

// SkillPickedEvent accompanies a player's skill-selection pick, whether
// chosen explicitly or auto-picked on timeout.
type SkillPickedEvent struct {
	PlayerID string `json:"playerId"`
	SkillID  string `json:"skillId"`
}

func (gs *GameMatchState) BroadcastSkillPicked(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID, skillID string) {
	gs.broadcast(dispatcher, logger, OpSkillPicked, SkillPickedEvent{PlayerID: playerID, SkillID: skillID})
}

// OvertimeEvent announces the ACTIVE clock expiring tied, entering overtime.
type OvertimeEvent struct {
	ClockSeconds float64 `json:"clockSeconds"`
}

func (gs *GameMatchState) BroadcastOvertime(dispatcher runtime.MatchDispatcher, logger runtime.Logger, clockSeconds float64) {
	gs.broadcast(dispatcher, logger, OpOvertime, OvertimeEvent{ClockSeconds: clockSeconds})
}
