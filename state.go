package main

import (
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/rudransh61/Physix-go/pkg/vector"
)

// BallState is the authoritative ball record.
type BallState struct {
	X, Y           float64
	Vx, Vy         float64
	Moving         bool
	LastTouchID    string
	PreviousTouchID string
	LastTouchAtMs  int64
	KickSequence   uint64
}

// PlayerPhysics is the authoritative per-player physics record.
type PlayerPhysics struct {
	ID    string
	X, Y  float64
	Vx, Vy float64
	Team  Team
	Stats PlayerStats

	LastKickAtMs int64
}

const maxInputQueueDepth = 120

// InputQueue is a per-player bounded FIFO of InputState, consumed one entry
// per physics tick; overflow drops the oldest entry.
type InputQueue struct {
	items []Input
}

// Push appends an input, dropping stale (<= lastSeq) and duplicate-of-last
// entries, and evicting the oldest entry if the queue is at capacity.
func (q *InputQueue) Push(in Input, lastSeq uint64) {
	if in.Sequence <= lastSeq {
		return
	}
	if n := len(q.items); n > 0 && q.items[n-1].Sequence == in.Sequence {
		return
	}
	if len(q.items) >= maxInputQueueDepth {
		q.items = q.items[1:]
	}
	q.items = append(q.items, in)
}

// Pop removes and returns the front input, or false if the queue is empty.
func (q *InputQueue) Pop() (Input, bool) {
	if len(q.items) == 0 {
		return Input{}, false
	}
	front := q.items[0]
	q.items = q.items[1:]
	return front, true
}

// PopLatest drains the entire queue and returns only the most recently
// pushed input, discarding everything older; used when
// MatchConfig.UseLatestInputOnly trades input-loss determinism for lower
// input-to-physics latency.
func (q *InputQueue) PopLatest() (Input, bool) {
	if len(q.items) == 0 {
		return Input{}, false
	}
	latest := q.items[len(q.items)-1]
	q.items = q.items[:0]
	return latest, true
}

func (q *InputQueue) Len() int { return len(q.items) }

const historyCapacity = 60 // ~1s at 60 samples/sec

// HistorySample is one (x, y, timestamp) record in a lag-compensation ring.
type HistorySample struct {
	X, Y      float64
	TimestampMs int64
}

// HistoryBuffer is a fixed-capacity ring buffer of recent positions, used for
// lag-compensated kick/dribble validation.
type HistoryBuffer struct {
	samples [historyCapacity]HistorySample
	count   int
	next    int
}

// Append records a new sample, overwriting the oldest once full.
func (h *HistoryBuffer) Append(s HistorySample) {
	h.samples[h.next] = s
	h.next = (h.next + 1) % historyCapacity
	if h.count < historyCapacity {
		h.count++
	}
}

// At returns the newest sample at or before timestampMs, or (zero, false) if
// the history doesn't reach that far back (caller falls back to current
// position).
func (h *HistoryBuffer) At(timestampMs int64) (HistorySample, bool) {
	var best HistorySample
	found := false
	for i := 0; i < h.count; i++ {
		idx := (h.next - 1 - i + historyCapacity) % historyCapacity
		s := h.samples[idx]
		if s.TimestampMs <= timestampMs {
			if !found || s.TimestampMs > best.TimestampMs {
				best = s
				found = true
			}
		}
	}
	return best, found
}

// PowerShotEffect is the transient window opened by the power_shot skill.
type PowerShotEffect struct {
	KnockbackForce float64
	BallRetention  float64
	ExpiresAtMs    int64
}

// LurkingEffect is the armed-intercept window opened by lurking_radius.
type LurkingEffect struct {
	Radius      float64
	ExpiresAtMs int64
}

// TimedBuff is a stat buff (kick power or speed) with an expiry.
type TimedBuff struct {
	Amount      float64
	ExpiresAtMs int64
}

// PlayerSkillState is the per-player skill bookkeeping.
type PlayerSkillState struct {
	Cooldowns map[string]int64 // skillId -> next usable timestamp ms

	SlowedUntilMs      int64
	MetavisionUntilMs  int64
	PhaseThroughToggled bool
	Lurking            *LurkingEffect
	PowerShot          *PowerShotEffect

	KickPowerBuff *TimedBuff
}

func newPlayerSkillState() *PlayerSkillState {
	return &PlayerSkillState{Cooldowns: make(map[string]int64)}
}

// PlayerMatchStats accumulates the per-player achievements used for MVP/feat
// scoring at game end.
type PlayerMatchStats struct {
	Goals         int
	Assists       int
	Interceptions int
}

// MatchStatus is the top-level orchestrator state.
type MatchStatus string

const (
	StatusLobby          MatchStatus = "LOBBY"
	StatusSkillSelection MatchStatus = "SKILL_SELECTION"
	StatusActive         MatchStatus = "ACTIVE"
	StatusGameEnd        MatchStatus = "GAME_END"
)

// MatchState is the match-orchestrator record.
type MatchState struct {
	Status MatchStatus

	ScoreRed  int
	ScoreBlue int

	ClockSeconds   float64
	Overtime       bool

	SelectionOrder   []string
	SelectionIndex   int
	SelectionDeadlineMs int64
	AvailableSkills  map[string]bool
	AssignedSkill    map[string]string // playerId -> skillId

	PlayerStats map[string]*PlayerMatchStats
}

func newMatchState() *MatchState {
	return &MatchState{
		Status:          StatusLobby,
		AvailableSkills: make(map[string]bool),
		AssignedSkill:   make(map[string]string),
		PlayerStats:     make(map[string]*PlayerMatchStats),
	}
}

// timerEntry is one (fireAt, callback) pair in the scheduler-owned timer
// wheel that replaces wall-clock timers for the goal reset (skill effects
// expire by polling in ExpireSkills), drained each tick; cancellation sets a
// tombstone.
type timerEntry struct {
	id        uint64
	fireAtMs  int64
	cancelled bool
	fn        func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger)
}

// TimerWheel is a simple slice-backed priority queue of pending callbacks.
// At match scale (a handful of players, a handful of live skills) a linear
// scan per tick is cheap and keeps cancellation trivial (mark-and-skip).
type TimerWheel struct {
	nextID  uint64
	entries []*timerEntry
}

// Schedule registers fn to run once simulated time reaches fireAtMs, and
// returns a handle that Cancel can use to tombstone it before it fires.
func (tw *TimerWheel) Schedule(fireAtMs int64, fn func(*GameMatchState, runtime.MatchDispatcher, runtime.Logger)) uint64 {
	tw.nextID++
	tw.entries = append(tw.entries, &timerEntry{id: tw.nextID, fireAtMs: fireAtMs, fn: fn})
	return tw.nextID
}

// Cancel tombstones a scheduled timer; a no-op if it already fired or never existed.
func (tw *TimerWheel) Cancel(id uint64) {
	for _, e := range tw.entries {
		if e.id == id {
			e.cancelled = true
			return
		}
	}
}

// Clear removes every pending entry, cancelled or not; used on a full match
// reset so no stale goal-reset callback can fire against the reset state.
func (tw *TimerWheel) Clear() {
	tw.entries = nil
}

// Drain runs (and removes) every non-cancelled entry whose fireAtMs has
// passed, in scheduling order.
func (tw *TimerWheel) Drain(nowMs int64, gs *GameMatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	remaining := tw.entries[:0]
	for _, e := range tw.entries {
		if e.cancelled {
			continue
		}
		if nowMs >= e.fireAtMs {
			e.fn(gs, dispatcher, logger)
			continue
		}
		remaining = append(remaining, e)
	}
	tw.entries = remaining
}

// GameMatchState is the single value Nakama's match actor owns and
// serializes all mutation into.
type GameMatchState struct {
	mu sync.Mutex

	config *MatchConfig
	world  *StaticWorld
	skills *SkillTuning

	presences map[string]runtimePresence

	ball BallState

	players     map[string]*PlayerPhysics
	inputQueues map[string]*InputQueue
	lastSeq     map[string]uint64
	lastAppliedInput map[string]Input

	ballHistory   HistoryBuffer
	playerHistory map[string]*HistoryBuffer

	skillState map[string]*PlayerSkillState

	match MatchState
	goalResetPending bool

	timers TimerWheel

	simTimeMs int64

	physAccumulatorMs float64
	netAccumulatorMs  float64
	lastWakeUnixMs    int64

	loopRunning bool

	nextKickSeq func() uint64

	limiters map[string]*playerLimiter

	metrics *matchMetrics

	persistence *SoccerPersistence
	matchID     string

	mmr            MMRCalculator
	winStreaks     map[string]int
	gameEndHandled bool
}

// runtimePresence is the subset of runtime.Presence this module needs, kept
// as a narrow local interface.
type runtimePresence interface {
	GetUserId() string
	GetUsername() string
	GetSessionId() string
}

func newGameMatchState(config *MatchConfig, world *StaticWorld, skills *SkillTuning, metrics *matchMetrics, persistence *SoccerPersistence, matchID string) *GameMatchState {
	gs := &GameMatchState{
		config:        config,
		world:         world,
		skills:        skills,
		presences:     make(map[string]runtimePresence),
		players:       make(map[string]*PlayerPhysics),
		inputQueues:   make(map[string]*InputQueue),
		lastSeq:       make(map[string]uint64),
		lastAppliedInput: make(map[string]Input),
		playerHistory: make(map[string]*HistoryBuffer),
		skillState:    make(map[string]*PlayerSkillState),
		match:         *newMatchState(),
		limiters:      make(map[string]*playerLimiter),
		metrics:       metrics,
		persistence:   persistence,
		matchID:       matchID,
		mmr:           NewMMRCalculator(),
		winStreaks:    make(map[string]int),
	}
	cx, cy := pitchCenter()
	gs.ball = BallState{X: cx, Y: cy}
	return gs
}

// AddPlayer registers a newly-joined player's physics record, input queue,
// history buffer, and skill state, and places them at the given position.
func (gs *GameMatchState) AddPlayer(id string, spawn vector.Vector, stats PlayerStats, team Team) {
	gs.players[id] = &PlayerPhysics{ID: id, X: spawn.X, Y: spawn.Y, Team: team, Stats: stats}
	gs.inputQueues[id] = &InputQueue{}
	gs.lastSeq[id] = 0
	gs.playerHistory[id] = &HistoryBuffer{}
	gs.skillState[id] = newPlayerSkillState()
	gs.match.PlayerStats[id] = &PlayerMatchStats{}
}

// RemovePlayer deregisters a player and deletes their per-player state.
// Pending timers are left untouched; the goal-reset callback only iterates
// the players present when it fires.
func (gs *GameMatchState) RemovePlayer(id string) {
	delete(gs.players, id)
	delete(gs.inputQueues, id)
	delete(gs.lastSeq, id)
	delete(gs.lastAppliedInput, id)
	delete(gs.playerHistory, id)
	delete(gs.skillState, id)
	delete(gs.limiters, id)
	delete(gs.presences, id)
}

// ActivePlayerCount returns the number of non-spectator players, used by the
// scheduler to decide whether the simulation should keep running.
func (gs *GameMatchState) ActivePlayerCount() int {
	n := 0
	for _, p := range gs.players {
		if p.Team == TeamRed || p.Team == TeamBlue {
			n++
		}
	}
	return n
}
