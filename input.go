package main

import (
	"math"

	"github.com/heroiclabs/nakama-common/runtime"
	"golang.org/x/time/rate"
)

// playerLimiter wraps a token-bucket limiter per connected player, guarding
// movement input against flooding: EnqueueInput takes one token per input
// entry. Kick, dribble and skill messages are not rate limited.
type playerLimiter struct {
	limiter *rate.Limiter
}

func newPlayerLimiter(cfg *MatchConfig) *playerLimiter {
	return &playerLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.PlayerMessagesPerSecond), cfg.PlayerMessageBurst),
	}
}

func (pl *playerLimiter) Allow() bool {
	return pl.limiter.Allow()
}

// limiterFor returns (creating if needed) the rate limiter for playerID.
// Caller must hold gs.mu.
func (gs *GameMatchState) limiterFor(playerID string) *playerLimiter {
	pl, ok := gs.limiters[playerID]
	if !ok {
		pl = newPlayerLimiter(gs.config)
		gs.limiters[playerID] = pl
	}
	return pl
}

// KickRequest is the decoded payload of a "ball:kick" message.
type KickRequest struct {
	PlayerID    string
	Angle       float64
	BasePower   float64
	ClientTick  int64
	HasTick     bool
	LocalKickID string
}

// DribbleRequest is the decoded payload of a "ball:dribble" message. Only
// carries the player identity: the ball-distance check and the resulting
// velocity must use gs.players[PlayerID]'s server-authoritative position,
// never a client-reported one.
type DribbleRequest struct {
	PlayerID string
}

const (
	maxKickDistance            = 250.0
	maxKickDistanceMetavision  = 300.0
	maxDribbleDistance         = 300.0
	dribbleKickGraceMs         = 100
	kickRecoilMagnitude        = 400.0
	stopBallThreshold          = 10.0
)

// EnqueueInput appends a movement input to playerID's queue after rate
// limiting and sequence validation. Returns false if the message was
// dropped (unknown player, rate-limited, or stale sequence), in which case
// the caller should record a dropped-message metric.
func (gs *GameMatchState) EnqueueInput(playerID string, in Input) bool {
	if _, ok := gs.players[playerID]; !ok {
		return false
	}
	if lim := gs.limiterFor(playerID); !lim.Allow() {
		return false
	}
	q, ok := gs.inputQueues[playerID]
	if !ok {
		return false
	}
	before := q.Len()
	q.Push(in, gs.lastSeq[playerID])
	return q.Len() > before || (before == maxInputQueueDepth && in.Sequence > gs.lastSeq[playerID])
}

// historyPositionAt rewinds entity to its recorded position at or before
// clientTimestampMs, capped to the 500ms lag-comp window; falls back to the
// entity's current server position when the lookup misses or the requested
// timestamp is outside the window.
func (gs *GameMatchState) historyPositionAt(h *HistoryBuffer, nowMs, clientTimestampMs int64, curX, curY float64) (float64, float64) {
	if h == nil || clientTimestampMs <= 0 {
		return curX, curY
	}
	if nowMs-clientTimestampMs > int64(gs.config.LagCompWindowMs) {
		return curX, curY
	}
	if s, ok := h.At(clientTimestampMs); ok {
		return s.X, s.Y
	}
	return curX, curY
}

// ValidateKick applies the kick-acceptance rules. Returns the accepted
// kick velocity and true, or (zero, false) if the kick must be silently
// dropped.
func (gs *GameMatchState) ValidateKick(req KickRequest) (vector2, bool) {
	p, ok := gs.players[req.PlayerID]
	if !ok || p.Team == TeamSpectator || p.Team == TeamNone {
		gs.metrics.dropMessage("kick_spectator")
		return vector2{}, false
	}
	if gs.simTimeMs-p.LastKickAtMs < int64(gs.config.KickCooldownMs) {
		gs.metrics.dropMessage("kick_cooldown")
		return vector2{}, false
	}

	skill := gs.skillState[req.PlayerID]
	hasMetavision := skill != nil && gs.simTimeMs < skill.MetavisionUntilMs

	kickerX, kickerY := p.X, p.Y
	ballX, ballY := gs.ball.X, gs.ball.Y
	if req.HasTick {
		kickerX, kickerY = gs.historyPositionAt(gs.playerHistory[req.PlayerID], gs.simTimeMs, req.ClientTick, p.X, p.Y)
		ballX, ballY = gs.historyPositionAt(&gs.ballHistory, gs.simTimeMs, req.ClientTick, gs.ball.X, gs.ball.Y)
	}

	maxDist := maxKickDistance
	if hasMetavision {
		maxDist = maxKickDistanceMetavision
	}
	if math.Hypot(ballX-kickerX, ballY-kickerY) > maxDist {
		gs.metrics.dropMessage("kick_distance")
		return vector2{}, false
	}

	kv := KickVelocity(req.Angle, req.BasePower, gs.EffectiveKickPowerMul(req.PlayerID), hasMetavision, gs.skills.MetavisionKickMul)
	return vector2{kv.X, kv.Y}, true
}

// ApplyKick mutates ball/kicker state for an accepted kick: sets ball
// velocity, recoils the kicker, bumps kickSequence, and updates the touch
// chain (the touch-chain convention).
func (gs *GameMatchState) ApplyKick(dispatcher runtime.MatchDispatcher, logger runtime.Logger, playerID string, localKickID string, v vector2) {
	p := gs.players[playerID]

	gs.ball.Vx = v.X
	gs.ball.Vy = v.Y
	gs.ball.Moving = true
	gs.ball.KickSequence++
	gs.ball.PreviousTouchID = gs.ball.LastTouchID
	gs.ball.LastTouchID = playerID
	gs.ball.LastTouchAtMs = gs.simTimeMs

	mag := math.Hypot(v.X, v.Y)
	if mag > 0 {
		p.Vx -= (v.X / mag) * kickRecoilMagnitude
		p.Vy -= (v.Y / mag) * kickRecoilMagnitude
	}
	p.LastKickAtMs = gs.simTimeMs
	gs.BroadcastBallKicked(dispatcher, logger, playerID, localKickID)
}

// ValidateDribble applies the dribble-acceptance rules, measured against the
// player's own server-held position rather than anything client-reported.
func (gs *GameMatchState) ValidateDribble(req DribbleRequest) bool {
	p, ok := gs.players[req.PlayerID]
	if !ok || p.Team == TeamSpectator || p.Team == TeamNone {
		gs.metrics.dropMessage("dribble_spectator")
		return false
	}
	if gs.simTimeMs-p.LastKickAtMs < dribbleKickGraceMs {
		gs.metrics.dropMessage("dribble_kick_grace")
		return false
	}
	if math.Hypot(gs.ball.X-p.X, gs.ball.Y-p.Y) > maxDribbleDistance {
		gs.metrics.dropMessage("dribble_distance")
		return false
	}
	return true
}

// ApplyDribble sets ball velocity to 300*unit(ball-player) and bumps the
// touch chain, using the player's server-held position.
func (gs *GameMatchState) ApplyDribble(req DribbleRequest) {
	p := gs.players[req.PlayerID]
	dx := gs.ball.X - p.X
	dy := gs.ball.Y - p.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dist = 1
	}
	gs.ball.Vx = (dx / dist) * 300
	gs.ball.Vy = (dy / dist) * 300
	gs.ball.Moving = true
	gs.ball.KickSequence++
	gs.ball.PreviousTouchID = gs.ball.LastTouchID
	gs.ball.LastTouchID = req.PlayerID
	gs.ball.LastTouchAtMs = gs.simTimeMs
}

// vector2 is a minimal float pair, used in input.go to avoid importing
// Physix-go's vector package for what is purely a return-value convenience.
type vector2 struct {
	X, Y float64
}
