package main

import (
	"math"
	"sort"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	playerPushImpulse      = 150.0
	ballKnockbackMinSpeed  = 100.0
	ballKnockbackMaxImpulse = 200.0
	ballKnockbackScale     = 0.6
	ballPlayerRestitution  = 0.6
	goalResetDelayMs       = 3000
)

// StepPlayerPlayer resolves every player-player pair (i<j), separating
// overlap and adding an elastic push impulse along the contact normal.
// Spectators, and phased-through players not near the ball,
// are skipped; overlap resolution is specialized to two equal-radius
// circles rather than a general polygon routine.
func (gs *GameMatchState) StepPlayerPlayer() {
	ids := gs.sortedPlayerIDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a := gs.players[ids[i]]
			b := gs.players[ids[j]]
			if gs.skipsPlayerCollision(ids[i]) || gs.skipsPlayerCollision(ids[j]) {
				continue
			}

			dx := b.X - a.X
			dy := b.Y - a.Y
			dist := math.Hypot(dx, dy)
			overlap := 2*PlayerRadius - dist
			if overlap <= 0 {
				continue
			}
			nx, ny := resolveNormal(dx, dy, dist)

			a.X -= nx * overlap / 2
			a.Y -= ny * overlap / 2
			b.X += nx * overlap / 2
			b.Y += ny * overlap / 2

			a.Vx -= nx * playerPushImpulse
			a.Vy -= ny * playerPushImpulse
			b.Vx += nx * playerPushImpulse
			b.Vy += ny * playerPushImpulse
		}
	}
}

// skipsPlayerCollision reports whether playerID should be excluded from
// player-player resolution: spectators, or phase-through players who are not
// currently near the ball (ninja_step's phase-through semantics).
func (gs *GameMatchState) skipsPlayerCollision(playerID string) bool {
	p := gs.players[playerID]
	if p == nil || p.Team == TeamSpectator {
		return true
	}
	skill := gs.skillState[playerID]
	if skill != nil && skill.PhaseThroughToggled {
		nearBall := math.Hypot(gs.ball.X-p.X, gs.ball.Y-p.Y) <= PlayerRadius+BallRadius+40
		if !nearBall {
			return true
		}
	}
	return false
}

// sortedPlayerIDs returns every player id in a stable, deterministic order.
// Go's map iteration order is randomized per process; resolving "first
// contact" collisions (StepBallPlayer) or chained player-player overlaps
// (StepPlayerPlayer) over a raw range would make the outcome of an identical
// tick differ across runs, so every collision pass iterates this instead.
func (gs *GameMatchState) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(gs.players))
	for id := range gs.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StepPlayerBallKnockback pushes away any player overlapping a
// fast-moving ball.
func (gs *GameMatchState) StepPlayerBallKnockback() {
	speed := math.Hypot(gs.ball.Vx, gs.ball.Vy)
	if speed <= ballKnockbackMinSpeed {
		return
	}
	for id, p := range gs.players {
		if p.Team == TeamSpectator {
			continue
		}
		dx := p.X - gs.ball.X
		dy := p.Y - gs.ball.Y
		dist := math.Hypot(dx, dy)
		if dist > PlayerRadius+BallRadius {
			continue
		}
		nx, ny := resolveNormal(dx, dy, dist)

		force := ballKnockbackScale * speed
		if force > ballKnockbackMaxImpulse {
			force = ballKnockbackMaxImpulse
		}
		if skill := gs.skillState[id]; skill != nil && skill.PowerShot != nil && gs.simTimeMs < skill.PowerShot.ExpiresAtMs {
			force = skill.PowerShot.KnockbackForce
		}

		p.Vx += nx * force
		p.Vy += ny * force
	}
}

// StepBallPlayer resolves the first ball-player contact found this step:
// reflects ball velocity about the ball->player normal,
// applies restitution (or power-shot retention), pushes the ball clear, and
// updates the touch chain, crediting an interception when the previous
// toucher was on the opposing team.
func (gs *GameMatchState) StepBallPlayer(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for _, id := range gs.sortedPlayerIDs() {
		p := gs.players[id]
		if p.Team == TeamSpectator {
			continue
		}
		dx := gs.ball.X - p.X
		dy := gs.ball.Y - p.Y
		dist := math.Hypot(dx, dy)
		overlap := PlayerRadius + BallRadius - dist
		if overlap <= 0 {
			continue
		}
		nx, ny := resolveNormal(dx, dy, dist)

		retention := ballPlayerRestitution
		if skill := gs.skillState[id]; skill != nil && skill.PowerShot != nil && gs.simTimeMs < skill.PowerShot.ExpiresAtMs {
			retention = skill.PowerShot.BallRetention
		}

		dot := gs.ball.Vx*nx + gs.ball.Vy*ny
		gs.ball.Vx = (gs.ball.Vx - 2*dot*nx) * retention
		gs.ball.Vy = (gs.ball.Vy - 2*dot*ny) * retention

		gs.ball.X = p.X + nx*(PlayerRadius+BallRadius+1)
		gs.ball.Y = p.Y + ny*(PlayerRadius+BallRadius+1)

		prev := gs.ball.LastTouchID
		gs.ball.PreviousTouchID = prev
		gs.ball.LastTouchID = id
		gs.ball.LastTouchAtMs = gs.simTimeMs

		if prev != "" && prev != id {
			if prevPlayer := gs.players[prev]; prevPlayer != nil && prevPlayer.Team == p.Team.Opponent() {
				if stats := gs.match.PlayerStats[id]; stats != nil {
					stats.Interceptions++
				}
				gs.BroadcastBallIntercepted(dispatcher, logger, id, prev)
			}
		}
		return
	}
}

// StepBallRect resolves the first wall/obstacle contact found this step,
// reflecting about the outward normal from the closest point
// on the rectangle, same BOUNCE coefficient as the kernel's pitch clamp.
func (gs *GameMatchState) StepBallRect() {
	for _, rb := range gs.world.Colliders {
		halfW, halfH := rb.Width/2, rb.Height/2
		closestX := clampF(gs.ball.X, rb.Position.X-halfW, rb.Position.X+halfW)
		closestY := clampF(gs.ball.Y, rb.Position.Y-halfH, rb.Position.Y+halfH)

		dx := gs.ball.X - closestX
		dy := gs.ball.Y - closestY
		dist := math.Hypot(dx, dy)
		overlap := BallRadius - dist
		if overlap <= 0 {
			continue
		}
		nx, ny := resolveNormal(dx, dy, dist)

		dot := gs.ball.Vx*nx + gs.ball.Vy*ny
		gs.ball.Vx = (gs.ball.Vx - 2*dot*nx) * BallBounce
		gs.ball.Vy = (gs.ball.Vy - 2*dot*ny) * BallBounce

		gs.ball.X += nx * (overlap + 1)
		gs.ball.Y += ny * (overlap + 1)
		break
	}
}

// StepBallGoal checks whether the ball centre is inside a goal zone with no
// pending reset scores for the opposing team and schedules the 3s reset.
func (gs *GameMatchState) StepBallGoal(dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if gs.goalResetPending {
		return
	}
	for _, g := range gs.world.Goals {
		if !g.Contains(gs.ball.X, gs.ball.Y) {
			continue
		}
		scorer := g.Team.Opponent()

		if id := gs.ball.LastTouchID; id != "" {
			if stats := gs.match.PlayerStats[id]; stats != nil {
				stats.Goals++
			}
		}
		if id := gs.ball.PreviousTouchID; id != "" && id != gs.ball.LastTouchID {
			if scoringPlayer := gs.players[gs.ball.LastTouchID]; scoringPlayer != nil {
				if assistPlayer := gs.players[id]; assistPlayer != nil && assistPlayer.Team == scoringPlayer.Team {
					if stats := gs.match.PlayerStats[id]; stats != nil {
						stats.Assists++
					}
				}
			}
		}

		if scorer == TeamRed {
			gs.match.ScoreRed++
		} else if scorer == TeamBlue {
			gs.match.ScoreBlue++
		}
		if gs.metrics != nil {
			gs.metrics.goalsScored.Inc()
		}

		gs.ball.Vx, gs.ball.Vy = 0, 0
		gs.ball.Moving = false
		gs.goalResetPending = true
		gs.BroadcastGoal(dispatcher, logger, scorer)
		gs.timers.Schedule(gs.simTimeMs+goalResetDelayMs, resetAfterGoal)
		return
	}
}

// resetAfterGoal is the goal-reset timer callback: teleports the ball to
// pitch centre and every on-team player back to its indexed spawn, and
// clears every player's skill state since a slow/metavision/lurking/
// power-shot window computed against the pre-reset positions would
// otherwise reference a now-stale spot on the pitch.
func resetAfterGoal(gs *GameMatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	cx, cy := pitchCenter()
	gs.ball.X, gs.ball.Y = cx, cy
	gs.ball.Vx, gs.ball.Vy = 0, 0
	gs.ball.KickSequence++
	gs.goalResetPending = false

	redIdx, blueIdx := 0, 0
	ids := gs.sortedPlayerIDs()
	resets := make([]PlayerResetInfo, 0, len(ids))
	for _, id := range ids {
		p := gs.players[id]
		switch p.Team {
		case TeamRed:
			sp := SpawnPoint(TeamRed, redIdx)
			p.X, p.Y, p.Vx, p.Vy = sp.X, sp.Y, 0, 0
			redIdx++
		case TeamBlue:
			sp := SpawnPoint(TeamBlue, blueIdx)
			p.X, p.Y, p.Vx, p.Vy = sp.X, sp.Y, 0, 0
			blueIdx++
		default:
			continue
		}
		gs.skillState[id] = newPlayerSkillState()
		resets = append(resets, PlayerResetInfo{ID: id, X: p.X, Y: p.Y})
	}

	gs.BroadcastPlayerReset(dispatcher, logger, resets)
}

// StepBallStop snaps sub-threshold ball speeds to a full stop.
func (gs *GameMatchState) StepBallStop() {
	if math.Hypot(gs.ball.Vx, gs.ball.Vy) < stopBallThreshold {
		gs.ball.Vx, gs.ball.Vy = 0, 0
		gs.ball.Moving = false
	}
}

// StepSpectatorWalls pushes spectators out of
// static rects along the shortest axis, velocity zeroed on that axis, so a
// spectator's free-roam never overlaps pitch geometry.
func (gs *GameMatchState) StepSpectatorWalls() {
	for _, p := range gs.players {
		if p.Team != TeamSpectator {
			continue
		}
		for _, rb := range gs.world.Colliders {
			halfW, halfH := rb.Width/2, rb.Height/2
			overlapX := (halfW + PlayerRadius) - math.Abs(p.X-rb.Position.X)
			overlapY := (halfH + PlayerRadius) - math.Abs(p.Y-rb.Position.Y)
			if overlapX <= 0 || overlapY <= 0 {
				continue
			}
			if overlapX < overlapY {
				if p.X < rb.Position.X {
					p.X -= overlapX
				} else {
					p.X += overlapX
				}
				p.Vx = 0
			} else {
				if p.Y < rb.Position.Y {
					p.Y -= overlapY
				} else {
					p.Y += overlapY
				}
				p.Vy = 0
			}
		}
	}
}

// resolveNormal returns the unit normal along (dx, dy), falling back to a
// fixed direction when the two centres exactly coincide.
func resolveNormal(dx, dy, dist float64) (float64, float64) {
	if dist < 0.0001 {
		return 1, 0
	}
	return dx / dist, dy / dist
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
