package main

import "github.com/heroiclabs/nakama-common/runtime"

// StepPhysics advances the authoritative simulation by one fixed 16ms step,
// in a fixed order: per-player input integration,
// player-player resolution, player-ball knockback, ball integration,
// ball-player / ball-rect / ball-goal resolution, a second boundary clamp
// (an obstacle collider near a wall can push the ball back outside
// [r, W-r]x[r, H-r] after the clamp folded into IntegrateBall already ran),
// stop-threshold snap, then spectator wall collision.
// Called once per drained accumulator slice from MatchLoop.
func (gs *GameMatchState) StepPhysics(dispatcher runtime.MatchDispatcher, logger runtime.Logger, dt float64) {
	gs.consumeInputs(dt)

	gs.StepPlayerPlayer()
	gs.StepPlayerBallKnockback()

	kb := IntegrateBall(KinematicBall{X: gs.ball.X, Y: gs.ball.Y, Vx: gs.ball.Vx, Vy: gs.ball.Vy}, dt)
	gs.ball.X, gs.ball.Y, gs.ball.Vx, gs.ball.Vy = kb.X, kb.Y, kb.Vx, kb.Vy

	gs.StepBallPlayer(dispatcher, logger)
	gs.StepBallRect()
	gs.StepBallGoal(dispatcher, logger)
	gs.ball.X, gs.ball.Y, gs.ball.Vx, gs.ball.Vy = ClampBallToPitch(gs.ball.X, gs.ball.Y, gs.ball.Vx, gs.ball.Vy)
	gs.StepBallStop()
	gs.StepSpectatorWalls()

	gs.ExpireSkills(dispatcher, logger)

	gs.simTimeMs += FixedTimestepMs
	gs.timers.Drain(gs.simTimeMs, gs, dispatcher, logger)

	gs.ballHistory.Append(HistorySample{X: gs.ball.X, Y: gs.ball.Y, TimestampMs: gs.simTimeMs})
	for id, p := range gs.players {
		if h := gs.playerHistory[id]; h != nil {
			h.Append(HistorySample{X: p.X, Y: p.Y, TimestampMs: gs.simTimeMs})
		}
	}
}

// consumeInputs drains one queued input per player (or, when
// MatchConfig.UseLatestInputOnly is set, the most recently queued input with
// the rest discarded) and integrates their kinematic state with their
// current stat/drag/speed/slow multipliers.
func (gs *GameMatchState) consumeInputs(dt float64) {
	for id, p := range gs.players {
		q := gs.inputQueues[id]
		var in Input
		var ok bool
		if gs.config.UseLatestInputOnly {
			in, ok = q.PopLatest()
		} else {
			in, ok = q.Pop()
		}
		if !ok {
			in = gs.lastAppliedInput[id]
		} else {
			gs.lastAppliedInput[id] = in
			gs.lastSeq[id] = in.Sequence
		}

		kp := IntegratePlayer(
			KinematicPlayer{X: p.X, Y: p.Y, Vx: p.Vx, Vy: p.Vy},
			dt,
			p.Stats.DragMul(),
			gs.EffectiveSpeedMul(id),
			in,
		)
		p.X, p.Y, p.Vx, p.Vy = kp.X, kp.Y, kp.Vx, kp.Vy
	}
}
