package main

import (
	"math"

	"github.com/rudransh61/Physix-go/pkg/vector"
)

// Kinematic kernel constants, authoritative on both server and client.
// Copied exactly; never tune these per-match, only the values in SkillTuning
// and MatchConfig are designer-adjustable.
const (
	PitchWidth  = 3520.0
	PitchHeight = 1600.0

	BallRadius   = 30.0
	PlayerRadius = 30.0

	BallDrag   = 1.0
	PlayerDrag = 4.0

	PlayerAccel    = 1600.0
	PlayerMaxSpeed = 600.0

	BallBounce = 0.7

	FixedTimestepSeconds = 0.016
	FixedTimestepMs      = 16

	KickCooldownMs = 300
)

// Input is the four-directional movement state sampled from a client at a
// given sequence number.
type Input struct {
	Up, Down, Left, Right bool
	Sequence              uint64
}

// PlayerStats are the three allocatable attributes; their sum is always 15.
type PlayerStats struct {
	Speed      int
	KickPower  int
	Dribbling  int
}

func (s PlayerStats) SpeedMul() float64 {
	return 1 + 0.1*float64(s.Speed)
}

func (s PlayerStats) KickPowerMul() float64 {
	return 1 + 0.1*float64(s.KickPower)
}

func (s PlayerStats) DragMul() float64 {
	mul := 1 - 0.05*float64(s.Dribbling)
	if mul < 0.5 {
		return 0.5
	}
	return mul
}

// Valid reports whether the stat allocation satisfies the invariant
// sum(speed, kickPower, dribbling) == 15, each >= 0.
func (s PlayerStats) Valid() bool {
	if s.Speed < 0 || s.KickPower < 0 || s.Dribbling < 0 {
		return false
	}
	return s.Speed+s.KickPower+s.Dribbling == 15
}

// KinematicBall is the minimal state the ball-integration function needs.
type KinematicBall struct {
	X, Y   float64
	Vx, Vy float64
}

// IntegrateBall advances ball position/velocity by dt seconds, applying
// exponential drag and clamping to the pitch interior in fixed order
// left, right, top, bottom. Pure function: no allocation, no side effects
// beyond the returned value, safe to run identically on server and client.
func IntegrateBall(b KinematicBall, dt float64) KinematicBall {
	dragFactor := math.Exp(-BallDrag * dt)
	b.Vx *= dragFactor
	b.Vy *= dragFactor

	b.X += b.Vx * dt
	b.Y += b.Vy * dt

	b.X, b.Y, b.Vx, b.Vy = ClampBallToPitch(b.X, b.Y, b.Vx, b.Vy)

	return b
}

// ClampBallToPitch reflects (x, y, vx, vy) back inside the pitch interior,
// fixed order left, right, top, bottom. Called from IntegrateBall after
// integration, and again after collision resolution runs in simulate.go,
// since a static collider near a wall can push the ball outside
// [r, W-r]x[r, H-r] on its own.
func ClampBallToPitch(x, y, vx, vy float64) (float64, float64, float64, float64) {
	if x-BallRadius < 0 {
		x = BallRadius
		vx = -vx * BallBounce
	}
	if x+BallRadius > PitchWidth {
		x = PitchWidth - BallRadius
		vx = -vx * BallBounce
	}
	if y-BallRadius < 0 {
		y = BallRadius
		vy = -vy * BallBounce
	}
	if y+BallRadius > PitchHeight {
		y = PitchHeight - BallRadius
		vy = -vy * BallBounce
	}
	return x, y, vx, vy
}

// KinematicPlayer is the minimal state the player-integration function needs.
type KinematicPlayer struct {
	X, Y   float64
	Vx, Vy float64
}

// IntegratePlayer advances player position/velocity by dt seconds given the
// current input and the caller-supplied drag/speed multipliers (the latter
// folding in stat allocation and any active skill effect such as slowdown).
func IntegratePlayer(p KinematicPlayer, dt, dragMul, speedMul float64, in Input) KinematicPlayer {
	accel := PlayerAccel * speedMul
	maxSpeed := PlayerMaxSpeed * speedMul

	if in.Up {
		p.Vy -= accel * dt
	}
	if in.Down {
		p.Vy += accel * dt
	}
	if in.Left {
		p.Vx -= accel * dt
	}
	if in.Right {
		p.Vx += accel * dt
	}

	dragFactor := math.Exp(-PlayerDrag * dragMul * dt)
	p.Vx *= dragFactor
	p.Vy *= dragFactor

	speed := math.Hypot(p.Vx, p.Vy)
	if speed > maxSpeed && speed > 0 {
		scale := maxSpeed / speed
		p.Vx *= scale
		p.Vy *= scale
	}

	p.X += p.Vx * dt
	p.Y += p.Vy * dt

	if p.X-PlayerRadius < 0 {
		p.X = PlayerRadius
		p.Vx = 0
	}
	if p.X+PlayerRadius > PitchWidth {
		p.X = PitchWidth - PlayerRadius
		p.Vx = 0
	}
	if p.Y-PlayerRadius < 0 {
		p.Y = PlayerRadius
		p.Vy = 0
	}
	if p.Y+PlayerRadius > PitchHeight {
		p.Y = PitchHeight - PlayerRadius
		p.Vy = 0
	}

	return p
}

// KickVelocity computes the initial ball velocity for a kick struck at angle
// theta (radians) with the given base power, scaled by the kicker's kick
// power multiplier and, when metavision is active, the caller-supplied
// metavision kick-power multiplier (tunable, not a kernel constant).
func KickVelocity(theta, basePower, kickPowerMul float64, hasMetavision bool, metavisionMul float64) vector.Vector {
	mul := kickPowerMul
	if hasMetavision {
		mul *= metavisionMul
	}
	return vector.Vector{
		X: math.Cos(theta) * basePower * mul,
		Y: math.Sin(theta) * basePower * mul,
	}
}

// pitchCenter returns the fixed pitch-centre reset point for the ball.
func pitchCenter() (float64, float64) {
	return PitchWidth / 2, PitchHeight / 2
}
