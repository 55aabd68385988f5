package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/rudransh61/Physix-go/pkg/rigidbody"
	"github.com/rudransh61/Physix-go/pkg/vector"
)

// Team identifies which side of the pitch a player belongs to.
type Team string

const (
	TeamRed       Team = "red"
	TeamBlue      Team = "blue"
	TeamSpectator Team = "spectator"
	TeamNone      Team = "none"
)

func (t Team) Opponent() Team {
	switch t {
	case TeamRed:
		return TeamBlue
	case TeamBlue:
		return TeamRed
	default:
		return TeamNone
	}
}

// CollisionRect is one static axis-aligned pitch-wall or obstacle collider.
type CollisionRect struct {
	X, Y, Width, Height float64
}

// GoalZone is a named, team-owned scoring rectangle.
type GoalZone struct {
	Name   string
	Team   Team
	X, Y   float64
	Width  float64
	Height float64
}

// Contains reports whether point (x,y) lies inside the goal rectangle.
func (g GoalZone) Contains(x, y float64) bool {
	return x >= g.X && x <= g.X+g.Width && y >= g.Y && y <= g.Y+g.Height
}

// collisionFile mirrors the on-disk collision JSON: {"collisions": [...],
// "polygons": [...]}. Polygons cover non-rectangular obstacles (corner-flag
// posts, curved touchline markers) that a flat rect list can't express; they
// are registered as bounding-box colliders, the same approximation
// StepBallRect/StepSpectatorWalls already apply to every static collider.
type collisionFile struct {
	Collisions []struct {
		X, Y, Width, Height float64
	} `json:"collisions"`
	Polygons [][]struct {
		X, Y float64
	} `json:"polygons"`
}

// goalFile mirrors the on-disk goal JSON: {"goals": [...]}.
type goalFile struct {
	Goals []struct {
		Name   string  `json:"name"`
		Team   string  `json:"team"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"goals"`
}

// RedSpawnPoints and BlueSpawnPoints are compile-time constant team spawns,
// indexed by roster slot.
var RedSpawnPoints = []vector.Vector{
	{X: 300, Y: 400},
	{X: 300, Y: 700},
	{X: 300, Y: 1000},
	{X: 500, Y: 550},
	{X: 500, Y: 850},
	{X: 700, Y: 700},
}

var BlueSpawnPoints = []vector.Vector{
	{X: 3220, Y: 400},
	{X: 3220, Y: 700},
	{X: 3220, Y: 1000},
	{X: 3020, Y: 550},
	{X: 3020, Y: 850},
	{X: 2820, Y: 700},
}

// StaticWorld is the immutable pitch description loaded once at MatchInit.
// Safe for concurrent reads from any goroutine since nothing here mutates
// after LoadStaticWorld returns.
type StaticWorld struct {
	Colliders []*rigidbody.RigidBody
	Goals     []GoalZone
}

// LoadStaticWorld reads the collision-rect and goal-zone JSON data files once
// and builds the immutable static world, read once at startup rather than
// on every match tick, using a flat rect/goal-zone format rather than a
// full Tiled tilemap.
func LoadStaticWorld(logger runtime.Logger, dataDir string) (*StaticWorld, error) {
	world := &StaticWorld{}

	collisionPath := filepath.Join(dataDir, "collisions.json")
	collisionData, err := os.ReadFile(collisionPath)
	if err != nil {
		return nil, fmt.Errorf("read collision file %s: %w", collisionPath, err)
	}
	var cf collisionFile
	if err := json.Unmarshal(collisionData, &cf); err != nil {
		return nil, fmt.Errorf("parse collision file %s: %w", collisionPath, err)
	}
	for _, c := range cf.Collisions {
		world.Colliders = append(world.Colliders, MakeRectangleRigidBody(
			c.X+c.Width/2, c.Y+c.Height/2, c.Width, c.Height,
		))
	}
	for _, poly := range cf.Polygons {
		points := make([]vector.Vector, len(poly))
		for i, p := range poly {
			points[i] = vector.Vector{X: p.X, Y: p.Y}
		}
		if rb, _ := MakePolygonRigidBodyFromPoints(points); rb != nil {
			world.Colliders = append(world.Colliders, rb)
		}
	}

	goalPath := filepath.Join(dataDir, "goals.json")
	goalData, err := os.ReadFile(goalPath)
	if err != nil {
		return nil, fmt.Errorf("read goal file %s: %w", goalPath, err)
	}
	var gf goalFile
	if err := json.Unmarshal(goalData, &gf); err != nil {
		return nil, fmt.Errorf("parse goal file %s: %w", goalPath, err)
	}
	for _, g := range gf.Goals {
		world.Goals = append(world.Goals, GoalZone{
			Name:   g.Name,
			Team:   Team(g.Team),
			X:      g.X,
			Y:      g.Y,
			Width:  g.Width,
			Height: g.Height,
		})
	}

	logger.Info("static world loaded: %d colliders, %d goal zones", len(world.Colliders), len(world.Goals))
	return world, nil
}

// SpawnPoint returns the indexed team spawn, wrapping around the fixed array.
func SpawnPoint(team Team, index int) vector.Vector {
	var arr []vector.Vector
	switch team {
	case TeamRed:
		arr = RedSpawnPoints
	case TeamBlue:
		arr = BlueSpawnPoints
	default:
		return vector.Vector{X: PitchWidth / 2, Y: PitchHeight / 2}
	}
	if len(arr) == 0 {
		return vector.Vector{X: PitchWidth / 2, Y: PitchHeight / 2}
	}
	return arr[index%len(arr)]
}
