package engine

import "math/rand/v2"

// DefaultSpawn is returned when no free cell is left. Callers must tolerate a shared cell.
var DefaultSpawn = Position{X: 1, Y: 1}

type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

var DefaultRand Rand = globalRand{}

// PickSpawn returns a walkable cell not in occupied, chosen uniformly. Inputs are not mutated.
func PickSpawn(g Grid, occupied []Position, rng Rand) Position {
	if rng == nil {
		rng = DefaultRand
	}

	taken := make(map[Position]bool, len(occupied))
	for _, p := range occupied {
		taken[p] = true
	}

	var free []Position
	for _, cell := range g.WalkableCells() {
		if !taken[cell] {
			free = append(free, cell)
		}
	}

	if len(free) == 0 {
		return DefaultSpawn
	}
	return free[rng.IntN(len(free))]
}
