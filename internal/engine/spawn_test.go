package engine

import (
	"math/rand/v2"
	"testing"
)

func TestPickSpawn_ReturnsFreeWalkableCell(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	g := Maps[0]
	occupied := []Position{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}}

	for i := 0; i < 200; i++ {
		p := PickSpawn(g, occupied, rng)
		if !g.Walkable(p) {
			t.Fatalf("picked non-walkable cell %+v", p)
		}
		for _, o := range occupied {
			if p == o {
				t.Fatalf("picked occupied cell %+v", p)
			}
		}
	}
}

func TestPickSpawn_CoversEveryFreeCell(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	g := Maps[0]
	seen := map[Position]bool{}

	for i := 0; i < 2000; i++ {
		seen[PickSpawn(g, nil, rng)] = true
	}
	if len(seen) != len(g.WalkableCells()) {
		t.Fatalf("saw %d distinct cells, want %d", len(seen), len(g.WalkableCells()))
	}
}

func TestPickSpawn_FallsBackWhenFull(t *testing.T) {
	g := Maps[1]
	got := PickSpawn(g, g.WalkableCells(), nil)
	if got != DefaultSpawn {
		t.Fatalf("got %+v, want fallback %+v", got, DefaultSpawn)
	}
}

func TestPickSpawn_DoesNotMutateInputs(t *testing.T) {
	g := Maps[0].Clone()
	occupied := []Position{{X: 1, Y: 1}}

	PickSpawn(g, occupied, nil)

	if len(occupied) != 1 || occupied[0] != (Position{X: 1, Y: 1}) {
		t.Fatalf("occupied mutated: %+v", occupied)
	}
	for y := range g {
		for x := range g[y] {
			if g[y][x] != Maps[0][y][x] {
				t.Fatalf("grid mutated at %d,%d", x, y)
			}
		}
	}
}

func TestMaps_TwoBorderedLayouts(t *testing.T) {
	if len(Maps) != 2 {
		t.Fatalf("catalog has %d maps, want 2", len(Maps))
	}
	for i, m := range Maps {
		if len(m) != 5 {
			t.Fatalf("map %d has %d rows, want 5", i, len(m))
		}
		for y, row := range m {
			if len(row) != 8 {
				t.Fatalf("map %d row %d has %d cells, want 8", i, y, len(row))
			}
			for x, cell := range row {
				edge := y == 0 || y == len(m)-1 || x == 0 || x == len(row)-1
				if edge && cell != CellWall {
					t.Fatalf("map %d border open at %d,%d", i, x, y)
				}
			}
		}
	}
}

func TestRandomMap_ReturnsPrivateCopy(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	a := RandomMap(rng)
	a[1][1] = CellWall

	for i, m := range Maps {
		if m[1][1] != CellWalkable {
			t.Fatalf("catalog map %d was mutated", i)
		}
	}
}
