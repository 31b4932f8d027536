package engine

type Cell int

const (
	CellWalkable Cell = 0
	CellWall     Cell = 1
)

// Grid is indexed [y][x].
type Grid [][]Cell

func (g Grid) Height() int { return len(g) }

func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) Walkable(p Position) bool {
	if p.Y < 0 || p.Y >= len(g) || p.X < 0 || p.X >= len(g[p.Y]) {
		return false
	}
	return g[p.Y][p.X] == CellWalkable
}

// WalkableCells lists every walkable cell in row-major order.
func (g Grid) WalkableCells() []Position {
	var cells []Position
	for y, row := range g {
		for x, c := range row {
			if c == CellWalkable {
				cells = append(cells, Position{X: x, Y: y})
			}
		}
	}
	return cells
}

func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = append([]Cell(nil), row...)
	}
	return out
}

// Maps is the layout catalog. Never hand these out directly; RandomMap clones.
var Maps = []Grid{
	// Original
	{
		{1, 1, 1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 0, 0, 0, 1},
		{1, 0, 1, 1, 0, 1, 0, 1},
		{1, 0, 0, 0, 0, 1, 0, 1},
		{1, 1, 1, 1, 1, 1, 1, 1},
	},
	// Corridors
	{
		{1, 1, 1, 1, 1, 1, 1, 1},
		{1, 0, 1, 0, 0, 1, 0, 1},
		{1, 0, 0, 0, 0, 0, 0, 1},
		{1, 0, 1, 0, 1, 1, 0, 1},
		{1, 1, 1, 1, 1, 1, 1, 1},
	},
}

func RandomMap(rng Rand) Grid {
	if rng == nil {
		rng = DefaultRand
	}
	return Maps[rng.IntN(len(Maps))].Clone()
}
