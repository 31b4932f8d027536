package engine

type Direction string

const (
	DirNone      Direction = "none"
	DirLeft      Direction = "left"
	DirUpLeft    Direction = "up-left"
	DirUp        Direction = "up"
	DirUpRight   Direction = "up-right"
	DirRight     Direction = "right"
	DirDownRight Direction = "down-right"
	DirDown      Direction = "down"
	DirDownLeft  Direction = "down-left"
)

var deltas = map[Direction][2]int{
	DirNone:      {0, 0},
	DirLeft:      {-1, 0},
	DirUpLeft:    {-1, -1},
	DirUp:        {0, -1},
	DirUpRight:   {1, -1},
	DirRight:     {1, 0},
	DirDownRight: {1, 1},
	DirDown:      {0, 1},
	DirDownLeft:  {-1, 1},
}

func ParseDirection(s string) (Direction, bool) {
	d := Direction(s)
	return d, d.Valid()
}

func (d Direction) Valid() bool {
	_, ok := deltas[d]
	return ok
}

// Delta is the unit step for d. y grows downwards.
func (d Direction) Delta() (dx, dy int) {
	v := deltas[d]
	return v[0], v[1]
}
