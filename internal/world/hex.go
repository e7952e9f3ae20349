// Package world provides the hex grid, terrain, and map data structures.
// Uses axial coordinates (q, r) for the hex grid.
package world

import "math"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// Add returns the component-wise sum of two coordinates.
func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R}
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = HexCoord{Q: h.Q + dir.Q, R: h.R + dir.R}
	}
	return result
}

// IsNeighbor reports whether b is one of the six cells adjacent to a.
func IsNeighbor(a, b HexCoord) bool {
	return Distance(a, b) == 1
}

// Distance returns the hex distance between two coordinates:
// (|dq| + |dr| + |ds|) / 2.
func Distance(a, b HexCoord) int {
	return (abs(a.Q-b.Q) + abs(a.R-b.R) + abs(a.S()-b.S())) / 2
}

// Ring returns every coordinate at exactly the given distance from center.
// Radius 0 yields the center itself.
func Ring(center HexCoord, radius int) []HexCoord {
	if radius <= 0 {
		return []HexCoord{center}
	}
	result := make([]HexCoord, 0, 6*radius)
	for dq := -radius; dq <= radius; dq++ {
		for dr := -radius; dr <= radius; dr++ {
			ds := -dq - dr
			if max(abs(dq), abs(dr), abs(ds)) == radius {
				result = append(result, HexCoord{Q: center.Q + dq, R: center.R + dr})
			}
		}
	}
	return result
}

// Line returns the cells on the straight line from a to b, both inclusive,
// using cube interpolation with rounding.
func Line(a, b HexCoord) []HexCoord {
	n := Distance(a, b)
	if n == 0 {
		return []HexCoord{a}
	}
	result := make([]HexCoord, 0, n+1)
	// Nudge to keep rounding stable on cell edges.
	const eps = 1e-6
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		q := float64(a.Q) + eps + (float64(b.Q)-float64(a.Q))*t
		r := float64(a.R) + eps + (float64(b.R)-float64(a.R))*t
		result = append(result, roundCube(q, r, -q-r))
	}
	return result
}

func roundCube(q, r, s float64) HexCoord {
	rq := math.Round(q)
	rr := math.Round(r)
	rs := math.Round(s)

	dq := math.Abs(rq - q)
	dr := math.Abs(rr - r)
	ds := math.Abs(rs - s)

	if dq > dr && dq > ds {
		rq = -rr - rs
	} else if dr > ds {
		rr = -rq - rs
	}
	return HexCoord{Q: int(rq), R: int(rr)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
