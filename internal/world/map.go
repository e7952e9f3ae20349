package world

import "fmt"

// RiverClass distinguishes navigable rivers from creeks.
type RiverClass uint8

const (
	RiverNone  RiverClass = iota
	RiverMinor            // Creeks; ground units cross at a cost
	RiverMajor            // Navigable channels
)

func (c RiverClass) String() string {
	switch c {
	case RiverMinor:
		return "Minor"
	case RiverMajor:
		return "Major"
	default:
		return "None"
	}
}

// Cell is a single tile on the battle map. Cells are created once when the
// map is built and then mutated in place.
type Cell struct {
	Coord   HexCoord   `json:"coord"`
	Terrain Terrain    `json:"terrain"`
	Region  RegionID   `json:"region"`
	River   RiverClass `json:"river"`
	Railway bool       `json:"railway"`

	// Dynamic flags set by skills and events.
	Fortified bool `json:"fortified"`
	Blocked   bool `json:"blocked"` // sunk ship or demolished crossing
	Scorched  bool `json:"scorched"`
	Bridged   bool `json:"bridged"`

	// Occupying unit, empty when free.
	UnitID string `json:"unit_id,omitempty"`

	Elevation float64 `json:"elevation"` // 0.0 (sea level) to 1.0 (peak)
}

// HasRiver reports whether the cell carries any river.
func (c *Cell) HasRiver() bool {
	return c.River != RiverNone
}

// Navigable reports whether ships may enter the cell.
func (c *Cell) Navigable() bool {
	return c.Terrain == TerrainDeepOcean || c.Terrain == TerrainCoastal || c.River == RiverMajor
}

// Occupied reports whether a unit stands on the cell.
func (c *Cell) Occupied() bool {
	return c.UnitID != ""
}

// Map holds the battle map as a dense array indexed by axial coordinate.
// A map of radius R contains every cell where max(|q|, |r|, |s|) <= R.
type Map struct {
	Radius int `json:"radius"`
	width  int
	cells  []*Cell
}

// NewMap creates an empty map with the given radius.
func NewMap(radius int) *Map {
	if radius < 0 {
		radius = 0
	}
	width := 2*radius + 1
	return &Map{
		Radius: radius,
		width:  width,
		cells:  make([]*Cell, width*width),
	}
}

func (m *Map) index(coord HexCoord) int {
	return (coord.Q+m.Radius)*m.width + (coord.R + m.Radius)
}

// Get returns the cell at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Cell {
	if !m.InBounds(coord) {
		return nil
	}
	return m.cells[m.index(coord)]
}

// Set places a cell at its coordinate. Out-of-bounds cells are ignored.
func (m *Map) Set(cell *Cell) {
	if cell == nil || !m.InBounds(cell.Coord) {
		return
	}
	m.cells[m.index(cell.Coord)] = cell
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return max(abs(coord.Q), abs(coord.R), abs(coord.S())) <= m.Radius
}

// Cells returns every populated cell in stable (q, r) order.
func (m *Map) Cells() []*Cell {
	out := make([]*Cell, 0, m.CellCount())
	for _, c := range m.cells {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// CellCount returns the number of populated cells.
func (m *Map) CellCount() int {
	n := 0
	for _, c := range m.cells {
		if c != nil {
			n++
		}
	}
	return n
}

// Neighbors returns the in-map cells adjacent to coord.
func (m *Map) Neighbors(coord HexCoord) []*Cell {
	out := make([]*Cell, 0, 6)
	for _, n := range coord.Neighbors() {
		if c := m.Get(n); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, cells=%d)", m.Radius, m.CellCount())
}
