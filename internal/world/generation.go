// Battle map generation: layered simplex noise gives elevation and
// moisture, DeriveTerrain turns them into terrain, and optional passes
// mark the shoreline and trace creeks.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds the terrain thresholds for DeriveTerrain.
type GenConfig struct {
	SeaLevel    float64 // Elevation threshold for open water (0.0–1.0)
	MountainLvl float64 // Elevation threshold for high ground (0.0–1.0)
	MarshLvl    float64 // Moisture threshold for marsh (0.0–1.0)
}

// CellFunc produces the static data for one coordinate. The returned cell's
// Coord is overwritten by Build.
type CellFunc func(coord HexCoord) Cell

// Build creates a map of the given radius, calling fn once per coordinate.
func Build(radius int, fn CellFunc) *Map {
	m := NewMap(radius)
	for q := -radius; q <= radius; q++ {
		for r := -radius; r <= radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}
			cell := fn(coord)
			cell.Coord = coord
			m.Set(&cell)
		}
	}
	return m
}

// Field samples smooth elevation and moisture values for hex coordinates.
type Field struct {
	radius int
	elev   opensimplex.Noise
	moist  opensimplex.Noise
}

// NewField creates a noise field for a map of the given radius.
func NewField(seed int64, radius int) *Field {
	return &Field{
		radius: max(radius, 1),
		elev:   opensimplex.NewNormalized(seed),
		moist:  opensimplex.NewNormalized(seed + 1),
	}
}

// Sample returns elevation and moisture in [0, 1] for a coordinate.
func (f *Field) Sample(coord HexCoord) (elev, moisture float64) {
	// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
	x := float64(coord.Q) + float64(coord.R)*0.5
	y := float64(coord.R) * math.Sqrt(3.0) / 2.0

	elev = octaveNoise(f.elev, x, y, 4, 0.08, 0.5)
	moisture = octaveNoise(f.moist, x, y, 3, 0.06, 0.5)

	// Edge falloff pushes the rim toward open water.
	dist := math.Sqrt(x*x+y*y) / float64(f.radius)
	falloff := 1.0 - math.Pow(dist, 3.5)
	if falloff < 0 {
		falloff = 0
	}
	return elev * falloff, moisture
}

// DeriveTerrain determines terrain from elevation and moisture.
func DeriveTerrain(elev, moisture float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainDeepOcean
	}
	if elev > cfg.MountainLvl {
		return TerrainMountains
	}
	if moisture > cfg.MarshLvl && elev < 0.5 {
		return TerrainMarsh
	}
	return TerrainPlains
}

// MarkCoast converts low land cells adjacent to open water into coast.
func MarkCoast(m *Map) {
	var toMark []*Cell

	for _, cell := range m.Cells() {
		if cell.Terrain == TerrainDeepOcean {
			continue
		}
		for _, n := range m.Neighbors(cell.Coord) {
			if n.Terrain == TerrainDeepOcean {
				toMark = append(toMark, cell)
				break
			}
		}
	}

	for _, cell := range toMark {
		if (cell.Terrain == TerrainPlains || cell.Terrain == TerrainMarsh) && cell.Elevation < 0.5 {
			cell.Terrain = TerrainCoastal
		}
	}
}

// PlaceCreeks traces n creeks from high ground toward the water. n <= 0
// scales the count with the amount of high ground.
func PlaceCreeks(m *Map, seed int64, n int) {
	rng := rand.New(rand.NewSource(seed + 100))

	var sources []HexCoord
	for _, cell := range m.Cells() {
		if cell.Elevation > 0.6 && cell.Terrain != TerrainDeepOcean {
			sources = append(sources, cell.Coord)
		}
	}

	numRivers := n
	if numRivers <= 0 {
		numRivers = min(max(len(sources)/8, 2), 6)
	}

	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > numRivers {
		sources = sources[:numRivers]
	}

	for _, start := range sources {
		traceCreek(m, start)
	}
}

// traceCreek follows the steepest descent from a source cell until it
// reaches water or runs out of downhill cells.
func traceCreek(m *Map, start HexCoord) {
	current := start
	visited := make(map[HexCoord]bool)
	maxSteps := 50

	for step := 0; step < maxSteps; step++ {
		visited[current] = true
		cell := m.Get(current)
		if cell == nil || cell.Terrain == TerrainDeepOcean {
			break
		}

		if cell.Terrain != TerrainMountains && cell.River == RiverNone {
			cell.River = RiverMinor
		}

		var next *Cell
		bestElev := cell.Elevation
		for _, n := range m.Neighbors(current) {
			if visited[n.Coord] {
				continue
			}
			if n.Elevation < bestElev {
				bestElev = n.Elevation
				next = n
			}
		}
		if next == nil {
			break
		}
		current = next.Coord
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
