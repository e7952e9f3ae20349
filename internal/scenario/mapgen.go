package scenario

import "github.com/talgya/redstrait/internal/world"

// CellFunc returns the per-coordinate generator for the noise and region
// pass. Features are painted afterwards by BuildMap.
func (s *Scenario) CellFunc() world.CellFunc {
	field := world.NewField(s.Terrain.Seed, s.Radius)
	cfg := world.GenConfig{
		SeaLevel:    s.Terrain.SeaLevel,
		MountainLvl: s.Terrain.MountainLvl,
		MarshLvl:    s.Terrain.MarshLvl,
	}
	return func(c world.HexCoord) world.Cell {
		elev, moist := field.Sample(c)
		cell := world.Cell{
			Terrain:   world.DeriveTerrain(elev, moist, cfg),
			Elevation: elev,
		}
		if r, ok := s.nearestRegion(c); ok {
			cell.Region = r.ID
			if r.Terrain != nil {
				cell.Terrain = *r.Terrain
			}
		}
		return cell
	}
}

// BuildMap generates the battle map.
func (s *Scenario) BuildMap() *world.Map {
	m := world.Build(s.Radius, s.CellFunc())
	if s.Terrain.Coast {
		world.MarkCoast(m)
	}
	if s.Terrain.Creeks > 0 {
		world.PlaceCreeks(m, s.Terrain.Seed, s.Terrain.Creeks)
	}
	for _, f := range s.Features {
		for _, c := range f.cells(m) {
			f.paint(c)
		}
	}
	return m
}

func (s *Scenario) nearestRegion(c world.HexCoord) (Region, bool) {
	var best Region
	bestDist := -1
	for _, r := range s.Regions {
		d := world.Distance(c, r.Center)
		if bestDist < 0 || d < bestDist {
			best, bestDist = r, d
		}
	}
	return best, bestDist >= 0
}

// cells returns the in-map cells under the feature's polyline, widened by
// Width, without duplicates.
func (f Feature) cells(m *world.Map) []*world.Cell {
	seen := make(map[world.HexCoord]bool)
	var out []*world.Cell
	add := func(c world.HexCoord) {
		if seen[c] {
			return
		}
		seen[c] = true
		if cell := m.Get(c); cell != nil {
			out = append(out, cell)
		}
	}

	var line []world.HexCoord
	if len(f.Points) == 1 {
		line = f.Points
	}
	for i := 1; i < len(f.Points); i++ {
		line = append(line, world.Line(f.Points[i-1], f.Points[i])...)
	}
	for _, c := range line {
		add(c)
		for ring := 1; ring <= f.Width; ring++ {
			for _, n := range world.Ring(c, ring) {
				add(n)
			}
		}
	}
	return out
}

func (f Feature) paint(c *world.Cell) {
	switch f.Kind {
	case FeatureTerrain:
		c.Terrain = f.Terrain
	case FeatureRiver:
		if c.River == world.RiverNone {
			c.River = world.RiverMinor
		}
	case FeatureMajorRiver:
		c.Terrain = world.TerrainDeepOcean
		c.River = world.RiverMajor
	case FeatureRailway:
		if c.Terrain != world.TerrainDeepOcean {
			c.Railway = true
		}
	}
	if f.Region != "" {
		c.Region = f.Region
	}
}
