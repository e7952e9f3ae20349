package world

import "fmt"

// Terrain types for map cells.
type Terrain uint8

const (
	TerrainDeepOcean Terrain = iota // Open water and major river channels
	TerrainCoastal                  // Docks, beaches, shoreline
	TerrainPlains                   // Farmland and open country
	TerrainRoad                     // Paved roads
	TerrainMountains                // Hills and high ground
	TerrainUrban                    // Built-up districts
	TerrainMarsh                    // Paddy fields and swamp
)

var terrainNames = [...]string{
	TerrainDeepOcean: "DeepOcean",
	TerrainCoastal:   "Coastal",
	TerrainPlains:    "Plains",
	TerrainRoad:      "Road",
	TerrainMountains: "Mountains",
	TerrainUrban:     "Urban",
	TerrainMarsh:     "Marsh",
}

// String returns the terrain name.
func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return "Unknown"
}

// ParseTerrain maps a terrain name back to its value.
func ParseTerrain(s string) (Terrain, error) {
	for i, name := range terrainNames {
		if name == s {
			return Terrain(i), nil
		}
	}
	return 0, fmt.Errorf("unknown terrain %q", s)
}

// TerrainRule is the static rule set for a terrain type.
type TerrainRule struct {
	MoveCost          int     // AP to enter
	DefenseMultiplier float64 // applied to the defender's strength
	AttackPenalty     int
	StackLimit        int
	VisionRange       int
	VisionBlock       bool
}

// Movement constants shared by the reachability search.
const (
	RailwayMoveCost   = 2 // ground units on a railway cell
	RiverCrossingCost = 8 // extra AP for a ground unit entering a river cell
	MaxTerrainDefense = 2.5
)

var terrainRules = [...]TerrainRule{
	TerrainDeepOcean: {MoveCost: 1, DefenseMultiplier: 1.0, AttackPenalty: 0, StackLimit: 0, VisionRange: 99},
	TerrainCoastal:   {MoveCost: 4, DefenseMultiplier: 0.9, AttackPenalty: -1, StackLimit: 6, VisionRange: 6},
	TerrainPlains:    {MoveCost: 3, DefenseMultiplier: 1.0, AttackPenalty: 0, StackLimit: 4, VisionRange: 5},
	TerrainRoad:      {MoveCost: 2, DefenseMultiplier: 1.0, AttackPenalty: 0, StackLimit: 4, VisionRange: 5},
	TerrainMountains: {MoveCost: 6, DefenseMultiplier: 1.2, AttackPenalty: -1, StackLimit: 3, VisionRange: 3, VisionBlock: true},
	TerrainUrban:     {MoveCost: 5, DefenseMultiplier: 1.5, AttackPenalty: -2, StackLimit: 8, VisionRange: 2, VisionBlock: true},
	TerrainMarsh:     {MoveCost: 9, DefenseMultiplier: 0.8, AttackPenalty: -1, StackLimit: 2, VisionRange: 4},
}

// RuleFor returns the rule for a terrain type. Unknown terrain gets a
// neutral rule (cost 1, no defense bonus).
func RuleFor(t Terrain) TerrainRule {
	if int(t) < len(terrainRules) {
		return terrainRules[t]
	}
	return TerrainRule{MoveCost: 1, DefenseMultiplier: 1.0}
}
