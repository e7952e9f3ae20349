// Package scenario holds the static setup for a battle: map shape, regions,
// painted features, starting units, doctrines, and the scripted event list.
// Scenarios are loaded from YAML; a default one is embedded.
package scenario

import (
	"errors"
	"fmt"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/units"
	"github.com/talgya/redstrait/internal/world"
)

// TurnsPerDay converts event durations given in days to turns.
const TurnsPerDay = 4

// Scenario is a fully resolved battle setup.
type Scenario struct {
	ID       string
	Name     string
	Radius   int
	MaxTurns int
	Defender world.Faction // wins when the turn limit is reached

	Objective     Objective
	KeyRegions    []world.RegionID // first entry pays CP and VP
	LockedRegions []world.RegionID

	Terrain   TerrainConfig
	Regions   []Region
	Features  []Feature
	Units     []Placement
	Events    []Event
	Doctrines map[world.Faction]buffs.DoctrineSet
	StartCP   map[world.Faction]int
}

// Objective is the capture condition for the attacking side.
type Objective struct {
	Region    world.RegionID
	Faction   world.Faction
	Threshold int // attacker units needed with no defenders left
}

// TerrainConfig drives the noise pass that lays down base terrain.
type TerrainConfig struct {
	Seed        int64
	SeaLevel    float64
	MountainLvl float64
	MarshLvl    float64
	Coast       bool // low land next to open water becomes Coastal
	Creeks      int  // creeks traced downhill from high ground
}

// Region is a named area. Cells belong to the region with the nearest
// center.
type Region struct {
	ID      world.RegionID
	Center  world.HexCoord
	Terrain *world.Terrain // overrides noise terrain when set
	Owner   world.Faction
}

// FeatureKind selects how a feature paints the cells under it.
type FeatureKind uint8

const (
	FeatureTerrain    FeatureKind = iota // repaint terrain
	FeatureRiver                         // creek; terrain kept
	FeatureMajorRiver                    // navigable channel
	FeatureRailway
)

var featureNames = [...]string{
	FeatureTerrain:    "terrain",
	FeatureRiver:      "river",
	FeatureMajorRiver: "major_river",
	FeatureRailway:    "railway",
}

func (k FeatureKind) String() string {
	if int(k) < len(featureNames) {
		return featureNames[k]
	}
	return "unknown"
}

// ParseFeatureKind maps a feature name to its value.
func ParseFeatureKind(s string) (FeatureKind, error) {
	for i, n := range featureNames {
		if n == s {
			return FeatureKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feature kind %q", s)
}

// Feature is a polyline painted onto the map after the noise pass.
type Feature struct {
	Kind    FeatureKind
	Terrain world.Terrain  // FeatureTerrain only
	Region  world.RegionID // optional region override
	Points  []world.HexCoord
	Width   int // extra cells painted on each side of the line
}

// Placement is a starting unit.
type Placement struct {
	Template string
	Owner    world.Faction
	At       world.HexCoord
	Name     string
}

// Event is a scripted occurrence fired at the start of a turn.
type Event struct {
	ID          string
	Turn        int
	Title       string
	Description string
	Silent      bool

	Buff           *EventBuff
	Spawns         []Spawn
	Reinforcements []Reinforcement
	Unlocks        []world.RegionID
}

// EventBuff is the timed modifier an event installs.
type EventBuff struct {
	Title   string
	Kind    buffs.Kind
	Faction world.Faction
	Days    float64
	Add     map[world.Faction]buffs.Modifiers
	Mul     map[world.Faction]buffs.Modifiers
	Region  world.RegionID
	Value   float64
}

// Turns returns the buff duration in turns, at least one.
func (b *EventBuff) Turns() int {
	return max(1, int(b.Days*TurnsPerDay))
}

// Spawn places Count copies of a template as close to Near as possible.
type Spawn struct {
	Template string
	Owner    world.Faction
	Count    int
	Near     world.HexCoord
}

// Reinforcement is a named unit with scaled stats, plus optional
// unscaled escorts placed around it.
type Reinforcement struct {
	Template string
	Owner    world.Faction
	At       world.HexCoord
	Name     string
	Scale    float64
	Extra    int
}

// Region returns the region with the given id.
func (s *Scenario) Region(id world.RegionID) (Region, bool) {
	for _, r := range s.Regions {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// IsKeyRegion reports whether first entry into id is rewarded.
func (s *Scenario) IsKeyRegion(id world.RegionID) bool {
	for _, k := range s.KeyRegions {
		if k == id {
			return true
		}
	}
	return false
}

// Validate checks every cross reference in the scenario.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Radius <= 0 {
		errs = append(errs, fmt.Errorf("radius must be positive, got %d", s.Radius))
	}
	if s.MaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("max_turns must be positive, got %d", s.MaxTurns))
	}
	if len(s.Regions) == 0 {
		errs = append(errs, errors.New("no regions"))
	}

	known := make(map[world.RegionID]bool, len(s.Regions))
	for _, r := range s.Regions {
		known[r.ID] = true
	}
	for _, f := range s.Features {
		if f.Region != "" {
			known[f.Region] = true
		}
		if len(f.Points) == 0 {
			errs = append(errs, fmt.Errorf("%s feature has no points", f.Kind))
		}
	}
	checkRegion := func(what string, id world.RegionID) {
		if !known[id] {
			errs = append(errs, fmt.Errorf("%s: unknown region %q", what, id))
		}
	}
	if s.Objective.Region != "" {
		checkRegion("objective", s.Objective.Region)
	}
	for _, id := range s.KeyRegions {
		checkRegion("key region", id)
	}

	checkTemplate := func(what, id string) {
		if _, ok := units.Lookup(id); !ok {
			errs = append(errs, fmt.Errorf("%s: unknown template %q", what, id))
		}
	}
	inMap := func(c world.HexCoord) bool {
		return max(abs(c.Q), abs(c.R), abs(c.S())) <= s.Radius
	}
	for i, p := range s.Units {
		checkTemplate(fmt.Sprintf("unit %d", i), p.Template)
		if !inMap(p.At) {
			errs = append(errs, fmt.Errorf("unit %d (%s) outside map at %v", i, p.Template, p.At))
		}
	}

	seen := make(map[string]bool, len(s.Events))
	for _, e := range s.Events {
		if e.ID == "" {
			errs = append(errs, errors.New("event without id"))
		} else if seen[e.ID] {
			errs = append(errs, fmt.Errorf("duplicate event %q", e.ID))
		}
		seen[e.ID] = true
		if e.Turn < 1 {
			errs = append(errs, fmt.Errorf("event %s: turn must be >= 1", e.ID))
		}
		for _, sp := range e.Spawns {
			checkTemplate("event "+e.ID, sp.Template)
		}
		for _, rf := range e.Reinforcements {
			checkTemplate("event "+e.ID, rf.Template)
		}
		if e.Buff != nil && e.Buff.Region != "" {
			checkRegion("event "+e.ID, e.Buff.Region)
		}
	}
	return errors.Join(errs...)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
