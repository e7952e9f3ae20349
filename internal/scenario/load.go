package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/redstrait/internal/buffs"
	"github.com/talgya/redstrait/internal/world"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the embedded Shanghai 1937 scenario.
func Default() (*Scenario, error) {
	s, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("default scenario: %w", err)
	}
	return s, nil
}

// Load reads a scenario file. An empty path yields the default scenario.
func Load(path string) (*Scenario, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	s, err := f.resolve()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

type coord [2]int

func (c coord) hex() world.HexCoord {
	return world.HexCoord{Q: c[0], R: c[1]}
}

// file mirrors the YAML layout. Names are resolved into enums by resolve.
type file struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Radius   int    `yaml:"radius"`
	MaxTurns int    `yaml:"max_turns"`
	Defender string `yaml:"defender"`

	Objective struct {
		Region    string `yaml:"region"`
		Faction   string `yaml:"faction"`
		Threshold int    `yaml:"threshold"`
	} `yaml:"objective"`

	KeyRegions    []string `yaml:"key_regions"`
	LockedRegions []string `yaml:"locked_regions"`

	Terrain struct {
		Seed          int64   `yaml:"seed"`
		SeaLevel      float64 `yaml:"sea_level"`
		MountainLevel float64 `yaml:"mountain_level"`
		MarshLevel    float64 `yaml:"marsh_level"`
		Coast         bool    `yaml:"coast"`
		Creeks        int     `yaml:"creeks"`
	} `yaml:"terrain"`

	Regions []struct {
		ID      string `yaml:"id"`
		Center  coord  `yaml:"center"`
		Terrain string `yaml:"terrain"`
		Owner   string `yaml:"owner"`
	} `yaml:"regions"`

	Features []struct {
		Kind    string  `yaml:"kind"`
		Terrain string  `yaml:"terrain"`
		Region  string  `yaml:"region"`
		Points  []coord `yaml:"points"`
		Width   int     `yaml:"width"`
	} `yaml:"features"`

	Doctrines map[string][]string `yaml:"doctrines"`
	StartCP   map[string]int      `yaml:"start_cp"`

	Units []struct {
		Template string `yaml:"template"`
		Owner    string `yaml:"owner"`
		At       coord  `yaml:"at"`
		Name     string `yaml:"name"`
	} `yaml:"units"`

	Events []eventDTO `yaml:"events"`
}

type eventDTO struct {
	ID          string `yaml:"id"`
	Turn        int    `yaml:"turn"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Silent      bool   `yaml:"silent"`

	Buff *struct {
		Title   string                        `yaml:"title"`
		Kind    string                        `yaml:"kind"`
		Faction string                        `yaml:"faction"`
		Days    float64                       `yaml:"days"`
		Add     map[string]map[string]float64 `yaml:"add"`
		Mul     map[string]map[string]float64 `yaml:"mul"`
		Region  string                        `yaml:"region"`
		Value   float64                       `yaml:"value"`
	} `yaml:"buff"`

	Spawns []struct {
		Template string `yaml:"template"`
		Owner    string `yaml:"owner"`
		Count    int    `yaml:"count"`
		Near     coord  `yaml:"near"`
	} `yaml:"spawns"`

	Reinforcements []struct {
		Template string  `yaml:"template"`
		Owner    string  `yaml:"owner"`
		At       coord   `yaml:"at"`
		Name     string  `yaml:"name"`
		Scale    float64 `yaml:"scale"`
		Extra    int     `yaml:"extra"`
	} `yaml:"reinforcements"`

	Unlocks []string `yaml:"unlocks"`
}

// resolver accumulates name lookup failures so one pass reports them all.
type resolver struct {
	errs []error
}

func (r *resolver) faction(what, s string) world.Faction {
	f, err := world.ParseFaction(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", what, err))
	}
	return f
}

func (r *resolver) terrain(what, s string) world.Terrain {
	t, err := world.ParseTerrain(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", what, err))
	}
	return t
}

func (r *resolver) modifiers(what string, in map[string]map[string]float64) map[world.Faction]buffs.Modifiers {
	if len(in) == 0 {
		return nil
	}
	out := make(map[world.Faction]buffs.Modifiers, len(in))
	for fname, stats := range in {
		f := r.faction(what, fname)
		mods := make(buffs.Modifiers, len(stats))
		for sname, v := range stats {
			stat, err := buffs.ParseStat(sname)
			if err != nil {
				r.errs = append(r.errs, fmt.Errorf("%s: %w", what, err))
				continue
			}
			mods[stat] = v
		}
		out[f] = mods
	}
	return out
}

func regionIDs(in []string) []world.RegionID {
	out := make([]world.RegionID, len(in))
	for i, s := range in {
		out[i] = world.RegionID(s)
	}
	return out
}

func (f *file) resolve() (*Scenario, error) {
	var r resolver
	s := &Scenario{
		ID:            f.ID,
		Name:          f.Name,
		Radius:        f.Radius,
		MaxTurns:      f.MaxTurns,
		Defender:      r.faction("defender", f.Defender),
		KeyRegions:    regionIDs(f.KeyRegions),
		LockedRegions: regionIDs(f.LockedRegions),
		Terrain: TerrainConfig{
			Seed:        f.Terrain.Seed,
			SeaLevel:    f.Terrain.SeaLevel,
			MountainLvl: f.Terrain.MountainLevel,
			MarshLvl:    f.Terrain.MarshLevel,
			Coast:       f.Terrain.Coast,
			Creeks:      f.Terrain.Creeks,
		},
		Doctrines: make(map[world.Faction]buffs.DoctrineSet),
		StartCP:   make(map[world.Faction]int),
	}
	if f.Objective.Region != "" {
		s.Objective = Objective{
			Region:    world.RegionID(f.Objective.Region),
			Faction:   r.faction("objective", f.Objective.Faction),
			Threshold: f.Objective.Threshold,
		}
	}

	for _, reg := range f.Regions {
		out := Region{
			ID:     world.RegionID(reg.ID),
			Center: reg.Center.hex(),
			Owner:  world.FactionNeutral,
		}
		if reg.Terrain != "" {
			t := r.terrain("region "+reg.ID, reg.Terrain)
			out.Terrain = &t
		}
		if reg.Owner != "" {
			out.Owner = r.faction("region "+reg.ID, reg.Owner)
		}
		s.Regions = append(s.Regions, out)
	}

	for i, ft := range f.Features {
		what := fmt.Sprintf("feature %d", i)
		kind, err := ParseFeatureKind(ft.Kind)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s: %w", what, err))
		}
		out := Feature{Kind: kind, Region: world.RegionID(ft.Region), Width: ft.Width}
		if kind == FeatureTerrain {
			out.Terrain = r.terrain(what, ft.Terrain)
		}
		for _, p := range ft.Points {
			out.Points = append(out.Points, p.hex())
		}
		s.Features = append(s.Features, out)
	}

	for fname, names := range f.Doctrines {
		fac := r.faction("doctrines", fname)
		set := s.Doctrines[fac]
		for _, n := range names {
			d, err := buffs.ParseDoctrine(n)
			if err != nil {
				r.errs = append(r.errs, fmt.Errorf("doctrines: %w", err))
				continue
			}
			set = set.With(d)
		}
		s.Doctrines[fac] = set
	}
	for fname, cp := range f.StartCP {
		s.StartCP[r.faction("start_cp", fname)] = cp
	}

	for i, u := range f.Units {
		s.Units = append(s.Units, Placement{
			Template: u.Template,
			Owner:    r.faction(fmt.Sprintf("unit %d", i), u.Owner),
			At:       u.At.hex(),
			Name:     u.Name,
		})
	}

	for _, e := range f.Events {
		s.Events = append(s.Events, e.resolve(&r))
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *eventDTO) resolve(r *resolver) Event {
	what := "event " + e.ID
	out := Event{
		ID:          e.ID,
		Turn:        e.Turn,
		Title:       e.Title,
		Description: e.Description,
		Silent:      e.Silent,
		Unlocks:     regionIDs(e.Unlocks),
	}
	if b := e.Buff; b != nil {
		eb := &EventBuff{
			Title:   b.Title,
			Faction: world.FactionNeutral,
			Days:    b.Days,
			Add:     r.modifiers(what, b.Add),
			Mul:     r.modifiers(what, b.Mul),
			Region:  world.RegionID(b.Region),
			Value:   b.Value,
		}
		if b.Kind != "" {
			k, err := buffs.ParseKind(b.Kind)
			if err != nil {
				r.errs = append(r.errs, fmt.Errorf("%s: %w", what, err))
			}
			eb.Kind = k
		}
		if b.Faction != "" {
			eb.Faction = r.faction(what, b.Faction)
		}
		out.Buff = eb
	}
	for _, sp := range e.Spawns {
		out.Spawns = append(out.Spawns, Spawn{
			Template: sp.Template,
			Owner:    r.faction(what, sp.Owner),
			Count:    max(sp.Count, 1),
			Near:     sp.Near.hex(),
		})
	}
	for _, rf := range e.Reinforcements {
		scale := rf.Scale
		if scale <= 0 {
			scale = 1
		}
		out.Reinforcements = append(out.Reinforcements, Reinforcement{
			Template: rf.Template,
			Owner:    r.faction(what, rf.Owner),
			At:       rf.At.hex(),
			Name:     rf.Name,
			Scale:    scale,
			Extra:    rf.Extra,
		})
	}
	return out
}
