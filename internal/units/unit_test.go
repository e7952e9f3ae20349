package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/redstrait/internal/entropy"
	"github.com/talgya/redstrait/internal/world"
)

func TestEfficiency(t *testing.T) {
	tests := []struct {
		name      string
		hp, maxHP int
		want      float64
	}{
		{"full health", 20, 20, 1.0},
		{"half health", 10, 20, 0.8},
		{"nearly dead", 1, 100, 0.604},
		{"zero hp", 0, 20, 0.6},
		{"no max", 5, 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Efficiency(tt.hp, tt.maxHP), 1e-9)
		})
	}
}

func TestEfficiencyNeverBelowFloor(t *testing.T) {
	for hp := 1; hp <= 50; hp++ {
		e := Efficiency(hp, 50)
		assert.Greater(t, e, 0.6)
		assert.LessOrEqual(t, e, 1.0)
	}
}

func TestLoseSteps(t *testing.T) {
	u, err := Spawn("NRA_Regular_Infantry", world.FactionBlue, world.HexCoord{}, "", entropy.New(1))
	require.NoError(t, err)
	require.Equal(t, 20, u.HP)
	require.Equal(t, 2, u.Steps)

	u.LoseSteps(1)
	assert.Equal(t, 10, u.HP)
	assert.Equal(t, 1, u.Steps)
	assert.True(t, u.Alive())

	u.LoseSteps(4)
	assert.Equal(t, 0, u.HP)
	assert.Equal(t, 0, u.Steps)
	assert.False(t, u.Alive())
}

func TestTakeDamageRecomputesSteps(t *testing.T) {
	u, err := Spawn("IJN_Cruiser", world.FactionRed, world.HexCoord{}, "", entropy.New(1))
	require.NoError(t, err)

	u.TakeDamage(15)
	assert.Equal(t, 25, u.HP)
	assert.Equal(t, 3, u.Steps)

	u.TakeDamage(30)
	assert.Equal(t, 0, u.HP)
	assert.Equal(t, 0, u.Steps)
}

func TestHeal(t *testing.T) {
	u, err := Spawn("NRA_Elite_Infantry", world.FactionBlue, world.HexCoord{}, "", entropy.New(1))
	require.NoError(t, err)
	u.TakeDamage(12)
	require.Equal(t, 8, u.HP)
	require.Equal(t, 1, u.Steps)

	u.Heal(5)
	assert.Equal(t, 13, u.HP)
	assert.Equal(t, 2, u.Steps)

	u.Heal(50)
	assert.Equal(t, u.MaxHP, u.HP)
}

func TestSpawnDeterministicIDs(t *testing.T) {
	a, err := Spawn("IJA_Infantry", world.FactionRed, world.HexCoord{Q: 1}, "", entropy.New(9))
	require.NoError(t, err)
	b, err := Spawn("IJA_Infantry", world.FactionRed, world.HexCoord{Q: 1}, "", entropy.New(9))
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "Army Infantry", a.Name)
	assert.True(t, a.Traits.Has(TraitRuthless))

	_, err = Spawn("Nope", world.FactionRed, world.HexCoord{}, "", nil)
	assert.Error(t, err)
}

func TestReinforced(t *testing.T) {
	base, ok := Lookup("NRA_Hero_Bn")
	require.True(t, ok)

	r := base.Reinforced(1.5)
	assert.Equal(t, 15, r.MaxHP)
	assert.Equal(t, 2, r.MaxSteps)
	assert.Equal(t, 9, r.CombatStrength)
	assert.Equal(t, 12, r.SoftAttack)
	assert.Equal(t, base.MaxAP, r.MaxAP)
}

func TestTraitSet(t *testing.T) {
	s := Traits(TraitRuthless, TraitArmored)
	assert.True(t, s.Has(TraitRuthless))
	assert.False(t, s.Has(TraitElite))
	assert.Equal(t, "Ruthless,Armored", s.String())

	parsed, err := ParseTraits([]string{"Ruthless", "Armored"})
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	_, err = ParseTraits([]string{"Flying"})
	assert.Error(t, err)
}

func TestTemplatesAreConsistent(t *testing.T) {
	for _, id := range TemplateIDs() {
		tmpl, ok := Lookup(id)
		require.True(t, ok)
		assert.Equal(t, id, tmpl.ID)
		assert.Positive(t, tmpl.MaxHP, id)
		assert.LessOrEqual(t, tmpl.MaxHP, tmpl.MaxSteps*HPPerStep, id)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 4, Clamp(9, -2, 4))
	assert.Equal(t, -2, Clamp(-7, -2, 4))
	assert.Equal(t, 0.5, Clamp(0.1, 0.5, 1.5))
}
