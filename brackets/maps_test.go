package brackets

import (
	"testing"

	"github.com/Dosada05/lobby-tracker/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAssigner_OnlyCatalogPairs(t *testing.T) {
	catalog := models.DefaultCatalog()
	valid := make(map[MapMode]bool)
	for _, pool := range catalog {
		for _, m := range pool.Maps {
			valid[MapMode{Map: m, Mode: pool.Mode}] = true
		}
	}

	a := NewMapAssigner(catalog, seeded(3))
	for _, mm := range a.Assign(50) {
		assert.True(t, valid[mm], "unexpected pair %+v", mm)
	}
	assert.Equal(t, 11, a.Capacity())
}

func TestMapAssigner_NoRepeatBeforeModeIsExhausted(t *testing.T) {
	catalog := models.DefaultCatalog()
	poolSize := make(map[string]int)
	for _, pool := range catalog {
		poolSize[pool.Mode] = len(pool.Maps)
	}

	for seed := uint64(0); seed < 200; seed++ {
		a := NewMapAssigner(catalog, seeded(seed))
		used := make(map[string]map[string]bool)
		for _, mm := range a.Assign(15) {
			if used[mm.Mode] == nil {
				used[mm.Mode] = make(map[string]bool)
			}
			if used[mm.Mode][mm.Map] {
				require.Equal(t, poolSize[mm.Mode], len(used[mm.Mode]),
					"seed %d: %s repeated on %s before the pool was exhausted", seed, mm.Map, mm.Mode)
			}
			used[mm.Mode][mm.Map] = true
		}
	}
}

func TestMapAssigner_SingleModeCatalog(t *testing.T) {
	catalog := []models.ModePool{{Mode: "Hardpoint", Maps: []string{"A", "B", "C"}}}
	a := NewMapAssigner(catalog, seeded(11))

	got := a.Assign(5)
	require.Len(t, got, 5)

	first := map[string]bool{}
	for _, mm := range got[:3] {
		first[mm.Map] = true
	}
	assert.Len(t, first, 3, "the whole pool is used before any repeat")
}

func TestMapAssigner_EmptyCount(t *testing.T) {
	a := NewMapAssigner(nil, nil)
	assert.Empty(t, a.Assign(0))
	assert.Empty(t, a.Assign(-3))
}

func TestColumnSetForMode(t *testing.T) {
	assert.Equal(t, models.ColumnsObjective, models.ColumnSetForMode(models.ModeSearchAndDestroy))
	assert.Equal(t, models.ColumnsScore, models.ColumnSetForMode(models.ModeHardpoint))
	assert.Equal(t, models.ColumnsScore, models.ColumnSetForMode(models.ModeControl))
	assert.Equal(t, models.ColumnsObjective, models.ColumnSetForMode("SnD"))
	assert.Equal(t, models.ColumnsScore, models.ColumnSetForMode("Kill Confirmed"))
}
