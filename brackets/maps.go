package brackets

import (
	"math/rand/v2"

	"github.com/Dosada05/lobby-tracker/models"
)

// MapMode is the competitive setting assigned to one match.
type MapMode struct {
	Map  string `json:"map"`
	Mode string `json:"mode"`
}

// MapAssigner draws a map and mode for every scheduled match.
//
// Each draw shuffles the mode order so one mode does not cluster at the start,
// then takes a map of the first mode that has not been used for that mode in
// this run. When a mode's pool is exhausted the mode falls back to uniform
// picks with repeats for the rest of the run.
type MapAssigner struct {
	catalog []models.ModePool
	rng     *rand.Rand
}

func NewMapAssigner(catalog []models.ModePool, rng *rand.Rand) *MapAssigner {
	if len(catalog) == 0 {
		catalog = models.DefaultCatalog()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &MapAssigner{catalog: catalog, rng: rng}
}

// Assign returns count map/mode pairs. Every call is an independent run.
func (a *MapAssigner) Assign(count int) []MapMode {
	if count <= 0 {
		return []MapMode{}
	}
	used := make(map[string]map[string]struct{}, len(a.catalog))
	for _, pool := range a.catalog {
		used[pool.Mode] = make(map[string]struct{}, len(pool.Maps))
	}

	order := make([]int, len(a.catalog))
	for i := range order {
		order[i] = i
	}

	result := make([]MapMode, 0, count)
	for i := 0; i < count; i++ {
		a.rng.Shuffle(len(order), func(x, y int) { order[x], order[y] = order[y], order[x] })
		pool := a.catalog[order[0]]

		available := make([]string, 0, len(pool.Maps))
		for _, m := range pool.Maps {
			if _, seen := used[pool.Mode][m]; !seen {
				available = append(available, m)
			}
		}

		var picked string
		if len(available) > 0 {
			picked = available[a.rng.IntN(len(available))]
			used[pool.Mode][picked] = struct{}{}
		} else {
			picked = pool.Maps[a.rng.IntN(len(pool.Maps))]
		}
		result = append(result, MapMode{Map: picked, Mode: pool.Mode})
	}
	return result
}

// Capacity is the number of distinct (mode, map) pairs in the catalog.
func (a *MapAssigner) Capacity() int {
	total := 0
	for _, pool := range a.catalog {
		total += len(pool.Maps)
	}
	return total
}
