package models

// Competitive modes and map pools.
const (
	ModeHardpoint        = "Hardpoint"
	ModeSearchAndDestroy = "Search & Destroy"
	ModeControl          = "Control"
)

// ModePool is one mode of the catalog with its non-empty map pool.
type ModePool struct {
	Mode string
	Maps []string
}

// DefaultCatalog returns a fresh copy of the competitive map/mode catalog.
func DefaultCatalog() []ModePool {
	return []ModePool{
		{Mode: ModeHardpoint, Maps: []string{"Babylon", "Protocol", "Skyline", "Red Card"}},
		{Mode: ModeSearchAndDestroy, Maps: []string{"Hacienda", "Skyline", "Babylon", "Warhead"}},
		{Mode: ModeControl, Maps: []string{"Highrise", "Babylon", "Protocol"}},
	}
}
