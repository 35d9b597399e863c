package models

import "strings"

// StatColumnSet selects which optional stat fields a mode records on top of kills/deaths.
type StatColumnSet int

const (
	// ColumnsScore: Hardpoint, Control and anything that is not objective-based.
	ColumnsScore StatColumnSet = iota
	// ColumnsObjective: Search & Destroy style modes (plants/defuses instead of score).
	ColumnsObjective
)

func (c StatColumnSet) String() string {
	if c == ColumnsObjective {
		return "objective"
	}
	return "score"
}

// RequiredFields lists the stat fields a completed match must carry for every player.
func (c StatColumnSet) RequiredFields() []string {
	if c == ColumnsObjective {
		return []string{"kills", "deaths", "plants", "defuses"}
	}
	return []string{"kills", "deaths", "score"}
}

var modeColumns = map[string]StatColumnSet{
	ModeHardpoint:        ColumnsScore,
	ModeSearchAndDestroy: ColumnsObjective,
	ModeControl:          ColumnsScore,
}

// ColumnSetForMode resolves a mode name into its column set. Modes outside the
// catalog are matched by name the same way hosts type them ("snd", "s&d", ...).
func ColumnSetForMode(mode string) StatColumnSet {
	if set, ok := modeColumns[mode]; ok {
		return set
	}
	m := strings.ToLower(mode)
	if strings.Contains(m, "search") || strings.Contains(m, "destroy") ||
		strings.Contains(m, "s&d") || strings.Contains(m, "snd") {
		return ColumnsObjective
	}
	return ColumnsScore
}

// MatchStat is one player's line for one match: a kills/deaths core plus either
// score or plants/defuses depending on the column set of the match mode.
type MatchStat struct {
	Kills   int  `json:"kills"`
	Deaths  int  `json:"deaths"`
	Score   *int `json:"score,omitempty"`
	Plants  *int `json:"plants,omitempty"`
	Defuses *int `json:"defuses,omitempty"`
}

// MissingFields returns the required fields of set that the stat does not carry.
func (s MatchStat) MissingFields(set StatColumnSet) []string {
	var missing []string
	if set == ColumnsObjective {
		if s.Plants == nil {
			missing = append(missing, "plants")
		}
		if s.Defuses == nil {
			missing = append(missing, "defuses")
		}
		return missing
	}
	if s.Score == nil {
		missing = append(missing, "score")
	}
	return missing
}

// ForeignFields returns the optional fields the stat carries that belong to
// the other column set, e.g. plants on a Hardpoint line.
func (s MatchStat) ForeignFields(set StatColumnSet) []string {
	var foreign []string
	if set == ColumnsObjective {
		if s.Score != nil {
			foreign = append(foreign, "score")
		}
		return foreign
	}
	if s.Plants != nil {
		foreign = append(foreign, "plants")
	}
	if s.Defuses != nil {
		foreign = append(foreign, "defuses")
	}
	return foreign
}

// HasNegative reports whether any recorded value is below zero.
func (s MatchStat) HasNegative() bool {
	if s.Kills < 0 || s.Deaths < 0 {
		return true
	}
	for _, v := range []*int{s.Score, s.Plants, s.Defuses} {
		if v != nil && *v < 0 {
			return true
		}
	}
	return false
}

func (s MatchStat) Clone() MatchStat {
	c := s
	c.Score = cloneInt(s.Score)
	c.Plants = cloneInt(s.Plants)
	c.Defuses = cloneInt(s.Defuses)
	return c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// IntPtr is a small helper for building optional stat fields.
func IntPtr(v int) *int {
	return &v
}
