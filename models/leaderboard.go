package models

// LeaderboardEntry - итоговая статистика игрока, всегда пересчитывается из журнала матчей.
type LeaderboardEntry struct {
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TotalKills   int     `json:"totalKills"`
	TotalDeaths  int     `json:"totalDeaths"`
	KDRatio      float64 `json:"kdRatio"`
	AvgScore     float64 `json:"avgScore"`
	GamesPlayed  int     `json:"gamesPlayed"`
	TotalPlants  *int    `json:"totalPlants,omitempty"`
	TotalDefuses *int    `json:"totalDefuses,omitempty"`
}

func (e LeaderboardEntry) Clone() LeaderboardEntry {
	c := e
	c.TotalPlants = cloneInt(e.TotalPlants)
	c.TotalDefuses = cloneInt(e.TotalDefuses)
	return c
}

// Plants returns the plant total, treating absence as zero.
func (e LeaderboardEntry) Plants() int {
	if e.TotalPlants == nil {
		return 0
	}
	return *e.TotalPlants
}

// Defuses returns the defuse total, treating absence as zero.
func (e LeaderboardEntry) Defuses() int {
	if e.TotalDefuses == nil {
		return 0
	}
	return *e.TotalDefuses
}

// KDRatioOf returns kills/deaths, or 0 when there are no deaths.
func KDRatioOf(kills, deaths int) float64 {
	if deaths <= 0 {
		return 0
	}
	return float64(kills) / float64(deaths)
}

// OptionalTotal keeps a plants/defuses total only when it is non-zero.
func OptionalTotal(total int) *int {
	if total == 0 {
		return nil
	}
	return &total
}

// StandingEntry is a leaderboard row with its position, used for ranked views.
type StandingEntry struct {
	Rank     int              `json:"rank"`
	PlayerID string           `json:"playerId"`
	Name     string           `json:"name"`
	Entry    LeaderboardEntry `json:"entry"`
}

// CulminatingEntry is one row of the merged cross-tournament leaderboard.
type CulminatingEntry struct {
	LeaderboardEntry
	Rank        int    `json:"rank"`
	DisplayName string `json:"displayName"`
	NameKey     string `json:"nameKey"`
}
