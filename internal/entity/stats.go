package entity

// PlayerStats is the lifetime counters kept for one player.
type PlayerStats struct {
	Player  string `json:"player"`
	Flips   int64  `json:"flips"`
	Matches int64  `json:"matches"`
	Errors  int64  `json:"errors"`
}

// PlayerScore is one leaderboard row, ordered by matches.
type PlayerScore struct {
	Player  string `json:"player"`
	Matches int64  `json:"matches"`
}
