package domain

import "time"

// Replay is the persisted artifact of a completed match, sufficient to
// reconstruct it. The ingestor normalizes it into game/participant rows.
type Replay struct {
	Game    ReplayGame              `json:"game"`
	Players map[string]ReplayPlayer `json:"players"`
	Totals  ReplayTotals            `json:"totals"`
}

type ReplayGame struct {
	ID        string     `json:"id"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Rounds    int        `json:"actual_rounds"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	NumApples int        `json:"num_apples"`
	GameType  string     `json:"game_type"`
}

// ReplayPlayer is one slot's outcome, keyed in Replay.Players by the slot
// number ("1", "2").
type ReplayPlayer struct {
	Name        string  `json:"name"`
	Score       int     `json:"score"`
	Result      string  `json:"result"`
	DeathRound  *int    `json:"death_round"`
	DeathReason *string `json:"death_reason"`
	Cost        float64 `json:"cost"`
}

type ReplayTotals struct {
	Cost float64 `json:"cost"`
}
