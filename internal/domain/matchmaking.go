package domain

import "time"

// PairCount is one row of the pairing history: how often two models have
// already met. Slugs are stored with SlugA < SlugB so each unordered pair
// appears once.
type PairCount struct {
	SlugA      string    `json:"slugA"`
	SlugB      string    `json:"slugB"`
	Matches    int       `json:"matches"`
	LastPlayed time.Time `json:"lastPlayed"`
}

// PairKey returns the canonical unordered key for two slugs.
func PairKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
