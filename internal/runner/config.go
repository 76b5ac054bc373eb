package runner

// Board and round limits enforced on every dispatch. Out-of-range values are
// clamped, not rejected, so a sloppy caller still gets a playable match.
const (
	MinBoardSize = 4
	MaxBoardSize = 50
	MinRounds    = 10
	MaxRounds    = 500
	MinApples    = 1
	MaxApples    = 20
	MaxBatchSize = 10
)

// MatchConfig is the single JSON object written to the simulator's stdin.
type MatchConfig struct {
	ModelA    string `json:"modelA"`
	ModelB    string `json:"modelB"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MaxRounds int    `json:"maxRounds"`
	NumApples int    `json:"numApples"`
	BatchSize int    `json:"batchSize,omitempty"`
	GameType  string `json:"gameType,omitempty"`

	// Credentials are per-call provider API keys. They go into the child
	// process environment only and are never written to the config stream
	// or persisted anywhere.
	Credentials map[string]string `json:"-"`
}

// Normalize clamps numeric fields into their allowed ranges and fills
// defaults for zero values.
func (c *MatchConfig) Normalize() {
	if c.Width == 0 {
		c.Width = 10
	}
	if c.Height == 0 {
		c.Height = 10
	}
	if c.MaxRounds == 0 {
		c.MaxRounds = 100
	}
	if c.NumApples == 0 {
		c.NumApples = 5
	}
	c.Width = clampInt(c.Width, MinBoardSize, MaxBoardSize)
	c.Height = clampInt(c.Height, MinBoardSize, MaxBoardSize)
	c.MaxRounds = clampInt(c.MaxRounds, MinRounds, MaxRounds)
	c.NumApples = clampInt(c.NumApples, MinApples, MaxApples)
	if c.BatchSize > MaxBatchSize {
		c.BatchSize = MaxBatchSize
	}
	if c.GameType == "" {
		c.GameType = "snake"
	}
}

func (c *MatchConfig) validate() error {
	if c.ModelA == "" || c.ModelB == "" {
		return ErrConfigInvalid
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
