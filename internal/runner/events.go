package runner

import "encoding/json"

// Event types emitted by the simulator on stdout, one JSON object per line.
// Anything that is not a parseable JSON object is operator noise and is
// surfaced as a raw chunk in streaming mode.
const (
	EventStatus = "status"
	EventFrame  = "frame"
	EventChunk  = "chunk"
	EventResult = "result"
)

type StatusEvent struct {
	Message string `json:"message"`
	Round   int    `json:"round"`
}

// FrameEvent carries one rendered board state. The state payload is opaque
// to the runner; spectator clients consume it as-is.
type FrameEvent struct {
	Round int             `json:"round"`
	State json.RawMessage `json:"state"`
}

// ChunkEvent is a streamed fragment of a model's raw response.
type ChunkEvent struct {
	Slot    int    `json:"slot"`
	Content string `json:"content"`
}

// Callbacks receive streamed events in receipt order. Any callback may be
// nil; a fully nil set is a blocking invocation.
type Callbacks struct {
	OnStatus func(StatusEvent)
	OnFrame  func(FrameEvent)
	OnChunk  func(ChunkEvent)
}

// MatchResult is the simulator's authoritative final output. Maps are keyed
// by player slot ("1", "2").
type MatchResult struct {
	GameID     string            `json:"gameId"`
	Scores     map[string]int    `json:"scores"`
	Outcomes   map[string]string `json:"outcomes"`
	ReplayPath string            `json:"replayPath"`
	TotalCost  float64           `json:"totalCost"`
}
