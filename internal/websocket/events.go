package websocket

// Stream event types forwarded to the live subscriber of a session.
const (
	EventTypeStatus = "status"
	EventTypeFrame  = "frame"
	EventTypeChunk  = "chunk"
	EventTypeResult = "result"
	EventTypeError  = "error"
)

type StreamEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
