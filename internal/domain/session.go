package domain

import (
	"time"
)

type SessionState string

const (
	SessionPending   SessionState = "pending"
	SessionCompleted SessionState = "completed"
	SessionUnknown   SessionState = "unknown"
)

// LiveSession is a reserved, not-yet-started live match awaiting a spectator
// connection. It transitions pending -> completed exactly once; a session
// whose TTL passed without completion is "unknown" forever.
type LiveSession struct {
	ID        string       `json:"id" gorm:"primaryKey"`
	ModelA    string       `json:"modelA" gorm:"not null"`
	ModelB    string       `json:"modelB" gorm:"not null"`
	Status    SessionState `json:"status" gorm:"not null;default:'pending'"`
	GameID    *string      `json:"gameId"`
	CreatedAt time.Time    `json:"createdAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Expired reports whether a pending session's TTL has passed. Completed
// sessions never expire; they are purged by retention instead.
func (s *LiveSession) Expired(now time.Time) bool {
	return s.Status == SessionPending && now.After(s.ExpiresAt)
}

// Resolution is the three-way answer to "what happened to this session".
type Resolution struct {
	State  SessionState `json:"state"`
	GameID string       `json:"gameId,omitempty"`
}
