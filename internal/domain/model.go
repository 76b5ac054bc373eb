package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Default rating priors. Exposed rating is mu - 3*sigma, so a fresh model
// starts at 0.
const (
	DefaultMu    = 25.0
	DefaultSigma = 25.0 / 3.0
	DefaultElo   = 1500.0
)

// Model is a rated competitor: one LLM configuration identified by its
// canonical slug.
type Model struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ModelSlug        string    `json:"modelSlug" gorm:"uniqueIndex;not null"`
	Name             string    `json:"name" gorm:"not null"`
	Provider         string    `json:"provider"`
	IsActive         bool      `json:"isActive" gorm:"not null;default:true"`
	Wins             int       `json:"wins"`
	Losses           int       `json:"losses"`
	Ties             int       `json:"ties"`
	GamesPlayed      int       `json:"gamesPlayed"`
	TotalScore       int       `json:"totalScore"`
	TrueskillMu      float64   `json:"trueskillMu"`
	TrueskillSigma   float64   `json:"trueskillSigma"`
	TrueskillExposed float64   `json:"trueskillExposed"`
	EloRating        float64   `json:"eloRating"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// NewModel creates a model at the default rating priors. The raw identifier
// is canonicalized; the original form is kept as the display name.
func NewModel(rawID string) *Model {
	return &Model{
		ID:               uuid.New(),
		ModelSlug:        CanonicalSlug(rawID),
		Name:             rawID,
		Provider:         providerOf(rawID),
		IsActive:         true,
		TrueskillMu:      DefaultMu,
		TrueskillSigma:   DefaultSigma,
		TrueskillExposed: DefaultMu - 3*DefaultSigma,
		EloRating:        DefaultElo,
	}
}

// ResetRating restores the default prior and zeroes aggregates.
func (m *Model) ResetRating() {
	m.Wins = 0
	m.Losses = 0
	m.Ties = 0
	m.GamesPlayed = 0
	m.TotalScore = 0
	m.TrueskillMu = DefaultMu
	m.TrueskillSigma = DefaultSigma
	m.TrueskillExposed = DefaultMu - 3*DefaultSigma
	m.EloRating = DefaultElo
}

// CanonicalSlug maps a raw model identifier to its canonical form. Two raw
// identifiers that differ only in case, separators, or surrounding noise
// canonicalize equal and must share one models row.
func CanonicalSlug(raw string) string {
	return slug.Make(strings.TrimSpace(raw))
}

// IsFreeVariant reports whether the slug names a provider's free tier
// (e.g. "meta-llama-llama-3-8b-instruct-free").
func (m *Model) IsFreeVariant() bool {
	return strings.HasSuffix(m.ModelSlug, "-free")
}

// BaseSlug strips the free-tier suffix, giving the identity used when
// deduplicating paid/free variants of the same underlying model.
func (m *Model) BaseSlug() string {
	return strings.TrimSuffix(m.ModelSlug, "-free")
}

func providerOf(rawID string) string {
	if i := strings.IndexAny(rawID, "/:"); i > 0 {
		return strings.ToLower(rawID[:i])
	}
	return ""
}
