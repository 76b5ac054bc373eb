package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/repository"
)

type SuggestMode string

const (
	// ModeLadder maximizes expected ranking information gain.
	ModeLadder SuggestMode = "ladder"
	// ModeEntertainment maximizes spectator appeal.
	ModeEntertainment SuggestMode = "entertainment"
)

const (
	// Every suggested pairing is novel by construction; the flat bonus
	// keeps novelty visible in the reported score.
	noveltyBonus = 5.0

	// Default cap on how often one model appears across a result set.
	DefaultAppearanceCap = 3

	upsetBonus = 3.0
)

// Matchup is one proposed pairing with its mode score.
type Matchup struct {
	SlugA  string  `json:"slugA"`
	SlugB  string  `json:"slugB"`
	NameA  string  `json:"nameA"`
	NameB  string  `json:"nameB"`
	Score  float64 `json:"score"`
	GapExp float64 `json:"exposedGap"`
}

type SuggestResult struct {
	Matchups        []Matchup `json:"matchups"`
	TotalCandidates int       `json:"totalCandidates"`
}

// MatchmakingService proposes novel pairings from persisted rating state and
// pairing history. It is a read-only consumer: scoring is pure, so identical
// inputs always give identical output.
type MatchmakingService struct {
	modelRepo       repository.ModelRepository
	participantRepo repository.GameParticipantRepository
	appearanceCap   int
}

func NewMatchmakingService(modelRepo repository.ModelRepository, participantRepo repository.GameParticipantRepository) *MatchmakingService {
	return &MatchmakingService{
		modelRepo:       modelRepo,
		participantRepo: participantRepo,
		appearanceCap:   DefaultAppearanceCap,
	}
}

// Suggest runs the pipeline: filter and deduplicate the leaderboard,
// enumerate never-played pairs, score them for the mode, and greedily pick
// up to limit under the per-model appearance cap.
func (s *MatchmakingService) Suggest(ctx context.Context, mode SuggestMode, limit, minGames int) (*SuggestResult, error) {
	if mode != ModeLadder && mode != ModeEntertainment {
		return nil, fmt.Errorf("unknown suggestion mode %q", mode)
	}
	if limit <= 0 {
		limit = 5
	}

	leaderboard, err := s.modelRepo.GetLeaderboard(ctx, minGames)
	if err != nil {
		return nil, err
	}
	models := dedupeVariants(leaderboard)

	pairCounts, err := s.participantRepo.GetPairCounts(ctx)
	if err != nil {
		return nil, err
	}
	played := make(map[[2]string]bool, len(pairCounts))
	for _, pc := range pairCounts {
		a, b := domain.PairKey(pc.SlugA, pc.SlugB)
		played[[2]string{a, b}] = pc.Matches > 0
	}

	var candidates []Matchup
	for i := 0; i < len(models); i++ {
		for j := i + 1; j < len(models); j++ {
			a, b := models[i], models[j]
			ka, kb := domain.PairKey(a.ModelSlug, b.ModelSlug)
			if played[[2]string{ka, kb}] {
				continue
			}
			candidates = append(candidates, scorePair(mode, a, b))
		}
	}

	// Deterministic order: score descending, then slugs.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].SlugA != candidates[j].SlugA {
			return candidates[i].SlugA < candidates[j].SlugA
		}
		return candidates[i].SlugB < candidates[j].SlugB
	})

	appearances := make(map[string]int)
	selected := make([]Matchup, 0, limit)
	for _, c := range candidates {
		if len(selected) == limit {
			break
		}
		if appearances[c.SlugA] >= s.appearanceCap || appearances[c.SlugB] >= s.appearanceCap {
			continue
		}
		appearances[c.SlugA]++
		appearances[c.SlugB]++
		selected = append(selected, c)
	}

	return &SuggestResult{Matchups: selected, TotalCandidates: len(candidates)}, nil
}

// dedupeVariants collapses paid/free variants of the same underlying model
// into one entry, preferring the free variant, else the one with more games.
func dedupeVariants(models []*domain.Model) []*domain.Model {
	best := make(map[string]*domain.Model)
	order := make([]string, 0, len(models))
	for _, m := range models {
		base := m.BaseSlug()
		current, ok := best[base]
		if !ok {
			best[base] = m
			order = append(order, base)
			continue
		}
		switch {
		case m.IsFreeVariant() && !current.IsFreeVariant():
			best[base] = m
		case m.IsFreeVariant() == current.IsFreeVariant() && m.GamesPlayed > current.GamesPlayed:
			best[base] = m
		}
	}

	deduped := make([]*domain.Model, 0, len(order))
	for _, base := range order {
		deduped = append(deduped, best[base])
	}
	return deduped
}

func scorePair(mode SuggestMode, a, b *domain.Model) Matchup {
	gap := math.Abs(a.TrueskillExposed - b.TrueskillExposed)

	var score float64
	switch mode {
	case ModeLadder:
		// Uncertain, closely-matched pairs resolve the most ranking
		// questions per game.
		score = 2.0*(a.TrueskillSigma+b.TrueskillSigma) - 0.5*gap + noveltyBonus
	case ModeEntertainment:
		stronger, weaker := a, b
		if b.TrueskillExposed > a.TrueskillExposed {
			stronger, weaker = b, a
		}
		score = 0.8*stronger.TrueskillExposed - 0.6*gap + noveltyBonus
		// A wobbly underdog within striking distance makes for drama.
		if weaker.TrueskillSigma >= 0.8*domain.DefaultSigma && gap >= 2 && gap <= 10 {
			score += upsetBonus
		}
	}

	slugA, slugB := a, b
	if slugA.ModelSlug > slugB.ModelSlug {
		slugA, slugB = slugB, slugA
	}
	return Matchup{
		SlugA:  slugA.ModelSlug,
		SlugB:  slugB.ModelSlug,
		NameA:  slugA.Name,
		NameB:  slugB.Name,
		Score:  score,
		GapExp: gap,
	}
}
