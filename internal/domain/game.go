package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type GameStatus string

const (
	GameStatusPending   GameStatus = "pending"
	GameStatusCompleted GameStatus = "completed"
	GameStatusFailed    GameStatus = "failed"
)

type Game struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Status      GameStatus     `json:"status" gorm:"not null;default:'pending'"`
	StartTime   *time.Time     `json:"startTime"`
	EndTime     *time.Time     `json:"endTime"`
	Rounds      int            `json:"rounds"`
	BoardWidth  int            `json:"boardWidth"`
	BoardHeight int            `json:"boardHeight"`
	NumApples   int            `json:"numApples"`
	TotalScore  int            `json:"totalScore"`
	TotalCost   float64        `json:"totalCost"`
	ReplayPath  string         `json:"replayPath"`
	GameType    string         `json:"gameType" gorm:"not null;default:'snake'"`
	Summary     datatypes.JSON `json:"summary,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	// Relations
	Participants []GameParticipant `json:"participants,omitempty" gorm:"foreignKey:GameID"`
}

type ParticipantResult string

const (
	ResultWon  ParticipantResult = "won"
	ResultLost ParticipantResult = "lost"
	ResultTied ParticipantResult = "tied"
)

// GameParticipant is one player slot of a game. The (game_id, player_slot)
// pair is unique so re-ingesting a replay updates rows in place.
type GameParticipant struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	GameID      string            `json:"gameId" gorm:"uniqueIndex:idx_game_slot;not null"`
	ModelID     uuid.UUID         `json:"modelId" gorm:"type:uuid;not null;index"`
	PlayerSlot  int               `json:"playerSlot" gorm:"uniqueIndex:idx_game_slot;not null"`
	Score       int               `json:"score"`
	Result      ParticipantResult `json:"result"`
	DeathRound  *int              `json:"deathRound"`
	DeathReason *string           `json:"deathReason"`
	Cost        float64           `json:"cost"`

	// Relations
	Model *Model `json:"model,omitempty" gorm:"foreignKey:ModelID"`
}
