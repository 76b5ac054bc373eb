package postgres

import (
	"github.com/dom/snake-arena/internal/domain"
	"github.com/dom/snake-arena/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.Model{},
		&domain.Game{},
		&domain.GameParticipant{},
		&domain.LiveSession{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Game:        NewGameRepository(db),
		Participant: NewGameParticipantRepository(db),
		Model:       NewModelRepository(db),
		LiveSession: NewLiveSessionRepository(db),
	}
}
