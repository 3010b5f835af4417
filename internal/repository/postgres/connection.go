package postgres

import (
	"context"

	"github.com/taskhive/taskhive-backend/internal/domain"
	"github.com/taskhive/taskhive-backend/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.User{},
		&domain.Session{},
		&domain.SingleUseToken{},
		&domain.LoginAttempt{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Token:        NewSingleUseTokenRepository(db),
		LoginAttempt: NewLoginAttemptRepository(db),
		Tx:           &txManager{db: db},
	}
}

type txManager struct {
	db *gorm.DB
}

// WithTx rebinds all repositories to one transaction so multi-entity flows
// commit or roll back together.
func (m *txManager) WithTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
