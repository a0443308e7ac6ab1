package store

import (
	"github.com/brandoncintron/power-projects-sub000/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the GORM database handle and exposes the persistence
// operations used by the services layer.
type Store struct {
	db *gorm.DB
}

func New(driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Map driver-specific unique violations onto gorm.ErrDuplicatedKey
		// so AppendActivity can detect redelivered webhooks portably.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectCollaborator{},
		&models.RepositoryConnection{},
		&models.Activity{},
	); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Health checks database connectivity
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// DB returns the underlying GORM database handle (used by tests)
func (s *Store) DB() *gorm.DB {
	return s.db
}
