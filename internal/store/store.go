package store

import (
	"wholesale/internal/logger"

	"gorm.io/gorm"
)

// Store is the only write path for cart and order state, and the seam the
// HTTP layer talks to. Every mutation re-validates against the current
// product row, because sync and webhooks may have changed stock or
// availability since the buyer last looked.
type Store struct {
	db             *gorm.DB
	logger         *logger.Logger
	jobMaxAttempts int
}

func New(db *gorm.DB, logger *logger.Logger, jobMaxAttempts int) *Store {
	return &Store{db: db, logger: logger, jobMaxAttempts: jobMaxAttempts}
}
