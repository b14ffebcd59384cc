// Package service is the principal API: every operation takes the
// authenticated user and checks catalog access before touching anything.
package service

import (
	"context"
	"mediacat/processing"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Enqueuer schedules ingest jobs, processing.Queue in production
type Enqueuer interface {
	Enqueue(ctx context.Context, job processing.Job)
}

type Service struct {
	db     *gorm.DB
	stores processing.Stores
	queue  Enqueuer
	log    *zap.Logger
	// Uploads are refused below this many free bytes in temp
	minFreeSpace uint64
}

func New(db *gorm.DB, stores processing.Stores, queue Enqueuer, minFreeSpaceMB int, log *zap.Logger) *Service {
	return &Service{
		db:           db,
		stores:       stores,
		queue:        queue,
		log:          log,
		minFreeSpace: uint64(minFreeSpaceMB) << 20,
	}
}

// DB is the database the service works on
func (s *Service) DB() *gorm.DB {
	return s.db
}
