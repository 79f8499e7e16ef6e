package domain

import (
	"context"
	"time"
)

// NotificationService defines the interface for notification services
type NotificationService interface {
	// SendSuccess sends a success notification with statistics
	SendSuccess(ctx context.Context, stats Statistics) error

	// SendError sends an error notification with error details
	SendError(ctx context.Context, err error) error
}

// Statistics summarizes one operation
type Statistics struct {
	Operation         string
	Stores            int
	Titles            int
	New               int
	Skipped           int
	CacheHits         int
	ErrorsFound       int
	ErrorsFixed       int
	DuplicatesFound   int
	DuplicatesRemoved int
	Duration          time.Duration
}

func (s *Statistics) AddReconcile(r ReconcileResult) {
	s.New += r.New
	s.Skipped += r.Skipped
	s.CacheHits += r.CacheHits
}

func (s *Statistics) AddRepair(r RepairReport) {
	s.ErrorsFound += r.Found
	s.ErrorsFixed += r.Fixed()
}

func (s *Statistics) AddDedupe(r DedupeReport) {
	s.DuplicatesFound += r.Found
	s.DuplicatesRemoved += r.Removed
}
