package domain

import (
	"context"
)

// StoreRepository reads and writes flat store files. Lines carry no terminator.
type StoreRepository interface {
	ReadLines(ctx context.Context, path string) ([]string, error)
	Append(ctx context.Context, path string, lines []string) error
	Rewrite(ctx context.Context, path string, lines []string) error
	ListStores(ctx context.Context, root string) ([]string, error)
}

// JournalRepository persists per-store title history with merge semantics.
type JournalRepository interface {
	GetJournal(ctx context.Context, path string) (Journal, error)
	MergeJournal(ctx context.Context, path, store string, entries map[string]JournalEntry) error
}

type MonitorRepository interface {
	GetMonitorConfig(ctx context.Context, path string) (*MonitorConfig, error)
	StoreMonitorConfig(ctx context.Context, path string, cfg *MonitorConfig) error
}

// HistoryRepo keeps maintenance check history.
type HistoryRepo interface {
	RecordCheck(ctx context.Context, rec MaintenanceRecord) error
	GetHistory(ctx context.Context, store string) ([]MaintenanceRecord, error)
	ListHistory(ctx context.Context) ([]MaintenanceRecord, error)
}
