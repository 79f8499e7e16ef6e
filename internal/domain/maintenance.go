package domain

import "time"

type ReconcileOptions struct {
	Resolve     bool
	IncludeYear bool
}

type ReconcileResult struct {
	New       int
	Skipped   int
	CacheHits int
}

// ErrorEntry is an [Error] line awaiting repair. Index is zero based.
type ErrorEntry struct {
	Index int
	Title string
	Line  string
}

type LineRef struct {
	Number int
	Raw    string
}

type DuplicateGroup struct {
	Key   CanonicalKey
	Lines []LineRef
}

type RepairReport struct {
	Store      string
	Found      int
	FromCache  int
	FromLookup int
	Remaining  int
}

func (r RepairReport) Fixed() int {
	return r.FromCache + r.FromLookup
}

type DedupeReport struct {
	Store   string
	Groups  int
	Found   int
	Removed int
}

type CheckKind string

const (
	CheckErrors     CheckKind = "errors"
	CheckDuplicates CheckKind = "duplicates"
)

// MaintenanceRecord is the running history of one check kind on one store.
type MaintenanceRecord struct {
	Store     string
	Kind      CheckKind
	RunID     string
	Checks    int
	Found     int
	Fixed     int
	Remaining int
	LastCheck time.Time
}

// JournalEntry records whether a title was resolved when it was written.
type JournalEntry struct {
	Matched bool `json:"matched"`
}

// Journal maps store name to title to entry.
type Journal map[string]map[string]JournalEntry
