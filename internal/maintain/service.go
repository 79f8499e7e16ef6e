package maintain

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/dedupe"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/repair"
)

// Result holds the reports of the checks that ran on one store.
type Result struct {
	Store  string
	Repair *domain.RepairReport
	Dedupe *domain.DedupeReport
}

func (r Result) Errors() int {
	if r.Repair == nil {
		return 0
	}
	return r.Repair.Remaining
}

func (r Result) Duplicates() int {
	if r.Dedupe == nil {
		return 0
	}
	return r.Dedupe.Found - r.Dedupe.Removed
}

// AddTo folds r into stats.
func (r Result) AddTo(stats *domain.Statistics) {
	stats.Stores++
	if r.Repair != nil {
		stats.AddRepair(*r.Repair)
	}
	if r.Dedupe != nil {
		stats.AddDedupe(*r.Dedupe)
	}
}

type Service interface {
	Check(ctx context.Context, storePath, runID string) (Result, error)
	Fix(ctx context.Context, storePath, runID string, kinds ...domain.CheckKind) (Result, error)
}

type service struct {
	log     zerolog.Logger
	paths   *domain.Paths
	repair  repair.Service
	dedupe  dedupe.Service
	history domain.HistoryRepo
	now     func() time.Time
}

func NewService(log zerolog.Logger, paths *domain.Paths, repairSvc repair.Service, dedupeSvc dedupe.Service, history domain.HistoryRepo) Service {
	return &service{
		log:     log.With().Str("module", "maintain").Logger(),
		paths:   paths,
		repair:  repairSvc,
		dedupe:  dedupeSvc,
		history: history,
		now:     time.Now,
	}
}

// Check counts error lines and duplicates without rewriting the store.
func (s *service) Check(ctx context.Context, storePath, runID string) (Result, error) {
	res := Result{Store: s.paths.StoreName(storePath)}

	entries, err := s.repair.CheckErrors(ctx, storePath)
	if err != nil {
		return res, errors.Wrap(err, "error scan failed")
	}
	res.Repair = &domain.RepairReport{Store: res.Store, Found: len(entries), Remaining: len(entries)}
	s.record(ctx, res.Store, domain.CheckErrors, runID, len(entries), 0, len(entries))

	groups, err := s.dedupe.CheckDupes(ctx, storePath)
	if err != nil {
		return res, errors.Wrap(err, "duplicate scan failed")
	}
	found := 0
	for _, g := range groups {
		found += len(g.Lines) - 1
	}
	res.Dedupe = &domain.DedupeReport{Store: res.Store, Groups: len(groups), Found: found}
	s.record(ctx, res.Store, domain.CheckDuplicates, runID, found, 0, found)

	s.log.Info().Str("store", res.Store).Int("errors", len(entries)).Int("duplicates", found).Msg("check complete")
	return res, nil
}

// Fix runs the requested repairs. Error repair always runs before duplicate
// removal so repaired lines can win their duplicate groups.
func (s *service) Fix(ctx context.Context, storePath, runID string, kinds ...domain.CheckKind) (Result, error) {
	res := Result{Store: s.paths.StoreName(storePath)}

	if has(kinds, domain.CheckErrors) {
		report, err := s.repair.FixErrors(ctx, storePath)
		if err != nil {
			return res, errors.Wrap(err, "error repair failed")
		}
		res.Repair = &report
		s.record(ctx, res.Store, domain.CheckErrors, runID, report.Found, report.Fixed(), report.Remaining)
	}

	if has(kinds, domain.CheckDuplicates) {
		report, err := s.dedupe.RemoveDupes(ctx, storePath)
		if err != nil {
			return res, errors.Wrap(err, "duplicate removal failed")
		}
		res.Dedupe = &report
		s.record(ctx, res.Store, domain.CheckDuplicates, runID, report.Found, report.Removed, report.Found-report.Removed)
	}

	return res, nil
}

func (s *service) record(ctx context.Context, store string, kind domain.CheckKind, runID string, found, fixed, remaining int) {
	if s.history == nil {
		return
	}
	err := s.history.RecordCheck(ctx, domain.MaintenanceRecord{
		Store:     store,
		Kind:      kind,
		RunID:     runID,
		Found:     found,
		Fixed:     fixed,
		Remaining: remaining,
		LastCheck: s.now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("store", store).Str("kind", string(kind)).Msg("failed to record history")
	}
}

func has(kinds []domain.CheckKind, k domain.CheckKind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}
