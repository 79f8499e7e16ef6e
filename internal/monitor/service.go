package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/maintain"
	"github.com/varoOP/cinelist/internal/pager"
	"github.com/varoOP/cinelist/internal/reconcile"
	"github.com/varoOP/cinelist/internal/site"
)

var ErrUnknownList = errors.New("unknown monitored list")

// StoreLocker takes the write lock of a store and returns its release func.
type StoreLocker func(ctx context.Context, storePath string) (func(), error)

type RunOptions struct {
	Force bool
	List  string
	Fix   bool
	RunID string

	// LockStore, when set, guards every write to a list's store.
	LockStore StoreLocker
	domain.ReconcileOptions
}

type Service interface {
	Add(ctx context.Context, list string, urls []string) (int, error)
	Remove(ctx context.Context, list, url string) error
	Status(ctx context.Context) (*domain.MonitorConfig, error)
	Run(ctx context.Context, opts RunOptions) (domain.MonitorReport, error)
}

type service struct {
	log        zerolog.Logger
	paths      *domain.Paths
	repo       domain.MonitorRepository
	pager      pager.Service
	reconciler reconcile.Service
	maintainer maintain.Service
	now        func() time.Time
}

func NewService(log zerolog.Logger, paths *domain.Paths, repo domain.MonitorRepository, pagerSvc pager.Service, reconciler reconcile.Service, maintainer maintain.Service) Service {
	return &service{
		log:        log.With().Str("module", "monitor").Logger(),
		paths:      paths,
		repo:       repo,
		pager:      pagerSvc,
		reconciler: reconciler,
		maintainer: maintainer,
		now:        time.Now,
	}
}

// Add registers urls under list, creating the list when needed. It returns
// how many urls were not already monitored.
func (s *service) Add(ctx context.Context, list string, urls []string) (int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return 0, errors.New("list name is required")
	}

	cfg, err := s.repo.GetMonitorConfig(ctx, s.paths.MonitorPath)
	if err != nil {
		return 0, err
	}

	l, ok := cfg.Lists[list]
	if !ok {
		l = &domain.MonitoredList{Enabled: true}
		cfg.Lists[list] = l
	}

	added := 0
	for _, u := range urls {
		target := site.NewTarget(u)
		if target.Site == domain.SiteUnknown {
			return 0, errors.Wrapf(pager.ErrUnsupportedSite, "%s", u)
		}
		if l.AddURL(target.URL) {
			added++
		}
	}

	if err := s.repo.StoreMonitorConfig(ctx, s.paths.MonitorPath, cfg); err != nil {
		return 0, err
	}

	s.log.Info().Str("list", list).Int("added", added).Msg("monitor updated")
	return added, nil
}

// Remove drops url from list, or the whole list when url is empty.
func (s *service) Remove(ctx context.Context, list, url string) error {
	cfg, err := s.repo.GetMonitorConfig(ctx, s.paths.MonitorPath)
	if err != nil {
		return err
	}

	l, ok := cfg.Lists[list]
	if !ok {
		return errors.Wrapf(ErrUnknownList, "%s", list)
	}

	if url == "" {
		delete(cfg.Lists, list)
	} else if !l.RemoveURL(strings.TrimSpace(url)) {
		return errors.Errorf("%s is not monitored in %s", url, list)
	}

	return s.repo.StoreMonitorConfig(ctx, s.paths.MonitorPath, cfg)
}

func (s *service) Status(ctx context.Context) (*domain.MonitorConfig, error) {
	return s.repo.GetMonitorConfig(ctx, s.paths.MonitorPath)
}

// Run checks every due list once. Each url is scraped and reconciled into
// the store named after its list; a failing url is logged and skipped.
func (s *service) Run(ctx context.Context, opts RunOptions) (domain.MonitorReport, error) {
	var report domain.MonitorReport

	cfg, err := s.repo.GetMonitorConfig(ctx, s.paths.MonitorPath)
	if err != nil {
		return report, err
	}

	if opts.List != "" {
		if _, ok := cfg.Lists[opts.List]; !ok {
			return report, errors.Wrapf(ErrUnknownList, "%s", opts.List)
		}
	}

	now := s.now()
	interval := cfg.IntervalDuration()

	for _, name := range cfg.Names() {
		if opts.List != "" && name != opts.List {
			continue
		}

		l := cfg.Lists[name]
		if !l.Enabled || (!opts.Force && !l.Due(now, interval)) {
			s.log.Debug().Str("list", name).Time("next", l.NextCheck(interval)).Msg("not due")
			report.Skipped = append(report.Skipped, name)
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !s.checkList(ctx, name, l, now, opts, &report) {
			report.Skipped = append(report.Skipped, name)
			continue
		}
		report.Checked = append(report.Checked, name)
	}

	cfg.LastRun = now
	if err := s.repo.StoreMonitorConfig(ctx, s.paths.MonitorPath, cfg); err != nil {
		return report, err
	}

	return report, nil
}

// checkList reports false when the list's store could not be locked.
func (s *service) checkList(ctx context.Context, name string, l *domain.MonitoredList, now time.Time, opts RunOptions, report *domain.MonitorReport) bool {
	storePath := s.paths.StorePath(name)

	if opts.LockStore != nil {
		unlock, err := opts.LockStore(ctx, storePath)
		if err != nil {
			s.log.Warn().Err(err).Str("list", name).Msg("store busy, skipping list")
			return false
		}
		defer unlock()
	}

	for i := range l.URLs {
		u := &l.URLs[i]

		titles, err := s.pager.Scrape(ctx, site.NewTarget(u.URL))
		if err != nil {
			s.log.Error().Err(err).Str("list", name).Str("url", u.URL).Msg("scrape failed")
			continue
		}

		res, err := s.reconciler.Reconcile(ctx, titles, storePath, opts.ReconcileOptions)
		if err != nil {
			s.log.Error().Err(err).Str("list", name).Str("url", u.URL).Msg("reconcile failed")
			continue
		}

		u.TitleCount = len(titles)
		u.TotalAdded += res.New
		u.LastCheck = now
		report.Titles += len(titles)
		report.New += res.New
	}

	var (
		res maintain.Result
		err error
	)
	if opts.Fix {
		res, err = s.maintainer.Fix(ctx, storePath, opts.RunID, domain.CheckErrors, domain.CheckDuplicates)
	} else {
		res, err = s.maintainer.Check(ctx, storePath, opts.RunID)
	}
	if err != nil {
		s.log.Error().Err(err).Str("list", name).Msg("maintenance failed")
	} else {
		l.ErrorCount = res.Errors()
		l.DuplicateCount = res.Duplicates()
		report.Errors += l.ErrorCount
		report.Dupes += l.DuplicateCount
	}

	l.LastCheck = now

	s.log.Info().
		Str("list", name).
		Int("urls", len(l.URLs)).
		Int("errors", l.ErrorCount).
		Int("duplicates", l.DuplicateCount).
		Msg("list checked")

	return true
}
