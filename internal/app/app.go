package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/cache"
	"github.com/varoOP/cinelist/internal/config"
	"github.com/varoOP/cinelist/internal/database"
	"github.com/varoOP/cinelist/internal/dedupe"
	"github.com/varoOP/cinelist/internal/domain"
	"github.com/varoOP/cinelist/internal/fetch"
	"github.com/varoOP/cinelist/internal/logger"
	"github.com/varoOP/cinelist/internal/maintain"
	"github.com/varoOP/cinelist/internal/monitor"
	"github.com/varoOP/cinelist/internal/notification"
	"github.com/varoOP/cinelist/internal/pager"
	"github.com/varoOP/cinelist/internal/reconcile"
	"github.com/varoOP/cinelist/internal/render"
	"github.com/varoOP/cinelist/internal/repair"
	"github.com/varoOP/cinelist/internal/repository"
	"github.com/varoOP/cinelist/internal/site"
	"github.com/varoOP/cinelist/internal/tmdb"
)

const storeLockWait = 10 * time.Second

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	paths               *domain.Paths
	fileRepo            *repository.FileRepository
	db                  *database.DB
	history             domain.HistoryRepo
	renderer            *render.Chrome
	tmdbService         tmdb.Service
	pagerService        pager.Service
	reconcileService    reconcile.Service
	maintainService     maintain.Service
	monitorService      monitor.Service
	notificationService domain.NotificationService

	monitorStoreWait time.Duration
}

// NewApp loads configuration and wires every service.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return New(logger.NewLogger(cfg.LogLevel), cfg)
}

// New wires every service around an existing configuration.
func New(log zerolog.Logger, cfg *domain.Config) (*App, error) {
	paths := domain.NewPaths(cfg.RootPath)
	if err := os.MkdirAll(paths.RootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root path: %w", err)
	}

	db, err := database.NewDB(paths.RootDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	history := database.NewHistoryRepo(log, db)

	fileRepo := repository.NewFileRepository(log)

	var renderer domain.Renderer
	var chrome *render.Chrome
	if cfg.RenderEnabled {
		chrome = render.NewChrome(log, cfg)
		renderer = chrome
	}

	client := tmdb.NewClient(log, cfg.TmdbApiKey, cfg.TmdbBaseURL,
		tmdb.WithTimeout(cfg.TmdbTimeout),
		tmdb.WithRateLimit(cfg.TmdbRequestsPerSecond),
	)
	tmdbService := tmdb.NewService(log, cfg, client)
	matchCache := cache.NewService(log, fileRepo, paths.RootDir)

	source := pager.NewSiteSource(log, fetch.NewFetcher(log, cfg))
	if cfg.MdblistApiKey != "" {
		source.WithHeaders(domain.SiteMDBList, map[string]string{"X-API-KEY": cfg.MdblistApiKey})
	}
	pagerService := pager.NewService(log, cfg.Pager, source, renderer)
	reconcileService := reconcile.NewService(log, paths, fileRepo, fileRepo, matchCache, tmdbService)
	repairService := repair.NewService(log, cfg, paths, fileRepo, matchCache, tmdbService)
	maintainService := maintain.NewService(log, paths, repairService, dedupe.NewService(log, paths, fileRepo), history)
	monitorService := monitor.NewService(log, paths, fileRepo, pagerService, reconcileService, maintainService)

	return &App{
		log:                 log,
		config:              cfg,
		paths:               paths,
		fileRepo:            fileRepo,
		db:                  db,
		history:             history,
		renderer:            chrome,
		tmdbService:         tmdbService,
		pagerService:        pagerService,
		reconcileService:    reconcileService,
		maintainService:     maintainService,
		monitorService:      monitorService,
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
		monitorStoreWait:    storeLockWait,
	}, nil
}

// Close releases the browser and the database.
func (a *App) Close() error {
	if a.renderer != nil {
		a.renderer.Close()
	}
	return a.db.Close()
}

func (a *App) Config() *domain.Config {
	return a.config
}

// notifyError is deferred by every operation that should report failures.
func (a *App) notifyError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
	}
}

func (a *App) finish(ctx context.Context, runID string, stats domain.Statistics) {
	a.log.Info().
		Str("run_id", runID).
		Str("operation", stats.Operation).
		Int("stores", stats.Stores).
		Int("titles", stats.Titles).
		Int("new", stats.New).
		Int("skipped", stats.Skipped).
		Int("cache_hits", stats.CacheHits).
		Int("errors_found", stats.ErrorsFound).
		Int("errors_fixed", stats.ErrorsFixed).
		Int("duplicates_found", stats.DuplicatesFound).
		Int("duplicates_removed", stats.DuplicatesRemoved).
		Dur("duration", stats.Duration).
		Msg("=== FINAL STATISTICS ===")

	if notifyErr := a.notificationService.SendSuccess(ctx, stats); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}
}

// ScrapeOptions overrides the configured reconcile toggles.
type ScrapeOptions struct {
	NoResolve bool
	NoYear    bool
}

func (a *App) reconcileOptions(o ScrapeOptions) domain.ReconcileOptions {
	return domain.ReconcileOptions{
		Resolve:     a.config.ResolveMetadata && !o.NoResolve,
		IncludeYear: a.config.IncludeYear && !o.NoYear,
	}
}

// Scrape walks every url and reconciles its titles into one store.
func (a *App) Scrape(ctx context.Context, store string, urls []string, o ScrapeOptions) (stats domain.Statistics, err error) {
	defer func() { a.notifyError(ctx, err) }()

	start := time.Now()
	runID := uuid.NewString()
	opts := a.reconcileOptions(o)
	stats = domain.Statistics{Operation: "scrape", Stores: 1}

	if opts.Resolve {
		if err := config.RequireTmdb(a.config); err != nil {
			return stats, err
		}
	}

	targets := make([]domain.ScrapeTarget, 0, len(urls))
	for _, u := range urls {
		t := site.NewTarget(u)
		if t.Site == domain.SiteUnknown {
			return stats, fmt.Errorf("%w: %s", pager.ErrUnsupportedSite, u)
		}
		targets = append(targets, t)
	}

	storePath := a.paths.StorePath(store)
	unlock, err := a.lockStore(ctx, storePath, storeLockWait)
	if err != nil {
		return stats, err
	}
	defer unlock()

	for _, t := range targets {
		titles, err := a.pagerService.Scrape(ctx, t)
		if err != nil {
			return stats, fmt.Errorf("failed to scrape %s: %w", t.URL, err)
		}

		res, err := a.reconcileService.Reconcile(ctx, titles, storePath, opts)
		if err != nil {
			return stats, fmt.Errorf("failed to reconcile %s: %w", t.URL, err)
		}

		a.log.Info().
			Str("run_id", runID).
			Str("url", t.URL).
			Int("titles", len(titles)).
			Int("new", res.New).
			Int("skipped", res.Skipped).
			Int("cache_hits", res.CacheHits).
			Msg("list reconciled")

		stats.Titles += len(titles)
		stats.AddReconcile(res)
	}

	stats.Duration = time.Since(start)
	a.finish(ctx, runID, stats)
	return stats, nil
}

// storePaths resolves store names, or lists every store under the root when
// none are given.
func (a *App) storePaths(ctx context.Context, stores []string) ([]string, error) {
	if len(stores) == 0 {
		return a.fileRepo.ListStores(ctx, a.paths.RootDir)
	}
	out := make([]string, len(stores))
	for i, s := range stores {
		out[i] = a.paths.StorePath(s)
	}
	return out, nil
}

// Fix runs the requested maintenance on each store.
func (a *App) Fix(ctx context.Context, kinds []domain.CheckKind, stores []string) (results []maintain.Result, err error) {
	defer func() { a.notifyError(ctx, err) }()

	start := time.Now()
	runID := uuid.NewString()
	stats := domain.Statistics{Operation: "fix"}

	for _, k := range kinds {
		if k == domain.CheckErrors {
			if err := config.RequireTmdb(a.config); err != nil {
				return nil, err
			}
		}
	}

	paths, err := a.storePaths(ctx, stores)
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		res, err := a.fixStore(ctx, p, runID, kinds)
		if err != nil {
			return results, err
		}
		res.AddTo(&stats)
		results = append(results, res)
	}

	stats.Duration = time.Since(start)
	a.finish(ctx, runID, stats)
	return results, nil
}

func (a *App) fixStore(ctx context.Context, storePath, runID string, kinds []domain.CheckKind) (maintain.Result, error) {
	unlock, err := a.lockStore(ctx, storePath, storeLockWait)
	if err != nil {
		return maintain.Result{}, err
	}
	defer unlock()

	return a.maintainService.Fix(ctx, storePath, runID, kinds...)
}

// Check reports error and duplicate counts without changing any store.
func (a *App) Check(ctx context.Context, stores []string) ([]maintain.Result, error) {
	runID := uuid.NewString()

	paths, err := a.storePaths(ctx, stores)
	if err != nil {
		return nil, err
	}

	var results []maintain.Result
	for _, p := range paths {
		res, err := a.maintainService.Check(ctx, p, runID)
		if err != nil {
			return results, fmt.Errorf("failed to check %s: %w", p, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (a *App) MonitorAdd(ctx context.Context, list string, urls []string) (int, error) {
	unlock, err := a.lockStore(ctx, a.paths.MonitorPath, storeLockWait)
	if err != nil {
		return 0, err
	}
	defer unlock()

	return a.monitorService.Add(ctx, list, urls)
}

func (a *App) MonitorRemove(ctx context.Context, list, url string) error {
	unlock, err := a.lockStore(ctx, a.paths.MonitorPath, storeLockWait)
	if err != nil {
		return err
	}
	defer unlock()

	return a.monitorService.Remove(ctx, list, url)
}

// MonitorStatus returns the monitor configuration with the maintenance
// history of every store.
func (a *App) MonitorStatus(ctx context.Context) (*domain.MonitorConfig, []domain.MaintenanceRecord, error) {
	cfg, err := a.monitorService.Status(ctx)
	if err != nil {
		return nil, nil, err
	}
	history, err := a.history.ListHistory(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, history, nil
}

// MonitorOptions selects what a monitor run checks.
type MonitorOptions struct {
	Force bool
	List  string
	Fix   bool
}

// MonitorRun checks every due monitored list once.
func (a *App) MonitorRun(ctx context.Context, o MonitorOptions) (report domain.MonitorReport, err error) {
	defer func() { a.notifyError(ctx, err) }()

	start := time.Now()
	runID := uuid.NewString()
	opts := a.reconcileOptions(ScrapeOptions{})

	if opts.Resolve || o.Fix {
		if err := config.RequireTmdb(a.config); err != nil {
			return report, err
		}
	}

	unlock, err := a.lockStore(ctx, a.paths.MonitorPath, storeLockWait)
	if err != nil {
		return report, err
	}
	defer unlock()

	lockList := func(ctx context.Context, storePath string) (func(), error) {
		return a.lockStore(ctx, storePath, a.monitorStoreWait)
	}

	report, err = a.monitorService.Run(ctx, monitor.RunOptions{
		Force:            o.Force,
		List:             o.List,
		Fix:              o.Fix,
		RunID:            runID,
		LockStore:        lockList,
		ReconcileOptions: opts,
	})
	if err != nil {
		return report, err
	}

	stats := domain.Statistics{
		Operation:       "monitor",
		Stores:          len(report.Checked),
		Titles:          report.Titles,
		New:             report.New,
		ErrorsFound:     report.Errors,
		DuplicatesFound: report.Dupes,
		Duration:        time.Since(start),
	}
	a.finish(ctx, runID, stats)
	return report, nil
}

// Search looks up one title and returns the store line it would produce.
func (a *App) Search(ctx context.Context, title string) (string, domain.MatchResult, error) {
	if err := config.RequireTmdb(a.config); err != nil {
		return "", domain.ErrorSentinel, err
	}

	title = domain.NormalizeTitle(title)
	m := a.tmdbService.Match(ctx, title)
	return domain.FormatStoreLine(title, m, true, a.config.IncludeYear), m, nil
}
