package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileRepository implements the store, journal and monitor repositories on plain files
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

var _ domain.StoreRepository = (*FileRepository)(nil)
var _ domain.JournalRepository = (*FileRepository)(nil)
var _ domain.MonitorRepository = (*FileRepository)(nil)

// ReadLines returns the lines of a store without terminators. A missing store
// reads as empty.
func (r *FileRepository) ReadLines(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return lines, nil
}

// Append adds lines to the end of a store, creating it when needed.
func (r *FileRepository) Append(ctx context.Context, path string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	needsNewline, err := missingTrailingNewline(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	var b bytes.Buffer
	if needsNewline {
		b.WriteByte('\n')
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	if _, err := f.Write(b.Bytes()); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", path, err)
	}

	r.log.Debug().Str("path", path).Int("count", len(lines)).Msg("appended lines")
	return nil
}

// Rewrite replaces a store with lines through a temporary file and rename.
func (r *FileRepository) Rewrite(ctx context.Context, path string, lines []string) error {
	var b bytes.Buffer
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	if err := writeAtomic(path, b.Bytes()); err != nil {
		return err
	}

	r.log.Debug().Str("path", path).Int("count", len(lines)).Msg("rewrote store")
	return nil
}

// ListStores returns every .txt store under root in lexical order.
func (r *FileRepository) ListStores(ctx context.Context, root string) ([]string, error) {
	var stores []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), domain.StoreExt) {
			stores = append(stores, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(stores)
	return stores, nil
}

// GetJournal loads the journal. A missing or malformed journal yields an
// empty one.
func (r *FileRepository) GetJournal(ctx context.Context, path string) (domain.Journal, error) {
	j := domain.Journal{}

	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if err := json.Unmarshal(body, &j); err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("journal is malformed, starting fresh")
		return domain.Journal{}, nil
	}
	if j == nil {
		j = domain.Journal{}
	}

	return j, nil
}

// MergeJournal adds or updates entries for store, leaving every other key intact.
func (r *FileRepository) MergeJournal(ctx context.Context, path, store string, entries map[string]domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	j, err := r.GetJournal(ctx, path)
	if err != nil {
		return err
	}

	titles, ok := j[store]
	if !ok || titles == nil {
		titles = map[string]domain.JournalEntry{}
		j[store] = titles
	}
	for title, e := range entries {
		titles[title] = e
	}

	body, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	if err := writeAtomic(path, body); err != nil {
		return err
	}

	r.log.Debug().Str("path", path).Str("store", store).Int("entries", len(entries)).Msg("merged journal")
	return nil
}

// GetMonitorConfig loads the monitored lists. A missing or malformed file
// yields the default configuration.
func (r *FileRepository) GetMonitorConfig(ctx context.Context, path string) (*domain.MonitorConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewMonitorConfig(), nil
		}
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg := domain.NewMonitorConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("monitor config is malformed, using defaults")
		return domain.NewMonitorConfig(), nil
	}
	if cfg.Lists == nil {
		cfg.Lists = map[string]*domain.MonitoredList{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = domain.DefaultMonitorInterval
	}

	return cfg, nil
}

func (r *FileRepository) StoreMonitorConfig(ctx context.Context, path string, cfg *domain.MonitorConfig) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}

	if err := writeAtomic(path, b); err != nil {
		return err
	}

	r.log.Debug().Str("path", path).Int("lists", len(cfg.Lists)).Msg("stored monitor config")
	return nil
}

func missingTrailingNewline(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return last[0] != '\n', nil
}

// writeAtomic writes data beside path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %s: %w", tmpName, err)
	}

	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpName, info.Mode().Perm())
	} else {
		_ = os.Chmod(tmpName, 0644)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
