package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
)

type HistoryRepo struct {
	log zerolog.Logger
	db  *DB
}

func NewHistoryRepo(log zerolog.Logger, db *DB) domain.HistoryRepo {
	return &HistoryRepo{
		log: log.With().Str("repo", "history").Logger(),
		db:  db,
	}
}

// RecordCheck folds one check into the running history of its store and kind.
// Checks and fixes accumulate; found and remaining reflect the latest check.
func (r *HistoryRepo) RecordCheck(ctx context.Context, rec domain.MaintenanceRecord) error {
	if rec.LastCheck.IsZero() {
		rec.LastCheck = time.Now()
	}

	queryBuilder := r.db.squirrel.
		Insert("maintenance_history").
		Columns("store", "kind", "run_id", "checks", "found", "fixed", "remaining", "last_check").
		Values(rec.Store, string(rec.Kind), rec.RunID, 1, rec.Found, rec.Fixed, rec.Remaining, rec.LastCheck.UTC().Format(time.RFC3339)).
		Suffix(`ON CONFLICT (store, kind) DO UPDATE SET
			run_id = excluded.run_id,
			checks = maintenance_history.checks + 1,
			found = excluded.found,
			fixed = maintenance_history.fixed + excluded.fixed,
			remaining = excluded.remaining,
			last_check = excluded.last_check`)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("RecordCheck")

	r.db.lock.Lock()
	defer r.db.lock.Unlock()

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

func (r *HistoryRepo) GetHistory(ctx context.Context, store string) ([]domain.MaintenanceRecord, error) {
	return r.list(ctx, sq.Eq{"store": store})
}

func (r *HistoryRepo) ListHistory(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	return r.list(ctx, nil)
}

func (r *HistoryRepo) list(ctx context.Context, where sq.Sqlizer) ([]domain.MaintenanceRecord, error) {
	queryBuilder := r.db.squirrel.
		Select("store", "kind", "run_id", "checks", "found", "fixed", "remaining", "last_check").
		From("maintenance_history").
		OrderBy("store", "kind")

	if where != nil {
		queryBuilder = queryBuilder.Where(where)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("ListHistory")

	r.db.lock.RLock()
	defer r.db.lock.RUnlock()

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var out []domain.MaintenanceRecord
	for rows.Next() {
		var (
			rec       domain.MaintenanceRecord
			kind      string
			lastCheck sql.NullString
		)
		if err := rows.Scan(&rec.Store, &kind, &rec.RunID, &rec.Checks, &rec.Found, &rec.Fixed, &rec.Remaining, &lastCheck); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		rec.Kind = domain.CheckKind(kind)
		if lastCheck.Valid {
			if t, err := time.Parse(time.RFC3339, lastCheck.String); err == nil {
				rec.LastCheck = t
			}
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return out, nil
}
