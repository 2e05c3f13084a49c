// Package store persists pipeline runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sartorproj/goecon/pipeline"
	"github.com/sartorproj/goecon/transform"
)

// ErrNotFound is returned for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run summarises one stored run.
type Run struct {
	ID        int64
	CreatedAt time.Time
	Target    string
	Selected  []string
	RSquared  float64
	// RMSE is NaN when the run had no hold-out rows.
	RMSE float64
}

// Store is a SQLite backed run archive.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the database at path and its tables. ":memory:"
// gives a private in-memory database.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// one connection keeps an in-memory database alive and serialises writes
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		logger.Warn("failed to set WAL mode", zap.Error(err))
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at INTEGER NOT NULL,
			target TEXT NOT NULL,
			selected TEXT NOT NULL,
			r_squared REAL,
			rmse REAL,
			report TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS recipe_entries (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			variable TEXT NOT NULL,
			diff_order INTEGER NOT NULL,
			output TEXT NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS rankings (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			predictors TEXT NOT NULL,
			capacity REAL NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
	}
	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// SaveRun stores the report, its recipe and its ranking in one
// transaction and returns the new run id.
func (s *Store) SaveRun(ctx context.Context, report *pipeline.Report) (int64, error) {
	doc, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("encoding report: %w", err)
	}

	target := ""
	if report.Config != nil {
		target = report.Config.TargetTransformed
	}
	var r2, rmse sql.NullFloat64
	if report.Model != nil {
		r2 = nullable(float64(report.Model.RSquared))
	}
	if report.Metrics != nil {
		rmse = nullable(float64(report.Metrics.RMSE))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, target, selected, r_squared, rmse, report) VALUES (?, ?, ?, ?, ?, ?)`,
		s.now().UTC().UnixMilli(), target, strings.Join(report.Selected, ","), r2, rmse, string(doc))
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if report.Recipe != nil {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO recipe_entries (run_id, position, variable, diff_order, output) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		for i, e := range report.Recipe.Entries() {
			if _, err := stmt.ExecContext(ctx, id, i, e.Variable, e.Order, e.Output); err != nil {
				return 0, fmt.Errorf("inserting recipe entry %s: %w", e.Variable, err)
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rankings (run_id, position, predictors, capacity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for i, c := range report.Ranking {
		if _, err := stmt.ExecContext(ctx, id, i+1, strings.Join(c.Predictors, ","), c.Capacity); err != nil {
			return 0, fmt.Errorf("inserting ranking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.logger.Debug("run saved", zap.Int64("id", id), zap.Int("ranking", len(report.Ranking)))
	return id, nil
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, target, selected, r_squared, rmse FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			created  int64
			selected string
			r2, rmse sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &created, &r.Target, &selected, &r2, &rmse); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(created).UTC()
		if selected != "" {
			r.Selected = strings.Split(selected, ",")
		}
		r.RSquared, r.RMSE = orNaN(r2), orNaN(rmse)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// LoadReport returns the full report of a run.
func (s *Store) LoadReport(ctx context.Context, id int64) (*pipeline.Report, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var report pipeline.Report
	if err := json.Unmarshal([]byte(doc), &report); err != nil {
		return nil, fmt.Errorf("decoding report %d: %w", id, err)
	}
	return &report, nil
}

// LoadRecipe rebuilds the transformation recipe of a run, ready to be
// applied to new data.
func (s *Store) LoadRecipe(ctx context.Context, id int64) (*transform.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT variable, diff_order, output FROM recipe_entries WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []transform.Entry
	for rows.Next() {
		var e transform.Entry
		if err := rows.Scan(&e.Variable, &e.Order, &e.Output); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	if len(entries) == 0 {
		if err := s.exists(ctx, id); err != nil {
			return nil, err
		}
	}
	return transform.NewRecipe(entries...)
}

// DeleteRun removes a run and everything stored with it.
func (s *Store) DeleteRun(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"recipe_entries", "rankings"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", table), id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return tx.Commit()
}

func (s *Store) exists(ctx context.Context, id int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
