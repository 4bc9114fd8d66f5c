package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patchwave/patchwave/internal/domain"
)

// RunRepo implements [domain.RunHistory] backed by SQLite.
type RunRepo struct {
	DB *sql.DB
}

func (r *RunRepo) Put(ctx context.Context, rec domain.RunRecord) error {
	report, err := json.Marshal(rec.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO runs (id, mode, started_at, finished_at, report) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Mode),
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(report),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run %q: %w", rec.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, id string) (domain.RunRecord, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, mode, started_at, finished_at, report FROM runs WHERE id = ?`, id,
	)
	return scanRun(row)
}

func (r *RunRepo) List(ctx context.Context) ([]domain.RunRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, mode, started_at, finished_at, report FROM runs ORDER BY started_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []domain.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRun(s scanner) (domain.RunRecord, error) {
	var rec domain.RunRecord
	var mode, started, finished, report string
	if err := s.Scan(&rec.ID, &mode, &started, &finished, &report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, fmt.Errorf("%w", domain.ErrNotFound)
		}
		return rec, fmt.Errorf("scan run: %w", err)
	}
	rec.Mode = domain.Mode(mode)

	var err error
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return rec, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return rec, fmt.Errorf("parse finished_at: %w", err)
	}
	if err := json.Unmarshal([]byte(report), &rec.Report); err != nil {
		return rec, fmt.Errorf("unmarshal report: %w", err)
	}
	return rec, nil
}
