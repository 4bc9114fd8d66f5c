package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patchwave/patchwave/internal/domain"
)

// PackageStore implements [domain.PackageService] backed by SQLite.
type PackageStore struct {
	DB *sql.DB
}

func (s *PackageStore) GetByName(ctx context.Context, name string) (domain.PackageInfo, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT name, description, share_path FROM packages WHERE name = ?`, name,
	)
	var info domain.PackageInfo
	if err := row.Scan(&info.Name, &info.Description, &info.SharePath); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PackageInfo{}, fmt.Errorf("package %q: %w", name, domain.ErrNotFound)
		}
		return domain.PackageInfo{}, fmt.Errorf("scan package: %w", err)
	}
	return info, nil
}

func (s *PackageStore) Create(ctx context.Context, name string, spec domain.PackageSpec) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO packages (name, description, share_path) VALUES (?, ?, ?)`,
		name, spec.Description, spec.SharePath,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("package %q: %w", name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

func (s *PackageStore) Remove(ctx context.Context, name string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM packages WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("package %q: %w", name, domain.ErrNotFound)
	}
	return nil
}
