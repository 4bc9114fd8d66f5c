package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/patchwave/patchwave/internal/domain"
)

// GroupStore implements [domain.GroupService] backed by SQLite.
type GroupStore struct {
	DB *sql.DB
}

func (s *GroupStore) GetByName(ctx context.Context, name string) (domain.GroupInfo, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT name, description FROM device_groups WHERE name = ?`, name,
	)
	var info domain.GroupInfo
	if err := row.Scan(&info.Name, &info.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.GroupInfo{}, fmt.Errorf("group %q: %w", name, domain.ErrNotFound)
		}
		return domain.GroupInfo{}, fmt.Errorf("scan group: %w", err)
	}
	return info, nil
}

func (s *GroupStore) Create(ctx context.Context, name string, spec domain.GroupSpec) error {
	members, err := json.Marshal(spec.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO device_groups (name, description, members) VALUES (?, ?, ?)`,
		name, spec.Description, string(members),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("group %q: %w", name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (s *GroupStore) Remove(ctx context.Context, name string) error {
	// Refuse like the real endpoint would while anything external still
	// references the group.
	n, err := s.ActiveAssociations(ctx, name)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("group %q has %d active association(s): %w", name, n, domain.ErrBlocked)
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM device_groups WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("group %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

func (s *GroupStore) ActiveAssociations(ctx context.Context, name string) (int, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_associations WHERE group_name = ?`, name,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count associations: %w", err)
	}
	return n, nil
}

// Associate records an external association on a group, as a deployment or
// policy referencing it would on a real endpoint.
func (s *GroupStore) Associate(ctx context.Context, name, source string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_associations (group_name, source) VALUES (?, ?)`,
		name, source,
	)
	if err != nil {
		return fmt.Errorf("insert association: %w", err)
	}
	return nil
}

// ClearAssociations drops every recorded association for a group.
func (s *GroupStore) ClearAssociations(ctx context.Context, name string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM group_associations WHERE group_name = ?`, name,
	)
	if err != nil {
		return fmt.Errorf("delete associations: %w", err)
	}
	return nil
}
