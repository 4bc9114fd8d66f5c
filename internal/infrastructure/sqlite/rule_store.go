package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patchwave/patchwave/internal/domain"
)

// RuleStore implements [domain.RuleService] backed by SQLite. Rules are
// stored as their XML rule document, the same representation the remote
// endpoint keeps, so the deployed flag goes through the document patch
// helper rather than a column update.
type RuleStore struct {
	DB *sql.DB
}

func (s *RuleStore) GetByName(ctx context.Context, name string) (domain.RuleInfo, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT r.rule_document, COUNT(p.rule_name)
		 FROM rules r LEFT JOIN rule_phases p ON p.rule_name = r.name
		 WHERE r.name = ?
		 GROUP BY r.name`,
		name,
	)
	var raw string
	var phases int
	if err := row.Scan(&raw, &phases); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RuleInfo{}, fmt.Errorf("rule %q: %w", name, domain.ErrNotFound)
		}
		return domain.RuleInfo{}, fmt.Errorf("scan rule: %w", err)
	}

	doc, err := domain.ParseRuleDocument([]byte(raw))
	if err != nil {
		return domain.RuleInfo{}, fmt.Errorf("rule %q: %w", name, err)
	}
	info := domain.RuleInfo{Name: name, PhaseCount: phases}
	if doc.Deployed != nil {
		info.Deployed = *doc.Deployed
	}
	return info, nil
}

func (s *RuleStore) Create(ctx context.Context, name string, spec domain.RuleSpec) error {
	raw, err := domain.MarshalRuleDocument(domain.NewRuleDocument(name, spec))
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO rules (name, rule_document) VALUES (?, ?)`,
		name, string(raw),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rule %q: %w", name, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

func (s *RuleStore) AppendPhase(ctx context.Context, ruleName string, phase domain.Phase) error {
	if _, err := s.GetByName(ctx, ruleName); err != nil {
		return err
	}

	dp := domain.DocumentPhase(phase)
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO rule_phases
		 (rule_name, position, target_group, deadline_minutes, notify, suppress_restart, ignore_maintenance_window)
		 VALUES (?, (SELECT COUNT(*) FROM rule_phases WHERE rule_name = ?), ?, ?, ?, ?, ?)`,
		ruleName, ruleName, dp.TargetGroup, dp.DeadlineMinutes, dp.Notify, dp.SuppressRestart, dp.IgnoreMaintenanceWindow,
	)
	if err != nil {
		return fmt.Errorf("insert phase: %w", err)
	}
	return nil
}

func (s *RuleStore) SetDeployed(ctx context.Context, ruleName string, deployed bool) error {
	row := s.DB.QueryRowContext(ctx,
		`SELECT rule_document FROM rules WHERE name = ?`, ruleName,
	)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("rule %q: %w", ruleName, domain.ErrNotFound)
		}
		return fmt.Errorf("scan rule: %w", err)
	}

	patched, err := domain.SetDeployedFlag([]byte(raw), deployed)
	if err != nil {
		return fmt.Errorf("rule %q: %w", ruleName, err)
	}
	if _, err := s.DB.ExecContext(ctx,
		`UPDATE rules SET rule_document = ? WHERE name = ?`, string(patched), ruleName,
	); err != nil {
		return fmt.Errorf("update rule document: %w", err)
	}

	// A deployed rule generates an update group named after it; an
	// undeployed rule's derived group goes away.
	if deployed {
		_, err = s.DB.ExecContext(ctx,
			`INSERT OR IGNORE INTO update_groups (name, rule_name) VALUES (?, ?)`,
			ruleName, ruleName,
		)
	} else {
		_, err = s.DB.ExecContext(ctx,
			`DELETE FROM update_groups WHERE rule_name = ?`, ruleName,
		)
	}
	if err != nil {
		return fmt.Errorf("update derived group: %w", err)
	}
	return nil
}

func (s *RuleStore) Remove(ctx context.Context, name string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM rules WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("rule %q: %w", name, domain.ErrNotFound)
	}

	// Phases cascade with the rule row; the derived update group is
	// removed best-effort.
	_, _ = s.DB.ExecContext(ctx, `DELETE FROM update_groups WHERE rule_name = ?`, name)
	return nil
}

// HasUpdateGroup reports whether a derived update group exists for the
// rule. Exposed for tests and the runs inspection command.
func (s *RuleStore) HasUpdateGroup(ctx context.Context, ruleName string) (bool, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM update_groups WHERE rule_name = ?`, ruleName,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("count update groups: %w", err)
	}
	return n > 0, nil
}
