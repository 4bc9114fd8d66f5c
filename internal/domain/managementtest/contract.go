// Package managementtest provides contract tests for implementations of
// the management-endpoint ports ([domain.GroupService],
// [domain.PackageService], [domain.RuleService]).
package managementtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patchwave/patchwave/internal/domain"
)

// Services bundles one implementation of the three management ports.
// Associate and ClearAssociations let the contract exercise
// association-blocked teardown; implementations without local control over
// associations may leave them nil to skip those cases.
type Services struct {
	Groups   domain.GroupService
	Packages domain.PackageService
	Rules    domain.RuleService

	Associate         func(t *testing.T, group string)
	ClearAssociations func(t *testing.T, group string)
}

// Factory creates a fresh [Services] for each test invocation.
type Factory func(t *testing.T) Services

// Run exercises the management port contract.
func Run(t *testing.T, factory Factory) {
	t.Run("GroupCreateAndGet", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Groups.Create(ctx, "Pilot Workstations", domain.GroupSpec{
			Description: "phase one devices",
			Members:     []string{"ws-001", "ws-002"},
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := s.Groups.GetByName(ctx, "Pilot Workstations")
		if err != nil {
			t.Fatalf("GetByName: %v", err)
		}
		if got.Name != "Pilot Workstations" {
			t.Errorf("Name = %q, want %q", got.Name, "Pilot Workstations")
		}
		if got.Description != "phase one devices" {
			t.Errorf("Description = %q, want %q", got.Description, "phase one devices")
		}
	})

	t.Run("GroupCreateDuplicate", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Groups.Create(ctx, "g1", domain.GroupSpec{}); err != nil {
			t.Fatalf("first Create: %v", err)
		}
		err := s.Groups.Create(ctx, "g1", domain.GroupSpec{})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("second Create: got %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("GroupGetNotFound", func(t *testing.T) {
		s := factory(t)
		_, err := s.Groups.GetByName(context.Background(), "nonexistent")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetByName: got %v, want ErrNotFound", err)
		}
	})

	t.Run("GroupRemove", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Groups.Create(ctx, "g1", domain.GroupSpec{}); err != nil {
			t.Fatal(err)
		}
		if err := s.Groups.Remove(ctx, "g1"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		_, err := s.Groups.GetByName(ctx, "g1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetByName after Remove: got %v, want ErrNotFound", err)
		}
	})

	t.Run("GroupRemoveNotFound", func(t *testing.T) {
		s := factory(t)
		err := s.Groups.Remove(context.Background(), "nonexistent")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Remove: got %v, want ErrNotFound", err)
		}
	})

	t.Run("GroupAssociations", func(t *testing.T) {
		s := factory(t)
		if s.Associate == nil {
			t.Skip("implementation does not control associations")
		}
		ctx := context.Background()

		if err := s.Groups.Create(ctx, "g1", domain.GroupSpec{}); err != nil {
			t.Fatal(err)
		}
		n, err := s.Groups.ActiveAssociations(ctx, "g1")
		if err != nil {
			t.Fatalf("ActiveAssociations: %v", err)
		}
		if n != 0 {
			t.Fatalf("ActiveAssociations = %d, want 0", n)
		}

		s.Associate(t, "g1")
		n, err = s.Groups.ActiveAssociations(ctx, "g1")
		if err != nil {
			t.Fatalf("ActiveAssociations: %v", err)
		}
		if n != 1 {
			t.Fatalf("ActiveAssociations = %d, want 1", n)
		}

		s.ClearAssociations(t, "g1")
		n, _ = s.Groups.ActiveAssociations(ctx, "g1")
		if n != 0 {
			t.Fatalf("ActiveAssociations after clear = %d, want 0", n)
		}
	})

	t.Run("PackageCreateGetRemove", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Packages.Create(ctx, "Definition Updates", domain.PackageSpec{
			Description: "definition update content",
			SharePath:   `\\fileserver\updates\definitions`,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := s.Packages.GetByName(ctx, "Definition Updates")
		if err != nil {
			t.Fatalf("GetByName: %v", err)
		}
		if got.SharePath != `\\fileserver\updates\definitions` {
			t.Errorf("SharePath = %q", got.SharePath)
		}

		err = s.Packages.Create(ctx, "Definition Updates", domain.PackageSpec{SharePath: "x"})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("duplicate Create: got %v, want ErrAlreadyExists", err)
		}

		if err := s.Packages.Remove(ctx, "Definition Updates"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		_, err = s.Packages.GetByName(ctx, "Definition Updates")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetByName after Remove: got %v, want ErrNotFound", err)
		}
	})

	t.Run("RuleCreateWithPhases", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Rules.Create(ctx, "Weekly Definitions", domain.RuleSpec{
			Description: "deploy definition updates weekly",
			Criteria:    map[string]string{"UpdateClassification": "Definition Updates"},
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}

		phases := []domain.Phase{
			{TargetGroup: "pilot", Notify: domain.NotifyNone},
			{TargetGroup: "broad", Deadline: 168 * time.Hour, Notify: domain.NotifyDeadline, SuppressRestart: true},
		}
		for _, p := range phases {
			if err := s.Rules.AppendPhase(ctx, "Weekly Definitions", p); err != nil {
				t.Fatalf("AppendPhase %q: %v", p.TargetGroup, err)
			}
		}

		got, err := s.Rules.GetByName(ctx, "Weekly Definitions")
		if err != nil {
			t.Fatalf("GetByName: %v", err)
		}
		if got.PhaseCount != 2 {
			t.Errorf("PhaseCount = %d, want 2", got.PhaseCount)
		}
		if got.Deployed {
			t.Error("Deployed = true before SetDeployed")
		}
	})

	t.Run("RuleSetDeployed", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Rules.Create(ctx, "r1", domain.RuleSpec{}); err != nil {
			t.Fatal(err)
		}
		if err := s.Rules.SetDeployed(ctx, "r1", true); err != nil {
			t.Fatalf("SetDeployed: %v", err)
		}
		got, err := s.Rules.GetByName(ctx, "r1")
		if err != nil {
			t.Fatalf("GetByName: %v", err)
		}
		if !got.Deployed {
			t.Error("Deployed = false after SetDeployed(true)")
		}
	})

	t.Run("RuleRemoveCascadesPhases", func(t *testing.T) {
		s := factory(t)
		ctx := context.Background()

		if err := s.Rules.Create(ctx, "r1", domain.RuleSpec{}); err != nil {
			t.Fatal(err)
		}
		if err := s.Rules.AppendPhase(ctx, "r1", domain.Phase{TargetGroup: "g1"}); err != nil {
			t.Fatal(err)
		}
		if err := s.Rules.Remove(ctx, "r1"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		_, err := s.Rules.GetByName(ctx, "r1")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetByName after Remove: got %v, want ErrNotFound", err)
		}

		// Recreating under the same name starts clean.
		if err := s.Rules.Create(ctx, "r1", domain.RuleSpec{}); err != nil {
			t.Fatalf("recreate: %v", err)
		}
		got, err := s.Rules.GetByName(ctx, "r1")
		if err != nil {
			t.Fatal(err)
		}
		if got.PhaseCount != 0 {
			t.Errorf("PhaseCount after recreate = %d, want 0", got.PhaseCount)
		}
	})

	t.Run("RuleAppendPhaseNotFound", func(t *testing.T) {
		s := factory(t)
		err := s.Rules.AppendPhase(context.Background(), "nonexistent", domain.Phase{TargetGroup: "g1"})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("AppendPhase: got %v, want ErrNotFound", err)
		}
	})
}
