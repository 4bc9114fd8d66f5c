package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patchwave/patchwave/internal/domain"
	"github.com/patchwave/patchwave/internal/domain/managementtest"
	"github.com/patchwave/patchwave/internal/infrastructure/sqlite"
)

func TestManagementPorts(t *testing.T) {
	managementtest.Run(t, func(t *testing.T) managementtest.Services {
		db := sqlite.OpenTestDB(t)
		groups := &sqlite.GroupStore{DB: db}
		return managementtest.Services{
			Groups:   groups,
			Packages: &sqlite.PackageStore{DB: db},
			Rules:    &sqlite.RuleStore{DB: db},
			Associate: func(t *testing.T, group string) {
				if err := groups.Associate(context.Background(), group, "test-deployment"); err != nil {
					t.Fatalf("Associate: %v", err)
				}
			},
			ClearAssociations: func(t *testing.T, group string) {
				if err := groups.ClearAssociations(context.Background(), group); err != nil {
					t.Fatalf("ClearAssociations: %v", err)
				}
			},
		}
	})
}

func TestGroupStore_RemoveBlockedWhileAssociated(t *testing.T) {
	db := sqlite.OpenTestDB(t)
	store := &sqlite.GroupStore{DB: db}
	ctx := context.Background()

	if err := store.Create(ctx, "g1", domain.GroupSpec{}); err != nil {
		t.Fatal(err)
	}
	if err := store.Associate(ctx, "g1", "deployment-x"); err != nil {
		t.Fatal(err)
	}

	err := store.Remove(ctx, "g1")
	if !errors.Is(err, domain.ErrBlocked) {
		t.Fatalf("Remove: got %v, want ErrBlocked", err)
	}
	if _, err := store.GetByName(ctx, "g1"); err != nil {
		t.Fatalf("blocked group must remain: %v", err)
	}

	if err := store.ClearAssociations(ctx, "g1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ctx, "g1"); err != nil {
		t.Fatalf("Remove after clearing: %v", err)
	}
}

func TestRuleStore_DeployedGeneratesUpdateGroup(t *testing.T) {
	db := sqlite.OpenTestDB(t)
	store := &sqlite.RuleStore{DB: db}
	ctx := context.Background()

	if err := store.Create(ctx, "r1", domain.RuleSpec{}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetDeployed(ctx, "r1", true); err != nil {
		t.Fatal(err)
	}

	has, err := store.HasUpdateGroup(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("deployed rule must generate an update group")
	}

	if err := store.Remove(ctx, "r1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	has, err = store.HasUpdateGroup(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Error("derived update group must be removed with the rule")
	}
}

func TestRunRepo_PutGetList(t *testing.T) {
	db := sqlite.OpenTestDB(t)
	repo := &sqlite.RunRepo{DB: db}
	ctx := context.Background()

	started := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	rec := domain.RunRecord{
		ID:         "run-1",
		Mode:       domain.ModeInstall,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Report: domain.RunReport{
			Mode: domain.ModeInstall,
			Ensures: []domain.EnsureResult{
				{Kind: domain.KindGroup, Name: "g1", Status: domain.EnsureCreated},
			},
		},
	}
	if err := repo.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := repo.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Mode != domain.ModeInstall {
		t.Errorf("Mode = %q", got.Mode)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if len(got.Report.Ensures) != 1 || got.Report.Ensures[0].Name != "g1" {
		t.Errorf("Report not round-tripped: %+v", got.Report)
	}

	if err := repo.Put(ctx, rec); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate Put: got %v, want ErrAlreadyExists", err)
	}

	recs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("List len = %d, want 1", len(recs))
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}
}
