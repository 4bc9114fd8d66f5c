package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patchwave/patchwave/internal/domain"
)

// ProvisionService validates a catalog, runs it through the provisioning
// workflow, and records the run in history. The catalog is validated up
// front so a malformed configuration fails fast instead of partway through
// a run.
type ProvisionService struct {
	Workflow domain.ProvisionRunner
	History  domain.RunHistory
	Log      *zap.Logger

	// Now and NewID exist for deterministic tests; nil means wall clock
	// and random UUIDs.
	Now   func() time.Time
	NewID func() string
}

// Install ensures every catalog entry exists, in catalog order.
func (s *ProvisionService) Install(ctx context.Context, catalog domain.Catalog) (domain.RunReport, error) {
	return s.run(ctx, domain.ModeInstall, catalog)
}

// Uninstall removes every catalog entry, in reverse catalog order.
func (s *ProvisionService) Uninstall(ctx context.Context, catalog domain.Catalog) (domain.RunReport, error) {
	return s.run(ctx, domain.ModeUninstall, catalog)
}

func (s *ProvisionService) run(ctx context.Context, mode domain.Mode, catalog domain.Catalog) (domain.RunReport, error) {
	if err := catalog.Validate(); err != nil {
		return domain.RunReport{}, fmt.Errorf("validate catalog: %w", err)
	}

	runID := s.newID()
	started := s.now()
	log := s.log().With(zap.String("run_id", runID), zap.String("mode", string(mode)))
	log.Info("starting provisioning run", zap.Int("objects", len(catalog)))

	handle, err := s.Workflow.Run(ctx, domain.ProvisionInput{Mode: mode, Catalog: catalog})
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("start provision workflow: %w", err)
	}
	report, err := handle.AwaitResult(ctx)
	if err != nil {
		return report, fmt.Errorf("await provision workflow: %w", err)
	}

	tally := report.Tally()
	log.Info("provisioning run finished",
		zap.Int("created", tally.Created),
		zap.Int("already_present", tally.AlreadyPresent),
		zap.Int("removed", tally.Removed),
		zap.Int("not_found", tally.NotFound),
		zap.Int("blocked", tally.Blocked),
		zap.Int("failed", tally.Failed),
	)

	if s.History != nil {
		rec := domain.RunRecord{
			ID:         runID,
			Mode:       mode,
			StartedAt:  started,
			FinishedAt: s.now(),
			Report:     report,
		}
		if err := s.History.Put(ctx, rec); err != nil {
			return report, fmt.Errorf("record run history: %w", err)
		}
	}
	return report, nil
}

func (s *ProvisionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ProvisionService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *ProvisionService) log() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
