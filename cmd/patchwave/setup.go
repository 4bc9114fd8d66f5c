package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	wfsqlite "github.com/cschleiden/go-workflows/backend/sqlite"
	"github.com/cschleiden/go-workflows/client"
	"github.com/cschleiden/go-workflows/worker"
	"github.com/dbos-inc/dbos-transact-golang/dbos"

	"github.com/patchwave/patchwave/internal/application"
	"github.com/patchwave/patchwave/internal/config"
	"github.com/patchwave/patchwave/internal/domain"
	"github.com/patchwave/patchwave/internal/infrastructure/dbosworkflows"
	"github.com/patchwave/patchwave/internal/infrastructure/goworkflows"
	"github.com/patchwave/patchwave/internal/infrastructure/httpmgmt"
	"github.com/patchwave/patchwave/internal/infrastructure/keyringcred"
	"github.com/patchwave/patchwave/internal/infrastructure/sqlite"
	"github.com/patchwave/patchwave/internal/infrastructure/syncworkflow"
)

// app bundles everything a command needs, with a shutdown function that
// releases the engine and the state DB.
type app struct {
	provision *application.ProvisionService
	shutdown  func()
}

// buildApp assembles the provisioning service from config: management
// ports (remote endpoint or local store), workflow engine, run history.
func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.StateDB)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	closers := []func(){func() { _ = db.Close() }}
	shutdown := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	prov, err := buildProvisioner(cfg, db)
	if err != nil {
		shutdown()
		return nil, err
	}

	wf := &domain.ProvisionWorkflow{Provisioner: prov}
	runner, cleanup, err := buildRunner(ctx, cfg, wf)
	if err != nil {
		shutdown()
		return nil, err
	}
	if cleanup != nil {
		closers = append(closers, cleanup)
	}

	return &app{
		provision: &application.ProvisionService{
			Workflow: runner,
			History:  &sqlite.RunRepo{DB: db},
			Log:      logger,
		},
		shutdown: shutdown,
	}, nil
}

func buildProvisioner(cfg config.Config, db *sql.DB) (*domain.Provisioner, error) {
	if cfg.Standalone {
		return &domain.Provisioner{
			Groups:   &sqlite.GroupStore{DB: db},
			Packages: &sqlite.PackageStore{DB: db},
			Rules:    &sqlite.RuleStore{DB: db},
		}, nil
	}

	opts, err := endpointAuth(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	c := httpmgmt.NewClient(cfg.Endpoint.URL, opts...)
	return &domain.Provisioner{
		Groups:   c.Groups(),
		Packages: c.Packages(),
		Rules:    c.Rules(),
	}, nil
}

func endpointAuth(ep config.EndpointConfig) ([]httpmgmt.Option, error) {
	if ep.Username == "" {
		return nil, nil
	}
	password := ep.Password
	if password == config.KeyringPassword {
		store := &keyringcred.Store{}
		cred, err := store.Lookup(ep.URL)
		if err != nil {
			return nil, fmt.Errorf("endpoint credentials: %w", err)
		}
		password = cred.Password
	}
	return []httpmgmt.Option{httpmgmt.WithBasicAuth(ep.Username, password)}, nil
}

// buildRunner selects the workflow engine. The returned cleanup stops the
// engine; it is nil for the sync engine.
func buildRunner(ctx context.Context, cfg config.Config, wf *domain.ProvisionWorkflow) (domain.ProvisionRunner, func(), error) {
	switch cfg.Engine {
	case config.EngineSync:
		engine := &syncworkflow.Engine{}
		runner, err := engine.ProvisionRunner(wf)
		return runner, nil, err

	case config.EngineGoWorkflows:
		b := wfsqlite.NewInMemoryBackend()
		w := worker.New(b, nil)
		workerCtx, cancel := context.WithCancel(ctx)
		if err := w.Start(workerCtx); err != nil {
			cancel()
			return nil, nil, fmt.Errorf("start workflow worker: %w", err)
		}
		cleanup := func() {
			cancel()
			_ = w.WaitForCompletion()
		}

		engine := &goworkflows.Engine{
			Worker:  w,
			Client:  client.New(b),
			Timeout: 10 * time.Minute,
		}
		runner, err := engine.ProvisionRunner(wf)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return runner, cleanup, nil

	case config.EngineDBOS:
		dbosCtx, err := dbos.NewContext(ctx, dbos.Config{
			AppName:     "patchwave",
			DatabaseURL: cfg.DatabaseURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("initialize dbos: %w", err)
		}
		engine := &dbosworkflows.Engine{DBOSCtx: dbosCtx}
		runner, err := engine.ProvisionRunner(wf)
		if err != nil {
			return nil, nil, err
		}
		if err := dbos.Launch(dbosCtx); err != nil {
			return nil, nil, fmt.Errorf("launch dbos: %w", err)
		}
		cleanup := func() { dbos.Shutdown(dbosCtx, 5*time.Second) }
		return runner, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
}
