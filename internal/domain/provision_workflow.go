package domain

import (
	"context"
	"fmt"
)

// ProvisionInput is the serializable input of one provisioning run.
type ProvisionInput struct {
	Mode    Mode
	Catalog Catalog
}

// EnsureInput is the input of the ensure-object activity.
type EnsureInput struct {
	Entry CatalogEntry
}

// AttachPhaseInput is the input of the attach-phase activity.
type AttachPhaseInput struct {
	RuleName string
	Phase    Phase
}

// AttachPhaseOutput carries a captured phase-attach failure. Err is empty
// on success; failures never fail the activity itself, so the run keeps
// going.
type AttachPhaseOutput struct {
	Err string
}

// MarkDeployedInput is the input of the mark-rule-deployed activity.
type MarkDeployedInput struct {
	RuleName string
}

// MarkDeployedOutput carries a captured deployed-flag failure.
type MarkDeployedOutput struct {
	Err string
}

// RemoveInput is the input of the remove-object activity.
type RemoveInput struct {
	Entry CatalogEntry
}

// ProvisionWorkflow processes a catalog sequentially, one object at a
// time: install mode ensures every entry in catalog order, uninstall mode
// removes every entry in exact reverse order. Per-object failures are
// captured in the report and never abort the run. All remote access
// happens in activities so durable engines can checkpoint each step.
type ProvisionWorkflow struct {
	Provisioner *Provisioner
}

func (w *ProvisionWorkflow) Name() string { return "provision" }

// EnsureObject is the ensure-object activity: create-if-absent for a
// single catalog entry.
func (w *ProvisionWorkflow) EnsureObject() Activity[EnsureInput, EnsureResult] {
	return NewActivity("ensure-object", func(ctx context.Context, in EnsureInput) (EnsureResult, error) {
		return w.Provisioner.Ensure(ctx, in.Entry), nil
	})
}

// AttachPhase is the attach-phase activity: append one deployment phase to
// a freshly created rule.
func (w *ProvisionWorkflow) AttachPhase() Activity[AttachPhaseInput, AttachPhaseOutput] {
	return NewActivity("attach-phase", func(ctx context.Context, in AttachPhaseInput) (AttachPhaseOutput, error) {
		if err := w.Provisioner.AttachPhase(ctx, in.RuleName, in.Phase); err != nil {
			return AttachPhaseOutput{Err: err.Error()}, nil
		}
		return AttachPhaseOutput{}, nil
	})
}

// MarkRuleDeployed is the mark-rule-deployed activity: set the deployed
// flag on a rule whose spec asks for it.
func (w *ProvisionWorkflow) MarkRuleDeployed() Activity[MarkDeployedInput, MarkDeployedOutput] {
	return NewActivity("mark-rule-deployed", func(ctx context.Context, in MarkDeployedInput) (MarkDeployedOutput, error) {
		if err := w.Provisioner.MarkDeployed(ctx, in.RuleName); err != nil {
			return MarkDeployedOutput{Err: err.Error()}, nil
		}
		return MarkDeployedOutput{}, nil
	})
}

// RemoveObject is the remove-object activity: delete a single catalog
// entry, blocked-aware for groups.
func (w *ProvisionWorkflow) RemoveObject() Activity[RemoveInput, RemoveResult] {
	return NewActivity("remove-object", func(ctx context.Context, in RemoveInput) (RemoveResult, error) {
		return w.Provisioner.Remove(ctx, in.Entry), nil
	})
}

// Run executes the workflow body against the given runner. The body is
// deterministic: all I/O happens inside activities.
func (w *ProvisionWorkflow) Run(runner DurableRunner, in ProvisionInput) (RunReport, error) {
	switch in.Mode {
	case ModeInstall:
		return w.install(runner, in.Catalog)
	case ModeUninstall:
		return w.uninstall(runner, in.Catalog)
	default:
		return RunReport{}, fmt.Errorf("%w: unsupported mode %q", ErrInvalidArgument, in.Mode)
	}
}

func (w *ProvisionWorkflow) install(runner DurableRunner, catalog Catalog) (RunReport, error) {
	report := RunReport{Mode: ModeInstall}

	for _, entry := range catalog {
		res, err := RunActivity(runner, w.EnsureObject(), EnsureInput{Entry: entry})
		if err != nil {
			return report, fmt.Errorf("ensure %s %q: %w", entry.Kind, entry.Name, err)
		}
		report.Ensures = append(report.Ensures, res)

		// Phases and the deployed flag are applied only to rules this
		// run created; an already-present rule is never touched.
		if entry.Kind != KindRule || res.Status != EnsureCreated {
			continue
		}
		for _, phase := range entry.Rule.Phases {
			out, err := RunActivity(runner, w.AttachPhase(), AttachPhaseInput{
				RuleName: entry.Name,
				Phase:    phase,
			})
			if err != nil {
				return report, fmt.Errorf("attach phase to rule %q: %w", entry.Name, err)
			}
			if out.Err != "" {
				report.PhaseErrs = append(report.PhaseErrs, PhaseError{
					RuleName:    entry.Name,
					TargetGroup: phase.TargetGroup,
					Err:         out.Err,
				})
			}
		}
		if entry.Rule.Deploy {
			out, err := RunActivity(runner, w.MarkRuleDeployed(), MarkDeployedInput{RuleName: entry.Name})
			if err != nil {
				return report, fmt.Errorf("mark rule %q deployed: %w", entry.Name, err)
			}
			if out.Err != "" {
				report.PhaseErrs = append(report.PhaseErrs, PhaseError{
					RuleName: entry.Name,
					Err:      out.Err,
				})
			}
		}
	}
	return report, nil
}

func (w *ProvisionWorkflow) uninstall(runner DurableRunner, catalog Catalog) (RunReport, error) {
	report := RunReport{Mode: ModeUninstall}

	for _, entry := range catalog.Reversed() {
		res, err := RunActivity(runner, w.RemoveObject(), RemoveInput{Entry: entry})
		if err != nil {
			return report, fmt.Errorf("remove %s %q: %w", entry.Kind, entry.Name, err)
		}
		report.Removes = append(report.Removes, res)
	}
	return report, nil
}
