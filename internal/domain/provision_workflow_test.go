package domain_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/patchwave/patchwave/internal/domain"
)

// syncRunnerImpl runs activities synchronously (no durability).
type syncRunnerImpl struct {
	ctx context.Context
}

func (s *syncRunnerImpl) ID() string               { return "test-sync" }
func (s *syncRunnerImpl) Context() context.Context { return s.ctx }
func (s *syncRunnerImpl) Run(activity domain.Activity[any, any], in any) (any, error) {
	return activity.Run(s.ctx, in)
}

// recordingRunner runs activities and records their names and object
// identities in order so tests can assert execution sequence.
type recordingRunner struct {
	ctx      context.Context
	records  []activityRecord
	delegate domain.DurableRunner
}

type activityRecord struct {
	Name   string
	Object string
}

func (r *recordingRunner) ID() string               { return r.delegate.ID() }
func (r *recordingRunner) Context() context.Context { return r.ctx }

func (r *recordingRunner) Run(activity domain.Activity[any, any], in any) (any, error) {
	rec := activityRecord{Name: activity.Name()}
	switch v := in.(type) {
	case domain.EnsureInput:
		rec.Object = v.Entry.Name
	case domain.RemoveInput:
		rec.Object = v.Entry.Name
	case domain.AttachPhaseInput:
		rec.Object = v.RuleName
	case domain.MarkDeployedInput:
		rec.Object = v.RuleName
	}
	r.records = append(r.records, rec)
	return r.delegate.Run(activity, in)
}

func exampleInput(mode domain.Mode) domain.ProvisionInput {
	return domain.ProvisionInput{Mode: mode, Catalog: validCatalog()}
}

func runWorkflow(t *testing.T, m *fakeManagement, in domain.ProvisionInput) (domain.RunReport, *recordingRunner) {
	t.Helper()
	wf := &domain.ProvisionWorkflow{Provisioner: m.provisioner()}
	ctx := context.Background()
	recorder := &recordingRunner{ctx: ctx, delegate: &syncRunnerImpl{ctx: ctx}}
	report, err := wf.Run(recorder, in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report, recorder
}

func TestProvisionWorkflow_InstallCreatesEverything(t *testing.T) {
	m := newFakeManagement()
	report, _ := runWorkflow(t, m, exampleInput(domain.ModeInstall))

	tally := report.Tally()
	if tally.Created != 4 || tally.Failed != 0 {
		t.Fatalf("tally = %+v, want 4 created, 0 failed", tally)
	}

	rule := m.rules["weekly-definitions"]
	if rule == nil {
		t.Fatal("rule not created")
	}
	if len(rule.phases) != 2 {
		t.Errorf("rule phases = %d, want 2", len(rule.phases))
	}
	if rule.phases[0].TargetGroup != "pilot" || rule.phases[1].TargetGroup != "broad" {
		t.Errorf("phases attached out of catalog order: %+v", rule.phases)
	}
	if !rule.deployed {
		t.Error("rule with Deploy set was not marked deployed")
	}
}

func TestProvisionWorkflow_SecondInstallIsIdempotent(t *testing.T) {
	m := newFakeManagement()
	runWorkflow(t, m, exampleInput(domain.ModeInstall))
	appendsAfterFirst := m.appendCalls

	report, _ := runWorkflow(t, m, exampleInput(domain.ModeInstall))

	tally := report.Tally()
	if tally.AlreadyPresent != 4 || tally.Created != 0 || tally.Failed != 0 {
		t.Fatalf("tally = %+v, want 4 already-present", tally)
	}
	if m.appendCalls != appendsAfterFirst {
		t.Errorf("phase attach calls on second run = %d, want 0", m.appendCalls-appendsAfterFirst)
	}
}

func TestProvisionWorkflow_FailureDoesNotStopRun(t *testing.T) {
	m := newFakeManagement()
	m.createErr["pilot"] = fmt.Errorf("%w: invalid membership query", domain.ErrRejected)

	report, _ := runWorkflow(t, m, exampleInput(domain.ModeInstall))

	tally := report.Tally()
	if tally.Failed != 1 {
		t.Fatalf("tally.Failed = %d, want 1", tally.Failed)
	}
	if tally.Created != 3 {
		t.Fatalf("tally.Created = %d, want 3 (later entries must still be attempted)", tally.Created)
	}
	if len(report.Ensures) != 4 {
		t.Fatalf("Ensures len = %d, want 4", len(report.Ensures))
	}
	if report.Ensures[0].Status != domain.EnsureFailed {
		t.Errorf("first result = %q, want failed", report.Ensures[0].Status)
	}
}

func TestProvisionWorkflow_PhaseFailureDoesNotRollBack(t *testing.T) {
	m := newFakeManagement()
	catalog := validCatalog()
	// Second phase targets a group the backend rejects at attach time.
	m.rejectPhaseFor = "broad"

	report, _ := runWorkflow(t, m, domain.ProvisionInput{Mode: domain.ModeInstall, Catalog: catalog})

	if len(report.PhaseErrs) != 1 {
		t.Fatalf("PhaseErrs len = %d, want 1", len(report.PhaseErrs))
	}
	if report.PhaseErrs[0].TargetGroup != "broad" {
		t.Errorf("PhaseErrs[0].TargetGroup = %q, want %q", report.PhaseErrs[0].TargetGroup, "broad")
	}

	rule := m.rules["weekly-definitions"]
	if rule == nil {
		t.Fatal("rule must survive a phase-attach failure")
	}
	if len(rule.phases) != 1 {
		t.Errorf("earlier phases must survive: got %d, want 1", len(rule.phases))
	}
}

func TestProvisionWorkflow_UninstallReverseOrder(t *testing.T) {
	m := newFakeManagement()
	runWorkflow(t, m, exampleInput(domain.ModeInstall))

	report, recorder := runWorkflow(t, m, exampleInput(domain.ModeUninstall))

	tally := report.Tally()
	if tally.Removed != 4 {
		t.Fatalf("tally.Removed = %d, want 4", tally.Removed)
	}

	var removeOrder []string
	for _, rec := range recorder.records {
		if rec.Name == "remove-object" {
			removeOrder = append(removeOrder, rec.Object)
		}
	}
	want := []string{"weekly-definitions", "definitions", "broad", "pilot"}
	if len(removeOrder) != len(want) {
		t.Fatalf("remove order = %v, want %v", removeOrder, want)
	}
	for i := range want {
		if removeOrder[i] != want[i] {
			t.Fatalf("remove order = %v, want exact reverse of creation order %v", removeOrder, want)
		}
	}
}

func TestProvisionWorkflow_UninstallBlockedGroup(t *testing.T) {
	m := newFakeManagement()
	runWorkflow(t, m, exampleInput(domain.ModeInstall))
	m.assoc["pilot"] = 1

	report, _ := runWorkflow(t, m, exampleInput(domain.ModeUninstall))

	tally := report.Tally()
	if tally.Blocked != 1 {
		t.Fatalf("tally.Blocked = %d, want 1", tally.Blocked)
	}
	if tally.Removed != 3 {
		t.Fatalf("tally.Removed = %d, want 3", tally.Removed)
	}
	if _, ok := m.groups["pilot"]; !ok {
		t.Error("blocked group must be left intact")
	}
}

func TestProvisionWorkflow_UnsupportedMode(t *testing.T) {
	wf := &domain.ProvisionWorkflow{Provisioner: newFakeManagement().provisioner()}
	ctx := context.Background()
	_, err := wf.Run(&syncRunnerImpl{ctx: ctx}, domain.ProvisionInput{Mode: "sideways"})
	if err == nil {
		t.Fatal("expected error for unsupported mode")
	}
}
