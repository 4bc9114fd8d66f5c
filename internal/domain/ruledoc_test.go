package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/patchwave/patchwave/internal/domain"
)

func TestSetDeployedFlag_InsertsWhenAbsent(t *testing.T) {
	doc := domain.NewRuleDocument("r1", domain.RuleSpec{
		Description: "weekly definitions",
		Criteria:    map[string]string{"UpdateClassification": "Definition Updates"},
	})
	raw, err := domain.MarshalRuleDocument(doc)
	if err != nil {
		t.Fatalf("MarshalRuleDocument: %v", err)
	}
	if strings.Contains(string(raw), "<Deployed>") {
		t.Fatal("fresh document must not carry a Deployed element")
	}

	patched, err := domain.SetDeployedFlag(raw, true)
	if err != nil {
		t.Fatalf("SetDeployedFlag: %v", err)
	}

	got, err := domain.ParseRuleDocument(patched)
	if err != nil {
		t.Fatalf("ParseRuleDocument: %v", err)
	}
	if got.Deployed == nil || !*got.Deployed {
		t.Error("Deployed not set to true")
	}
	if got.Name != "r1" {
		t.Errorf("Name = %q, want %q", got.Name, "r1")
	}
	if got.Description != "weekly definitions" {
		t.Errorf("Description = %q, want preserved", got.Description)
	}
	if len(got.Criteria) != 1 || got.Criteria[0].Property != "UpdateClassification" {
		t.Errorf("Criteria = %v, want preserved", got.Criteria)
	}
}

func TestSetDeployedFlag_OverwritesExisting(t *testing.T) {
	doc := domain.NewRuleDocument("r1", domain.RuleSpec{})
	deployed := true
	doc.Deployed = &deployed
	raw, err := domain.MarshalRuleDocument(doc)
	if err != nil {
		t.Fatal(err)
	}

	patched, err := domain.SetDeployedFlag(raw, false)
	if err != nil {
		t.Fatalf("SetDeployedFlag: %v", err)
	}
	got, err := domain.ParseRuleDocument(patched)
	if err != nil {
		t.Fatal(err)
	}
	if got.Deployed == nil || *got.Deployed {
		t.Error("Deployed not overwritten to false")
	}
}

func TestSetDeployedFlag_PreservesPhases(t *testing.T) {
	doc := domain.NewRuleDocument("r1", domain.RuleSpec{})
	doc.Phases = []domain.RulePhase{
		domain.DocumentPhase(domain.Phase{
			TargetGroup:             "broad",
			Deadline:                168 * time.Hour,
			Notify:                  domain.NotifyDeadline,
			SuppressRestart:         true,
			IgnoreMaintenanceWindow: true,
		}),
	}
	raw, err := domain.MarshalRuleDocument(doc)
	if err != nil {
		t.Fatal(err)
	}

	patched, err := domain.SetDeployedFlag(raw, true)
	if err != nil {
		t.Fatalf("SetDeployedFlag: %v", err)
	}
	got, err := domain.ParseRuleDocument(patched)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Phases) != 1 {
		t.Fatalf("Phases len = %d, want 1", len(got.Phases))
	}
	p := got.Phases[0]
	if p.TargetGroup != "broad" || p.DeadlineMinutes != 168*60 || !p.SuppressRestart || !p.IgnoreMaintenanceWindow {
		t.Errorf("phase not preserved: %+v", p)
	}
}

func TestParseRuleDocument_RejectsWrongRoot(t *testing.T) {
	_, err := domain.ParseRuleDocument([]byte(`<SomethingElse><Name>x</Name></SomethingElse>`))
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("ParseRuleDocument: got %v, want ErrInvalidArgument", err)
	}
}

func TestParseRuleDocument_RejectsMalformed(t *testing.T) {
	_, err := domain.ParseRuleDocument([]byte(`<AutoDeploymentRule><Name>`))
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("ParseRuleDocument: got %v, want ErrInvalidArgument", err)
	}
}
