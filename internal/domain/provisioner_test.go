package domain_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/patchwave/patchwave/internal/domain"
)

// fakeManagement is an in-memory management endpoint shared by the three
// port fakes. Error injection is per object name.
type fakeManagement struct {
	groups   map[string]domain.GroupSpec
	packages map[string]domain.PackageSpec
	rules    map[string]*fakeRule
	assoc    map[string]int

	createErr map[string]error
	lookupErr map[string]error
	// rejectPhaseFor makes AppendPhase fail for phases targeting the
	// named group.
	rejectPhaseFor string

	createCalls int
	appendCalls int
}

type fakeRule struct {
	spec     domain.RuleSpec
	phases   []domain.Phase
	deployed bool
}

func newFakeManagement() *fakeManagement {
	return &fakeManagement{
		groups:    make(map[string]domain.GroupSpec),
		packages:  make(map[string]domain.PackageSpec),
		rules:     make(map[string]*fakeRule),
		assoc:     make(map[string]int),
		createErr: make(map[string]error),
		lookupErr: make(map[string]error),
	}
}

func (m *fakeManagement) provisioner() *domain.Provisioner {
	return &domain.Provisioner{
		Groups:   fakeGroups{m},
		Packages: fakePackages{m},
		Rules:    fakeRules{m},
	}
}

type fakeGroups struct{ m *fakeManagement }

func (f fakeGroups) GetByName(_ context.Context, name string) (domain.GroupInfo, error) {
	if err := f.m.lookupErr[name]; err != nil {
		return domain.GroupInfo{}, err
	}
	spec, ok := f.m.groups[name]
	if !ok {
		return domain.GroupInfo{}, fmt.Errorf("group %q: %w", name, domain.ErrNotFound)
	}
	return domain.GroupInfo{Name: name, Description: spec.Description}, nil
}

func (f fakeGroups) Create(_ context.Context, name string, spec domain.GroupSpec) error {
	f.m.createCalls++
	if err := f.m.createErr[name]; err != nil {
		return err
	}
	if _, ok := f.m.groups[name]; ok {
		return fmt.Errorf("group %q: %w", name, domain.ErrAlreadyExists)
	}
	f.m.groups[name] = spec
	return nil
}

func (f fakeGroups) Remove(_ context.Context, name string) error {
	if _, ok := f.m.groups[name]; !ok {
		return fmt.Errorf("group %q: %w", name, domain.ErrNotFound)
	}
	delete(f.m.groups, name)
	return nil
}

func (f fakeGroups) ActiveAssociations(_ context.Context, name string) (int, error) {
	return f.m.assoc[name], nil
}

type fakePackages struct{ m *fakeManagement }

func (f fakePackages) GetByName(_ context.Context, name string) (domain.PackageInfo, error) {
	if err := f.m.lookupErr[name]; err != nil {
		return domain.PackageInfo{}, err
	}
	spec, ok := f.m.packages[name]
	if !ok {
		return domain.PackageInfo{}, fmt.Errorf("package %q: %w", name, domain.ErrNotFound)
	}
	return domain.PackageInfo{Name: name, Description: spec.Description, SharePath: spec.SharePath}, nil
}

func (f fakePackages) Create(_ context.Context, name string, spec domain.PackageSpec) error {
	f.m.createCalls++
	if err := f.m.createErr[name]; err != nil {
		return err
	}
	if _, ok := f.m.packages[name]; ok {
		return fmt.Errorf("package %q: %w", name, domain.ErrAlreadyExists)
	}
	f.m.packages[name] = spec
	return nil
}

func (f fakePackages) Remove(_ context.Context, name string) error {
	if _, ok := f.m.packages[name]; !ok {
		return fmt.Errorf("package %q: %w", name, domain.ErrNotFound)
	}
	delete(f.m.packages, name)
	return nil
}

type fakeRules struct{ m *fakeManagement }

func (f fakeRules) GetByName(_ context.Context, name string) (domain.RuleInfo, error) {
	if err := f.m.lookupErr[name]; err != nil {
		return domain.RuleInfo{}, err
	}
	r, ok := f.m.rules[name]
	if !ok {
		return domain.RuleInfo{}, fmt.Errorf("rule %q: %w", name, domain.ErrNotFound)
	}
	return domain.RuleInfo{Name: name, Deployed: r.deployed, PhaseCount: len(r.phases)}, nil
}

func (f fakeRules) Create(_ context.Context, name string, spec domain.RuleSpec) error {
	f.m.createCalls++
	if err := f.m.createErr[name]; err != nil {
		return err
	}
	if _, ok := f.m.rules[name]; ok {
		return fmt.Errorf("rule %q: %w", name, domain.ErrAlreadyExists)
	}
	f.m.rules[name] = &fakeRule{spec: spec}
	return nil
}

func (f fakeRules) AppendPhase(_ context.Context, ruleName string, phase domain.Phase) error {
	f.m.appendCalls++
	r, ok := f.m.rules[ruleName]
	if !ok {
		return fmt.Errorf("rule %q: %w", ruleName, domain.ErrNotFound)
	}
	if f.m.rejectPhaseFor != "" && phase.TargetGroup == f.m.rejectPhaseFor {
		return fmt.Errorf("%w: phase rejected", domain.ErrRejected)
	}
	r.phases = append(r.phases, phase)
	return nil
}

func (f fakeRules) SetDeployed(_ context.Context, ruleName string, deployed bool) error {
	r, ok := f.m.rules[ruleName]
	if !ok {
		return fmt.Errorf("rule %q: %w", ruleName, domain.ErrNotFound)
	}
	r.deployed = deployed
	return nil
}

func (f fakeRules) Remove(_ context.Context, name string) error {
	if _, ok := f.m.rules[name]; !ok {
		return fmt.Errorf("rule %q: %w", name, domain.ErrNotFound)
	}
	delete(f.m.rules, name)
	return nil
}

func groupEntry(name string) domain.CatalogEntry {
	return domain.CatalogEntry{Kind: domain.KindGroup, Name: name, Group: &domain.GroupSpec{}}
}

func packageEntry(name string) domain.CatalogEntry {
	return domain.CatalogEntry{
		Kind:    domain.KindPackage,
		Name:    name,
		Package: &domain.PackageSpec{SharePath: `\\srv\updates`},
	}
}

func TestEnsure_CreatesWhenAbsent(t *testing.T) {
	m := newFakeManagement()
	p := m.provisioner()

	res := p.Ensure(context.Background(), groupEntry("g1"))
	if res.Status != domain.EnsureCreated {
		t.Fatalf("Status = %q, want %q (err: %s)", res.Status, domain.EnsureCreated, res.Err)
	}
	if _, ok := m.groups["g1"]; !ok {
		t.Error("group not created in backend")
	}
}

func TestEnsure_TwiceIsIdempotent(t *testing.T) {
	m := newFakeManagement()
	p := m.provisioner()
	ctx := context.Background()
	entry := groupEntry("g1")

	first := p.Ensure(ctx, entry)
	second := p.Ensure(ctx, entry)

	if first.Status != domain.EnsureCreated {
		t.Errorf("first Ensure = %q, want %q", first.Status, domain.EnsureCreated)
	}
	if second.Status != domain.EnsureAlreadyPresent {
		t.Errorf("second Ensure = %q, want %q", second.Status, domain.EnsureAlreadyPresent)
	}
	if m.createCalls != 1 {
		t.Errorf("create calls = %d, want 1 (second Ensure must not write)", m.createCalls)
	}
}

func TestEnsure_CreateFailureCaptured(t *testing.T) {
	m := newFakeManagement()
	m.createErr["g1"] = fmt.Errorf("%w: quota exceeded", domain.ErrRejected)
	p := m.provisioner()

	res := p.Ensure(context.Background(), groupEntry("g1"))
	if res.Status != domain.EnsureFailed {
		t.Fatalf("Status = %q, want %q", res.Status, domain.EnsureFailed)
	}
	if !strings.Contains(res.Err, "quota exceeded") {
		t.Errorf("Err = %q, want underlying error captured", res.Err)
	}
}

func TestEnsure_LookupFailureCaptured(t *testing.T) {
	m := newFakeManagement()
	m.lookupErr["p1"] = fmt.Errorf("%w: dial tcp: connection refused", domain.ErrConnection)
	p := m.provisioner()

	res := p.Ensure(context.Background(), packageEntry("p1"))
	if res.Status != domain.EnsureFailed {
		t.Fatalf("Status = %q, want %q", res.Status, domain.EnsureFailed)
	}
	if m.createCalls != 0 {
		t.Errorf("create calls = %d, want 0 when lookup fails", m.createCalls)
	}
}

func TestEnsure_LostCreationRaceIsAlreadyPresent(t *testing.T) {
	m := newFakeManagement()
	m.lookupErr["g1"] = fmt.Errorf("group %q: %w", "g1", domain.ErrNotFound)
	m.createErr["g1"] = fmt.Errorf("group %q: %w", "g1", domain.ErrAlreadyExists)
	p := m.provisioner()

	res := p.Ensure(context.Background(), groupEntry("g1"))
	if res.Status != domain.EnsureAlreadyPresent {
		t.Fatalf("Status = %q, want %q", res.Status, domain.EnsureAlreadyPresent)
	}
}

func TestRemove_BlockedByActiveAssociation(t *testing.T) {
	m := newFakeManagement()
	m.groups["g1"] = domain.GroupSpec{}
	m.assoc["g1"] = 2
	p := m.provisioner()
	ctx := context.Background()

	res := p.Remove(ctx, groupEntry("g1"))
	if res.Status != domain.RemoveBlocked {
		t.Fatalf("Status = %q, want %q", res.Status, domain.RemoveBlocked)
	}
	if _, ok := m.groups["g1"]; !ok {
		t.Error("blocked group must be left intact")
	}

	// Once the association is cleared, removal proceeds.
	m.assoc["g1"] = 0
	res = p.Remove(ctx, groupEntry("g1"))
	if res.Status != domain.RemoveRemoved {
		t.Fatalf("Status after clearing = %q, want %q", res.Status, domain.RemoveRemoved)
	}
}

func TestRemove_NotFound(t *testing.T) {
	m := newFakeManagement()
	p := m.provisioner()

	res := p.Remove(context.Background(), packageEntry("p1"))
	if res.Status != domain.RemoveNotFound {
		t.Fatalf("Status = %q, want %q", res.Status, domain.RemoveNotFound)
	}
}

func TestAttachPhase_WrapsError(t *testing.T) {
	m := newFakeManagement()
	p := m.provisioner()

	err := p.AttachPhase(context.Background(), "missing", domain.Phase{TargetGroup: "g1"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("AttachPhase: got %v, want ErrNotFound", err)
	}
}
