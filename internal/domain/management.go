package domain

import "context"

// GroupService is the management-endpoint surface for device groups.
// Lookup is by unique name; GetByName returns [ErrNotFound] when absent.
type GroupService interface {
	GetByName(ctx context.Context, name string) (GroupInfo, error)
	Create(ctx context.Context, name string, spec GroupSpec) error
	Remove(ctx context.Context, name string) error

	// ActiveAssociations reports how many external associations still
	// reference the group. Teardown is blocked while the count is
	// non-zero.
	ActiveAssociations(ctx context.Context, name string) (int, error)
}

// PackageService is the management-endpoint surface for update source
// packages.
type PackageService interface {
	GetByName(ctx context.Context, name string) (PackageInfo, error)
	Create(ctx context.Context, name string, spec PackageSpec) error
	Remove(ctx context.Context, name string) error
}

// RuleService is the management-endpoint surface for auto-deployment rules.
//
// Remove also removes the rule's phases and any derived update group with a
// matching name, best-effort.
type RuleService interface {
	GetByName(ctx context.Context, name string) (RuleInfo, error)
	Create(ctx context.Context, name string, spec RuleSpec) error
	AppendPhase(ctx context.Context, ruleName string, phase Phase) error

	// SetDeployed flips the deployed flag inside the rule's stored rule
	// document.
	SetDeployed(ctx context.Context, ruleName string, deployed bool) error
	Remove(ctx context.Context, name string) error
}
