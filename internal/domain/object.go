package domain

import "time"

// ObjectKind identifies the kind of a provisioned object. Names are unique
// within a kind, not across kinds.
type ObjectKind string

const (
	KindGroup   ObjectKind = "group"
	KindPackage ObjectKind = "package"
	KindRule    ObjectKind = "rule"
)

// NotifyPolicy controls end-user notification for a deployment phase.
type NotifyPolicy string

const (
	NotifyNone      NotifyPolicy = "none"
	NotifyAvailable NotifyPolicy = "available"
	NotifyDeadline  NotifyPolicy = "deadline"
)

// GroupSpec is the desired configuration of a device group: a named,
// persisted collection of managed endpoints.
type GroupSpec struct {
	Description string
	// Members are endpoint identifiers seeded into the group at creation.
	// An empty list creates an empty group.
	Members []string
}

// PackageSpec is the desired configuration of an update source package:
// a named reference to a file-share location holding update content.
type PackageSpec struct {
	Description string
	SharePath   string
}

// Phase is one deployment wave of a rule. It targets a single device group
// with its own deadline and notification policy. Values are applied exactly
// as configured per entry; the platform infers no cross-phase policy.
type Phase struct {
	TargetGroup string
	// Deadline is the enforcement delay after an update becomes available.
	// Zero means immediate enforcement.
	Deadline                time.Duration
	Notify                  NotifyPolicy
	SuppressRestart         bool
	IgnoreMaintenanceWindow bool
}

// RuleSpec is the desired configuration of an auto-deployment rule: an
// automation rule that periodically selects updates matching criteria and
// deploys them in one or more phases.
type RuleSpec struct {
	Description string
	// Criteria select the updates the rule deploys, as property/value
	// pairs understood by the management endpoint.
	Criteria map[string]string
	// Deploy controls whether the rule's deployed flag is set after the
	// rule is created. It is the one post-creation mutation the
	// provisioner performs.
	Deploy bool
	Phases []Phase
}

// GroupInfo describes a device group as known to the management endpoint.
type GroupInfo struct {
	Name        string
	Description string
}

// PackageInfo describes an update source package as known to the
// management endpoint.
type PackageInfo struct {
	Name        string
	Description string
	SharePath   string
}

// RuleInfo describes an auto-deployment rule as known to the management
// endpoint.
type RuleInfo struct {
	Name       string
	Deployed   bool
	PhaseCount int
}
