package domain

import "fmt"

// CatalogEntry is one named target object the provisioner is responsible
// for. Exactly one of Group, Package, or Rule must be set, matching Kind.
type CatalogEntry struct {
	Kind ObjectKind
	Name string
	// DependsOn names a group entry that must exist before this one is
	// created. Empty means no dependency.
	DependsOn string

	Group   *GroupSpec
	Package *PackageSpec
	Rule    *RuleSpec
}

// Catalog is the ordered sequence of target objects a run operates on.
// Slice order defines creation order (dependencies first); teardown
// processes the exact reverse.
type Catalog []CatalogEntry

// Validate checks catalog-internal consistency: each entry carries the spec
// matching its kind, (kind, name) pairs are unique, DependsOn references a
// group entry appearing earlier, and every rule phase targets a group
// entry appearing before the rule. All violations wrap [ErrInvalidArgument].
func (c Catalog) Validate() error {
	seen := make(map[ObjectKind]map[string]bool, 3)
	groupsSoFar := make(map[string]bool)

	for i, e := range c {
		if e.Name == "" {
			return fmt.Errorf("%w: catalog entry %d has no name", ErrInvalidArgument, i)
		}
		if err := e.validateSpec(); err != nil {
			return err
		}
		if seen[e.Kind][e.Name] {
			return fmt.Errorf("%w: duplicate %s %q", ErrInvalidArgument, e.Kind, e.Name)
		}
		if seen[e.Kind] == nil {
			seen[e.Kind] = make(map[string]bool)
		}
		seen[e.Kind][e.Name] = true

		if e.DependsOn != "" && !groupsSoFar[e.DependsOn] {
			return fmt.Errorf("%w: %s %q depends on group %q, which does not precede it",
				ErrInvalidArgument, e.Kind, e.Name, e.DependsOn)
		}
		if e.Kind == KindRule {
			for _, p := range e.Rule.Phases {
				if !groupsSoFar[p.TargetGroup] {
					return fmt.Errorf("%w: rule %q phase targets group %q, which does not precede it",
						ErrInvalidArgument, e.Name, p.TargetGroup)
				}
			}
		}
		if e.Kind == KindGroup {
			groupsSoFar[e.Name] = true
		}
	}
	return nil
}

// Reversed returns a copy of the catalog in teardown order: the exact
// reverse of creation order, so dependents are removed before what they
// depend on.
func (c Catalog) Reversed() Catalog {
	out := make(Catalog, len(c))
	for i, e := range c {
		out[len(c)-1-i] = e
	}
	return out
}

func (e CatalogEntry) validateSpec() error {
	switch e.Kind {
	case KindGroup:
		if e.Group == nil || e.Package != nil || e.Rule != nil {
			return fmt.Errorf("%w: group %q must carry exactly a group spec", ErrInvalidArgument, e.Name)
		}
	case KindPackage:
		if e.Package == nil || e.Group != nil || e.Rule != nil {
			return fmt.Errorf("%w: package %q must carry exactly a package spec", ErrInvalidArgument, e.Name)
		}
		if e.Package.SharePath == "" {
			return fmt.Errorf("%w: package %q has no share path", ErrInvalidArgument, e.Name)
		}
	case KindRule:
		if e.Rule == nil || e.Group != nil || e.Package != nil {
			return fmt.Errorf("%w: rule %q must carry exactly a rule spec", ErrInvalidArgument, e.Name)
		}
		for _, p := range e.Rule.Phases {
			if p.TargetGroup == "" {
				return fmt.Errorf("%w: rule %q has a phase with no target group", ErrInvalidArgument, e.Name)
			}
			if p.Deadline < 0 {
				return fmt.Errorf("%w: rule %q has a phase with a negative deadline", ErrInvalidArgument, e.Name)
			}
		}
	default:
		return fmt.Errorf("%w: unsupported object kind %q", ErrInvalidArgument, e.Kind)
	}
	return nil
}
