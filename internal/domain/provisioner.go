package domain

import (
	"context"
	"errors"
	"fmt"
)

// Provisioner ensures and removes single catalog entries against the
// management endpoint. It is strictly idempotent: an object found by name
// is never mutated, so ensuring the same entry twice yields Created then
// AlreadyPresent with no write on the second call. Failures are captured
// in the result rather than returned, so a caller can keep processing the
// rest of the catalog.
type Provisioner struct {
	Groups   GroupService
	Packages PackageService
	Rules    RuleService
}

// Ensure makes the entry's object exist with its desired configuration,
// creating it if absent and leaving it untouched if already present.
// Phase attachment for rules is a separate step (see [Provisioner.AttachPhase]);
// Ensure creates only the base object.
func (p *Provisioner) Ensure(ctx context.Context, entry CatalogEntry) EnsureResult {
	res := EnsureResult{Kind: entry.Kind, Name: entry.Name}

	exists, err := p.lookup(ctx, entry)
	if err != nil {
		res.Status = EnsureFailed
		res.Err = fmt.Sprintf("lookup: %v", err)
		return res
	}
	if exists {
		res.Status = EnsureAlreadyPresent
		return res
	}

	if err := p.create(ctx, entry); err != nil {
		// Lost race with a concurrent creator still satisfies the
		// desired state.
		if errors.Is(err, ErrAlreadyExists) {
			res.Status = EnsureAlreadyPresent
			return res
		}
		res.Status = EnsureFailed
		res.Err = fmt.Sprintf("create: %v", err)
		return res
	}
	res.Status = EnsureCreated
	return res
}

// AttachPhase appends one deployment phase to a freshly created rule.
// Callers attach phases in catalog order after Ensure returns Created.
func (p *Provisioner) AttachPhase(ctx context.Context, ruleName string, phase Phase) error {
	if err := p.Rules.AppendPhase(ctx, ruleName, phase); err != nil {
		return fmt.Errorf("attach phase targeting %q to rule %q: %w", phase.TargetGroup, ruleName, err)
	}
	return nil
}

// MarkDeployed sets the deployed flag on a rule after creation. It is the
// only mutation performed on an existing object.
func (p *Provisioner) MarkDeployed(ctx context.Context, ruleName string) error {
	if err := p.Rules.SetDeployed(ctx, ruleName, true); err != nil {
		return fmt.Errorf("mark rule %q deployed: %w", ruleName, err)
	}
	return nil
}

// Remove deletes the entry's object. Groups with active external
// associations are reported Blocked and left intact. Removing a rule
// implicitly removes its phases and any derived update group with a
// matching name.
func (p *Provisioner) Remove(ctx context.Context, entry CatalogEntry) RemoveResult {
	res := RemoveResult{Kind: entry.Kind, Name: entry.Name}

	if entry.Kind == KindGroup {
		n, err := p.Groups.ActiveAssociations(ctx, entry.Name)
		if err != nil && !errors.Is(err, ErrNotFound) {
			res.Status = RemoveFailed
			res.Err = fmt.Sprintf("check associations: %v", err)
			return res
		}
		if n > 0 {
			res.Status = RemoveBlocked
			res.Err = fmt.Sprintf("%d active association(s)", n)
			return res
		}
	}

	err := p.remove(ctx, entry)
	switch {
	case err == nil:
		res.Status = RemoveRemoved
	case errors.Is(err, ErrNotFound):
		res.Status = RemoveNotFound
	case errors.Is(err, ErrBlocked):
		res.Status = RemoveBlocked
		res.Err = err.Error()
	default:
		res.Status = RemoveFailed
		res.Err = err.Error()
	}
	return res
}

func (p *Provisioner) lookup(ctx context.Context, entry CatalogEntry) (bool, error) {
	var err error
	switch entry.Kind {
	case KindGroup:
		_, err = p.Groups.GetByName(ctx, entry.Name)
	case KindPackage:
		_, err = p.Packages.GetByName(ctx, entry.Name)
	case KindRule:
		_, err = p.Rules.GetByName(ctx, entry.Name)
	default:
		return false, fmt.Errorf("%w: unsupported object kind %q", ErrInvalidArgument, entry.Kind)
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provisioner) create(ctx context.Context, entry CatalogEntry) error {
	switch entry.Kind {
	case KindGroup:
		return p.Groups.Create(ctx, entry.Name, *entry.Group)
	case KindPackage:
		return p.Packages.Create(ctx, entry.Name, *entry.Package)
	case KindRule:
		return p.Rules.Create(ctx, entry.Name, *entry.Rule)
	default:
		return fmt.Errorf("%w: unsupported object kind %q", ErrInvalidArgument, entry.Kind)
	}
}

func (p *Provisioner) remove(ctx context.Context, entry CatalogEntry) error {
	switch entry.Kind {
	case KindGroup:
		return p.Groups.Remove(ctx, entry.Name)
	case KindPackage:
		return p.Packages.Remove(ctx, entry.Name)
	case KindRule:
		return p.Rules.Remove(ctx, entry.Name)
	default:
		return fmt.Errorf("%w: unsupported object kind %q", ErrInvalidArgument, entry.Kind)
	}
}
