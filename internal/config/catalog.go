package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/patchwave/patchwave/internal/domain"
)

// Catalog file schema. The file is the declarative input to a run: an
// ordered list of objects, dependencies first.
type catalogFile struct {
	Objects []catalogEntry `yaml:"objects"`
}

type catalogEntry struct {
	Kind      string      `yaml:"kind"`
	Name      string      `yaml:"name"`
	DependsOn string      `yaml:"depends_on"`
	Group     *groupEntry `yaml:"group"`
	Package   *pkgEntry   `yaml:"package"`
	Rule      *ruleEntry  `yaml:"rule"`
}

type groupEntry struct {
	Description string   `yaml:"description"`
	Members     []string `yaml:"members"`
}

type pkgEntry struct {
	Description string `yaml:"description"`
	SharePath   string `yaml:"share_path"`
}

type ruleEntry struct {
	Description string            `yaml:"description"`
	Criteria    map[string]string `yaml:"criteria"`
	Deploy      bool              `yaml:"deploy"`
	Phases      []phaseEntry      `yaml:"phases"`
}

type phaseEntry struct {
	TargetGroup             string `yaml:"target_group"`
	Deadline                string `yaml:"deadline"`
	Notify                  string `yaml:"notify"`
	SuppressRestart         bool   `yaml:"suppress_restart"`
	IgnoreMaintenanceWindow bool   `yaml:"ignore_maintenance_window"`
}

// LoadCatalog reads and validates a catalog file. Relative package share
// paths are joined onto sharePathBase; deadlines use Go duration syntax
// ("72h", "30m"). Validation failures wrap [domain.ErrInvalidArgument].
func LoadCatalog(path, sharePathBase string) (domain.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: parse catalog %s: %v", domain.ErrInvalidArgument, path, err)
	}

	catalog := make(domain.Catalog, 0, len(file.Objects))
	for _, e := range file.Objects {
		entry, err := e.toDomain(sharePathBase)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, entry)
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (e catalogEntry) toDomain(sharePathBase string) (domain.CatalogEntry, error) {
	out := domain.CatalogEntry{
		Kind:      domain.ObjectKind(e.Kind),
		Name:      e.Name,
		DependsOn: e.DependsOn,
	}

	if e.Group != nil {
		out.Group = &domain.GroupSpec{
			Description: e.Group.Description,
			Members:     e.Group.Members,
		}
	}
	if e.Package != nil {
		out.Package = &domain.PackageSpec{
			Description: e.Package.Description,
			SharePath:   joinSharePath(sharePathBase, e.Package.SharePath),
		}
	}
	if e.Rule != nil {
		spec := &domain.RuleSpec{
			Description: e.Rule.Description,
			Criteria:    e.Rule.Criteria,
			Deploy:      e.Rule.Deploy,
		}
		for _, p := range e.Rule.Phases {
			phase, err := p.toDomain(e.Name)
			if err != nil {
				return domain.CatalogEntry{}, err
			}
			spec.Phases = append(spec.Phases, phase)
		}
		out.Rule = spec
	}
	return out, nil
}

func (p phaseEntry) toDomain(ruleName string) (domain.Phase, error) {
	out := domain.Phase{
		TargetGroup:             p.TargetGroup,
		Notify:                  domain.NotifyPolicy(p.Notify),
		SuppressRestart:         p.SuppressRestart,
		IgnoreMaintenanceWindow: p.IgnoreMaintenanceWindow,
	}
	if p.Notify == "" {
		out.Notify = domain.NotifyNone
	}
	if p.Deadline != "" {
		d, err := time.ParseDuration(p.Deadline)
		if err != nil {
			return domain.Phase{}, fmt.Errorf("%w: rule %q phase deadline %q: %v",
				domain.ErrInvalidArgument, ruleName, p.Deadline, err)
		}
		out.Deadline = d
	}
	return out, nil
}

// joinSharePath joins a relative share path onto the configured base.
// Absolute paths, UNC paths, and URLs pass through untouched. The
// separator follows the base, so UNC bases keep backslashes.
func joinSharePath(base, p string) string {
	if base == "" || p == "" || isAbsShare(p) {
		return p
	}
	sep := "/"
	if strings.Contains(base, `\`) {
		sep = `\`
	}
	return strings.TrimRight(base, `\/`) + sep + p
}

func isAbsShare(p string) bool {
	return strings.HasPrefix(p, `\\`) ||
		strings.HasPrefix(p, "/") ||
		strings.Contains(p, "://") ||
		(len(p) > 1 && p[1] == ':')
}
