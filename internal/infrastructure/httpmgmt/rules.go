package httpmgmt

import (
	"context"
	"net/http"
	"time"

	"github.com/patchwave/patchwave/internal/domain"
)

// RuleClient implements [domain.RuleService] against the endpoint's
// /rules resource. Phases are appended one at a time; the endpoint owns
// phase ordering and the derived update group.
type RuleClient struct {
	c *Client
}

type rulePayload struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Criteria    map[string]string `json:"criteria,omitempty"`
	Deployed    bool              `json:"deployed"`
	PhaseCount  int               `json:"phase_count"`
}

// phasePayload carries deadlines in whole minutes, matching the rule
// document schema.
type phasePayload struct {
	TargetGroup             string `json:"target_group"`
	DeadlineMinutes         int    `json:"deadline_minutes"`
	Notify                  string `json:"notify,omitempty"`
	SuppressRestart         bool   `json:"suppress_restart"`
	IgnoreMaintenanceWindow bool   `json:"ignore_maintenance_window"`
}

type deployedPayload struct {
	Deployed bool `json:"deployed"`
}

func (r *RuleClient) GetByName(ctx context.Context, name string) (domain.RuleInfo, error) {
	var p rulePayload
	if err := r.c.do(ctx, http.MethodGet, r.c.apipath("rules", name), nil, &p); err != nil {
		return domain.RuleInfo{}, err
	}
	return domain.RuleInfo{Name: p.Name, Deployed: p.Deployed, PhaseCount: p.PhaseCount}, nil
}

func (r *RuleClient) Create(ctx context.Context, name string, spec domain.RuleSpec) error {
	p := rulePayload{
		Name:        name,
		Description: spec.Description,
		Criteria:    spec.Criteria,
	}
	return r.c.do(ctx, http.MethodPost, r.c.apipath("rules"), p, nil)
}

func (r *RuleClient) AppendPhase(ctx context.Context, ruleName string, phase domain.Phase) error {
	p := phasePayload{
		TargetGroup:             phase.TargetGroup,
		DeadlineMinutes:         int(phase.Deadline / time.Minute),
		Notify:                  string(phase.Notify),
		SuppressRestart:         phase.SuppressRestart,
		IgnoreMaintenanceWindow: phase.IgnoreMaintenanceWindow,
	}
	return r.c.do(ctx, http.MethodPost, r.c.apipath("rules", ruleName, "phases"), p, nil)
}

func (r *RuleClient) SetDeployed(ctx context.Context, ruleName string, deployed bool) error {
	p := deployedPayload{Deployed: deployed}
	return r.c.do(ctx, http.MethodPut, r.c.apipath("rules", ruleName, "deployed"), p, nil)
}

func (r *RuleClient) Remove(ctx context.Context, name string) error {
	return r.c.do(ctx, http.MethodDelete, r.c.apipath("rules", name), nil, nil)
}
