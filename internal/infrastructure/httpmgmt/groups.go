package httpmgmt

import (
	"context"
	"net/http"

	"github.com/patchwave/patchwave/internal/domain"
)

// GroupClient implements [domain.GroupService] against the endpoint's
// /groups resource.
type GroupClient struct {
	c *Client
}

type groupPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members,omitempty"`
}

type associationsPayload struct {
	Count int `json:"count"`
}

func (g *GroupClient) GetByName(ctx context.Context, name string) (domain.GroupInfo, error) {
	var p groupPayload
	if err := g.c.do(ctx, http.MethodGet, g.c.apipath("groups", name), nil, &p); err != nil {
		return domain.GroupInfo{}, err
	}
	return domain.GroupInfo{Name: p.Name, Description: p.Description}, nil
}

func (g *GroupClient) Create(ctx context.Context, name string, spec domain.GroupSpec) error {
	p := groupPayload{
		Name:        name,
		Description: spec.Description,
		Members:     spec.Members,
	}
	return g.c.do(ctx, http.MethodPost, g.c.apipath("groups"), p, nil)
}

func (g *GroupClient) Remove(ctx context.Context, name string) error {
	return g.c.do(ctx, http.MethodDelete, g.c.apipath("groups", name), nil, nil)
}

func (g *GroupClient) ActiveAssociations(ctx context.Context, name string) (int, error) {
	var p associationsPayload
	if err := g.c.do(ctx, http.MethodGet, g.c.apipath("groups", name, "associations"), nil, &p); err != nil {
		return 0, err
	}
	return p.Count, nil
}
