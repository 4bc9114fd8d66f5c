package httpmgmt

import (
	"context"
	"net/http"

	"github.com/patchwave/patchwave/internal/domain"
)

// PackageClient implements [domain.PackageService] against the endpoint's
// /packages resource.
type PackageClient struct {
	c *Client
}

type packagePayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SharePath   string `json:"share_path"`
}

func (p *PackageClient) GetByName(ctx context.Context, name string) (domain.PackageInfo, error) {
	var pl packagePayload
	if err := p.c.do(ctx, http.MethodGet, p.c.apipath("packages", name), nil, &pl); err != nil {
		return domain.PackageInfo{}, err
	}
	return domain.PackageInfo{Name: pl.Name, Description: pl.Description, SharePath: pl.SharePath}, nil
}

func (p *PackageClient) Create(ctx context.Context, name string, spec domain.PackageSpec) error {
	pl := packagePayload{
		Name:        name,
		Description: spec.Description,
		SharePath:   spec.SharePath,
	}
	return p.c.do(ctx, http.MethodPost, p.c.apipath("packages"), pl, nil)
}

func (p *PackageClient) Remove(ctx context.Context, name string) error {
	return p.c.do(ctx, http.MethodDelete, p.c.apipath("packages", name), nil, nil)
}
