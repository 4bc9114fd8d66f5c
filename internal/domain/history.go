package domain

import (
	"context"
	"time"
)

// RunRecord is the persisted trace of one provisioning run.
type RunRecord struct {
	ID         string
	Mode       Mode
	StartedAt  time.Time
	FinishedAt time.Time
	Report     RunReport
}

// RunHistory persists and retrieves run records.
type RunHistory interface {
	Put(ctx context.Context, rec RunRecord) error
	Get(ctx context.Context, id string) (RunRecord, error)
	List(ctx context.Context) ([]RunRecord, error)
}
