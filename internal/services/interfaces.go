package services

import (
	"context"

	"dupsweep/internal/domain"
)

type Scanner interface {
	Scan(ctx context.Context, req ScanRequest) (ScanResult, error)
}

type Applier interface {
	Apply(ctx context.Context, groups []domain.DuplicateGroup, action Action) (ActionResult, error)
}
