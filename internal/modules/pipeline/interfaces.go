package pipeline

import (
	"context"

	"mukamba/internal/domain/lead"
)

// Repository persists the lead collection
type Repository interface {
	Create(ctx context.Context, l *lead.Lead) error
	Update(ctx context.Context, updated lead.Lead, p lead.Patch) error
	UpdateMany(ctx context.Context, mutations []lead.Mutation) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	List(ctx context.Context) ([]lead.Lead, error)
}

// Broadcaster pushes change events to connected agents
type Broadcaster interface {
	Broadcast(ev Event) int
}
