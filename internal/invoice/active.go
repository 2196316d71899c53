package invoice

import (
	"context"
	"fmt"
)

var _ Repository = (*ActiveRepository)(nil)

// ActiveRepository exposes the working draft through Repository. Only the
// active id is addressable; deleting it resets the editor.
type ActiveRepository struct {
	svc *Service
}

func NewActiveRepository(svc *Service) *ActiveRepository {
	return &ActiveRepository{svc: svc}
}

func (r *ActiveRepository) Save(ctx context.Context, inv Invoice) error {
	return r.svc.Replace(ctx, inv)
}

func (r *ActiveRepository) Get(_ context.Context, id string) (Invoice, error) {
	inv := r.svc.Active()
	if inv.ID != id {
		return Invoice{}, fmt.Errorf("%w: %s", ErrNotActive, id)
	}

	return inv, nil
}

func (r *ActiveRepository) Update(ctx context.Context, inv Invoice) error {
	if r.svc.Active().ID != inv.ID {
		return fmt.Errorf("%w: %s", ErrNotActive, inv.ID)
	}

	return r.svc.Replace(ctx, inv)
}

func (r *ActiveRepository) Delete(ctx context.Context, id string) error {
	if r.svc.Active().ID != id {
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}

	return r.svc.Clear(ctx)
}
