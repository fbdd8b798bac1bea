package principals

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repo defines lookup and update operations over the credential store.
// No business logic lives here beyond lookup/update.
type Repo interface {
	Upsert(ctx context.Context, principal *Principal) error
	Delete(ctx context.Context, email string) error
	GetByEmail(ctx context.Context, email string) (*Principal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Principal, error)
	List(ctx context.Context, offset, limit int) ([]*Principal, error)
	SetStatus(ctx context.Context, email string, status StatusType) error

	// UpdateLastLogin is best-effort: callers log failures and continue,
	// it must never fail a login response.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}
