package repository

import (
	"context"

	"github.com/oksasatya/user-account-service/internal/domain/entity"
)

// UserRepository defines the interface for user persistence. Reads return the
// full row including the credential hash; outward representations are shaped
// through entity.ToResponse. All read paths except GetByEmailForAuth are
// scoped to active records.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByEmailForAuth ignores the active flag so authentication can
	// distinguish a deactivated account from an unknown one. When several
	// rows share the address, the active one is returned.
	GetByEmailForAuth(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, f entity.ListFilter) ([]*entity.User, int64, error)
	Update(ctx context.Context, id string, in entity.UserUpdate) (*entity.User, error)
	// SoftDelete marks the record inactive. Returns false when the record is
	// missing or already inactive.
	SoftDelete(ctx context.Context, id string) (bool, error)
	UpdatePassword(ctx context.Context, id string, hash string) (bool, error)
	SetVerified(ctx context.Context, id string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int64, error)
	GetRecentlyCreated(ctx context.Context, hours int) ([]*entity.User, error)
}
