package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository loads and stores accounts. Lookups of a missing user
// return ErrUserNotFound.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail ignores case
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByIDs skips unknown IDs, so the result may be shorter than ids
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts or updates; a duplicate email yields ErrEmailTaken
	Save(ctx context.Context, user *User) error
}
