package repository

import (
	"context"
	"errors"

	"personapi/internal/model"
)

var (
	// ErrNotFound is returned when no person matches the lookup.
	ErrNotFound = errors.New("person not found")
	// ErrDuplicateEmail is returned when a write collides with the storage-level unique email constraint.
	ErrDuplicateEmail = errors.New("duplicate email")
)

// PersonRepository defines data access for persons. No business logic here,
// strictly persistence operations. Implementations must enforce email uniqueness
// themselves so that the invariant holds with concurrent writers.
type PersonRepository interface {
	// Insert stores a new person. The ID is assigned by the store; any ID on p is ignored.
	// Returns a copy of p carrying the assigned ID.
	Insert(ctx context.Context, p *model.Person) (*model.Person, error)

	// FindByID returns ErrNotFound when id is absent.
	FindByID(ctx context.Context, id int64) (*model.Person, error)

	// FindByEmail returns the person holding email, ignoring the row whose id equals excludeID.
	// excludeID 0 excludes nothing.
	FindByEmail(ctx context.Context, email string, excludeID int64) (*model.Person, error)

	// FindAllByName returns persons whose name equals name, ordered by id. Never nil.
	FindAllByName(ctx context.Context, name string) ([]model.Person, error)

	// ListAll returns every person ordered by id. Never nil.
	ListAll(ctx context.Context) ([]model.Person, error)

	// Update replaces name, age, email, phone and updated_at of the row with the given id.
	Update(ctx context.Context, id int64, p *model.Person) (*model.Person, error)

	// Delete removes the row and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
}
