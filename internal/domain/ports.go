package domain

import "context"

// ListingRepository defines the persistence contract for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing Listing) error
	GetByID(ctx context.Context, id string) (Listing, error)
	List(ctx context.Context, filter ListFilter) ([]Listing, error)

	// Update persists the listing only if its stored status still equals
	// expected, so a transition's guard check and write are atomic with
	// respect to concurrent transitions on the same row. Returns
	// ErrStaleListing when another transition got there first.
	Update(ctx context.Context, listing Listing, expected Status) error
}

// ListFilter holds optional criteria for listing listings.
type ListFilter struct {
	Status  *Status
	OwnerID string
	Limit   int
	Offset  int
}

// UserDirectory resolves acting identities for the ownership check.
type UserDirectory interface {
	CreateUser(ctx context.Context, user User) error
	GetByUsername(ctx context.Context, username string) (User, error)
}

// EventPublisher defines the contract for emitting lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// TransitionValidator decides whether an action is legal from the current
// status and, if so, which status it leads to. Illegal pairs yield a
// *TransitionError.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, action Action) (Status, error)
}
