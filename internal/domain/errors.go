package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrStaleListing means a concurrent transition changed the listing
	// between the guard evaluation and the write. The caller lost the
	// race and should re-read before retrying.
	ErrStaleListing = errors.New("listing was modified concurrently")
)

// UsernameConflictError is returned when a username is already taken.
type UsernameConflictError struct {
	Username string
}

func (e *UsernameConflictError) Error() string {
	return fmt.Sprintf("username %q is already in use", e.Username)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Action  Action
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("action %q is not valid from state %q", e.Action, e.Current)
}

// ConflictError is returned when a guard rule rejects a transition hard:
// either the pair is structurally illegal, or an admin repeated an
// already-completed action. Reason is the stable code for API clients.
type ConflictError struct {
	Action  Action
	Current Status
	Reason  Reason
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("action %q rejected in state %q: %s", e.Action, e.Current, e.Reason)
}

// ForbiddenError is returned when the acting user does not own the
// listing. It carries both identities so callers can log the attempt.
type ForbiddenError struct {
	Action    Action
	ListingID string
	OwnerID   string
	ActorID   string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("user %q may not %s listing %s owned by %q", e.ActorID, e.Action, e.ListingID, e.OwnerID)
}
