package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/motorsouq/listings/internal/domain"
)

// ListingService orchestrates listing lifecycle operations.
type ListingService struct {
	repo      domain.ListingRepository
	users     domain.UserDirectory
	publisher domain.EventPublisher
	validator domain.TransitionValidator
}

// NewListingService creates a service with the given adapters.
func NewListingService(repo domain.ListingRepository, users domain.UserDirectory, publisher domain.EventPublisher, validator domain.TransitionValidator) *ListingService {
	return &ListingService{
		repo:      repo,
		users:     users,
		publisher: publisher,
		validator: validator,
	}
}

// RegisterUser adds an entry to the user directory.
func (s *ListingService) RegisterUser(ctx context.Context, username, email string) (domain.User, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return domain.User{}, &domain.UsernameConflictError{Username: username}
	}

	id, err := generateID()
	if err != nil {
		return domain.User{}, fmt.Errorf("generating user id: %w", err)
	}

	user := domain.NewUser(id, username, email)

	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

// Create persists a new listing in the pending state, owned by the user
// behind ownerUsername. No event is emitted until the listing is approved.
func (s *ListingService) Create(ctx context.Context, ownerUsername, title, vehicleMake, vehicleModel string, year int, price float64) (domain.Listing, error) {
	owner, err := s.users.GetByUsername(ctx, ownerUsername)
	if err != nil {
		return domain.Listing{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Listing{}, fmt.Errorf("generating listing id: %w", err)
	}

	listing := domain.NewListing(id, owner.ID, title, vehicleMake, vehicleModel, year, price)

	if err := s.repo.Create(ctx, listing); err != nil {
		return domain.Listing{}, fmt.Errorf("creating listing: %w", err)
	}

	return listing, nil
}

// GetByID returns a listing by its unique identifier.
func (s *ListingService) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns listings matching the given filter.
func (s *ListingService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Listing, error) {
	return s.repo.List(ctx, filter)
}

// Approve activates a pending listing. Admin only.
func (s *ListingService) Approve(ctx context.Context, id string) (domain.Listing, error) {
	return s.apply(ctx, id, domain.ActionApprove, domain.Admin())
}

// MarkSold marks a listing as sold.
func (s *ListingService) MarkSold(ctx context.Context, id string, actor domain.Actor) (domain.Listing, error) {
	return s.apply(ctx, id, domain.ActionMarkSold, actor)
}

// Archive hides a listing from the marketplace, remembering whether it
// was paused so Unarchive can restore it exactly.
func (s *ListingService) Archive(ctx context.Context, id string, actor domain.Actor) (domain.Listing, error) {
	return s.apply(ctx, id, domain.ActionArchive, actor)
}

// Unarchive restores an archived listing to its pre-archive state.
func (s *ListingService) Unarchive(ctx context.Context, id string, actor domain.Actor) (domain.Listing, error) {
	return s.apply(ctx, id, domain.ActionUnarchive, actor)
}

// Pause takes an active listing off the market at the owner's request.
func (s *ListingService) Pause(ctx context.Context, id, ownerUsername string) (domain.Listing, error) {
	return s.apply(ctx, id, domain.ActionPause, domain.Owner(ownerUsername))
}

// Resume puts a paused listing back on the market.
func (s *ListingService) Resume(ctx context.Context, id, ownerUsername string) (domain.Listing, error) {
	return s.apply(ctx, id, domain.ActionResume, domain.Owner(ownerUsername))
}

// Expire retires a listing that ran past its lifetime. Admin only; the
// batch job that decides *when* listings expire lives outside this service.
func (s *ListingService) Expire(ctx context.Context, id string) (domain.Listing, error) {
	return s.apply(ctx, id, domain.ActionExpire, domain.Admin())
}

// apply is the single transition pipeline every lifecycle action goes
// through: load, authorize (owner path), validate, persist, publish.
// Guard and authorization failures happen strictly before any mutation.
func (s *ListingService) apply(ctx context.Context, id string, action domain.Action, actor domain.Actor) (domain.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}

	if !actor.IsAdmin() {
		user, err := s.users.GetByUsername(ctx, actor.Username())
		if err != nil {
			return domain.Listing{}, err
		}
		if listing.OwnerID != user.ID {
			return domain.Listing{}, &domain.ForbiddenError{
				Action:    action,
				ListingID: listing.ID,
				OwnerID:   listing.OwnerID,
				ActorID:   user.ID,
			}
		}
	}

	next, err := s.validator.Apply(ctx, listing.Status, action)
	if err != nil {
		var trErr *domain.TransitionError
		if errors.As(err, &trErr) {
			reason, repeat := domain.Classify(action, listing.Status)
			if repeat && !actor.IsAdmin() {
				// The owner re-requested something already done; return
				// the current state untouched. No write, no event.
				return listing, nil
			}
			return domain.Listing{}, &domain.ConflictError{
				Action:  action,
				Current: listing.Status,
				Reason:  reason,
			}
		}
		return domain.Listing{}, err
	}

	prev := listing.Status
	listing.Status = next
	listing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, listing, prev); err != nil {
		return domain.Listing{}, fmt.Errorf("applying %s: %w", action, err)
	}

	if kind, ok := domain.EventKindFor(action); ok {
		event := domain.Event{Kind: kind, Listing: listing, Admin: actor.IsAdmin()}
		if err := s.publisher.Publish(ctx, event); err != nil {
			// The state change stands; delivery is fire-and-forget and
			// subscribers own their retries.
			slog.WarnContext(ctx, "publishing lifecycle event failed",
				"event", string(kind),
				"listing_id", listing.ID,
				"error", err,
			)
		}
	}

	return listing, nil
}
