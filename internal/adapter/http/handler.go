package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/motorsouq/listings/internal/app"
	"github.com/motorsouq/listings/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ListingResponse is the public API representation of a listing. The two
// archived states collapse into one and owner identity is not exposed.
type ListingResponse struct {
	ID        string  `json:"id" doc:"Unique identifier"`
	Title     string  `json:"title" doc:"Display title"`
	Make      string  `json:"make" doc:"Vehicle make"`
	Model     string  `json:"model" doc:"Vehicle model"`
	Year      int     `json:"year" doc:"Model year"`
	Price     float64 `json:"price" doc:"Asking price"`
	Status    string  `json:"status" doc:"Lifecycle state"`
	CreatedAt string  `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

// AdminListingResponse is the operator-facing representation: it carries
// the exact internal state and the fields the public projection hides.
type AdminListingResponse struct {
	ListingResponse
	OwnerID   string `json:"owner_id" doc:"Owner user ID"`
	State     string `json:"state" doc:"Exact internal lifecycle state"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

// UserResponse is the API representation of a user directory entry.
type UserResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Username  string `json:"username" doc:"Unique username"`
	Email     string `json:"email" doc:"Contact email"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toListingResponse(l domain.Listing) ListingResponse {
	return ListingResponse{
		ID:        l.ID,
		Title:     l.Title,
		Make:      l.Make,
		Model:     l.Model,
		Year:      l.Year,
		Price:     l.Price,
		Status:    l.Status.Public(),
		CreatedAt: l.CreatedAt.Format(timeFormat),
	}
}

func toAdminListingResponse(l domain.Listing) AdminListingResponse {
	return AdminListingResponse{
		ListingResponse: toListingResponse(l),
		OwnerID:         l.OwnerID,
		State:           string(l.Status),
		UpdatedAt:       l.UpdatedAt.Format(timeFormat),
	}
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(timeFormat),
	}
}

// --- Register user ---

type RegisterUserInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" maxLength:"100" pattern:"^[a-z0-9]+(?:[._-][a-z0-9]+)*$" doc:"Unique username (lowercase)"`
		Email    string `json:"email,omitempty" format:"email" doc:"Contact email"`
	}
}

type RegisterUserOutput struct {
	Body UserResponse
}

// --- Create listing ---

type CreateListingInput struct {
	Body struct {
		Username string  `json:"username" minLength:"1" doc:"Owner username"`
		Title    string  `json:"title" minLength:"1" maxLength:"255" doc:"Display title"`
		Make     string  `json:"make,omitempty" maxLength:"100" doc:"Vehicle make"`
		Model    string  `json:"model,omitempty" maxLength:"100" doc:"Vehicle model"`
		Year     int     `json:"year,omitempty" minimum:"1900" maximum:"2100" doc:"Model year"`
		Price    float64 `json:"price" minimum:"0" doc:"Asking price"`
	}
}

type CreateListingOutput struct {
	Body ListingResponse
}

// --- Get listing ---

type GetListingInput struct {
	ID string `path:"id" doc:"Listing ID"`
}

type GetListingOutput struct {
	Body ListingResponse
}

// --- List listings ---

type ListListingsInput struct {
	Status string `query:"status" required:"false" doc:"Filter by public status"`
	Owner  string `query:"owner" required:"false" doc:"Filter by owner user ID"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListListingsOutput struct {
	Body []ListingResponse
}

// --- Lifecycle actions ---

type ListingActionInput struct {
	ID   string `path:"id" doc:"Listing ID"`
	Body struct {
		Action   string `json:"action" doc:"Lifecycle action" enum:"mark_sold,archive,unarchive,pause,resume"`
		Username string `json:"username" minLength:"1" doc:"Acting username, must be the listing owner"`
	}
}

type ListingActionOutput struct {
	Body ListingResponse
}

type AdminListingActionInput struct {
	ID   string `path:"id" doc:"Listing ID"`
	Body struct {
		Action string `json:"action" doc:"Lifecycle action" enum:"approve,mark_sold,archive,unarchive,expire"`
	}
}

type AdminListingActionOutput struct {
	Body AdminListingResponse
}

// Register adds all listing API routes to the Huma API.
func Register(api huma.API, svc *app.ListingService) {
	huma.Register(api, huma.Operation{
		OperationID: "register-user",
		Method:      http.MethodPost,
		Path:        "/api/v1/users",
		Summary:     "Register a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *RegisterUserInput) (*RegisterUserOutput, error) {
		user, err := svc.RegisterUser(ctx, input.Body.Username, input.Body.Email)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RegisterUserOutput{Body: toUserResponse(user)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-listing",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings",
		Summary:     "Create a new listing",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *CreateListingInput) (*CreateListingOutput, error) {
		listing, err := svc.Create(ctx,
			input.Body.Username, input.Body.Title,
			input.Body.Make, input.Body.Model,
			input.Body.Year, input.Body.Price,
		)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-listing",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings/{id}",
		Summary:     "Get a listing by ID",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *GetListingInput) (*GetListingOutput, error) {
		listing, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetListingOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *ListListingsInput) (*ListListingsOutput, error) {
		filter := domain.ListFilter{
			OwnerID: input.Owner,
			Limit:   input.Limit,
			Offset:  input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		listings, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ListingResponse, len(listings))
		for i, l := range listings {
			resp[i] = toListingResponse(l)
		}
		return &ListListingsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "listing-action",
		Method:      http.MethodPost,
		Path:        "/api/v1/listings/{id}/actions",
		Summary:     "Apply a lifecycle action as the listing owner",
		Tags:        []string{"Listings"},
	}, func(ctx context.Context, input *ListingActionInput) (*ListingActionOutput, error) {
		listing, err := applyOwnerAction(ctx, svc, input.ID, input.Body.Action, input.Body.Username)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListingActionOutput{Body: toListingResponse(listing)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "admin-listing-action",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/listings/{id}/actions",
		Summary:     "Apply a lifecycle action with operator privilege",
		Tags:        []string{"Admin"},
	}, func(ctx context.Context, input *AdminListingActionInput) (*AdminListingActionOutput, error) {
		listing, err := applyAdminAction(ctx, svc, input.ID, input.Body.Action)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AdminListingActionOutput{Body: toAdminListingResponse(listing)}, nil
	})
}

// applyOwnerAction dispatches an owner-path action. The enum tag on the
// input keeps admin-only actions (approve, expire) out of this path.
func applyOwnerAction(ctx context.Context, svc *app.ListingService, id, action, username string) (domain.Listing, error) {
	switch domain.Action(action) {
	case domain.ActionMarkSold:
		return svc.MarkSold(ctx, id, domain.Owner(username))
	case domain.ActionArchive:
		return svc.Archive(ctx, id, domain.Owner(username))
	case domain.ActionUnarchive:
		return svc.Unarchive(ctx, id, domain.Owner(username))
	case domain.ActionPause:
		return svc.Pause(ctx, id, username)
	case domain.ActionResume:
		return svc.Resume(ctx, id, username)
	}
	return domain.Listing{}, huma.Error422UnprocessableEntity("unknown action " + action)
}

// applyAdminAction dispatches an admin-path action. Pause and resume have
// no admin path: visibility belongs to the owner.
func applyAdminAction(ctx context.Context, svc *app.ListingService, id, action string) (domain.Listing, error) {
	switch domain.Action(action) {
	case domain.ActionApprove:
		return svc.Approve(ctx, id)
	case domain.ActionMarkSold:
		return svc.MarkSold(ctx, id, domain.Admin())
	case domain.ActionArchive:
		return svc.Archive(ctx, id, domain.Admin())
	case domain.ActionUnarchive:
		return svc.Unarchive(ctx, id, domain.Admin())
	case domain.ActionExpire:
		return svc.Expire(ctx, id)
	}
	return domain.Listing{}, huma.Error422UnprocessableEntity("unknown action " + action)
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrListingNotFound) {
		return huma.Error404NotFound("listing not found")
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		return huma.Error404NotFound("user not found")
	}
	if errors.Is(err, domain.ErrStaleListing) {
		return huma.Error409Conflict("listing was modified concurrently, retry")
	}

	var forbiddenErr *domain.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return huma.Error403Forbidden(forbiddenErr.Error())
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var usernameErr *domain.UsernameConflictError
	if errors.As(err, &usernameErr) {
		return huma.Error409Conflict(usernameErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	// Huma errors passed through from the dispatch helpers.
	var statusErr huma.StatusError
	if errors.As(err, &statusErr) {
		return err
	}

	return huma.Error500InternalServerError("internal server error")
}
