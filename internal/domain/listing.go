package domain

import "time"

// Status represents the lifecycle state of a listing.
//
// The state is a single tagged value rather than a set of independent
// flags, so combinations like "sold and archived at the same time"
// cannot be represented at all. The pre-archive visibility survives
// archiving as its own state: a listing archived while paused returns
// to paused on unarchive, not to active.
type Status string

const (
	StatusPending        Status = "pending"
	StatusActive         Status = "active"
	StatusPaused         Status = "paused"
	StatusArchived       Status = "archived"
	StatusArchivedPaused Status = "archived_paused"
	StatusSold           Status = "sold"
	StatusExpired        Status = "expired"
)

// Public returns the outward-facing name of the status. The two archived
// variants are indistinguishable to non-admin callers.
func (s Status) Public() string {
	if s == StatusArchivedPaused {
		return string(StatusArchived)
	}
	return string(s)
}

// Action represents a lifecycle operation that triggers a state transition.
type Action string

const (
	ActionApprove   Action = "approve"
	ActionMarkSold  Action = "mark_sold"
	ActionArchive   Action = "archive"
	ActionUnarchive Action = "unarchive"
	ActionPause     Action = "pause"
	ActionResume    Action = "resume"
	ActionExpire    Action = "expire"
)

// Transition defines a valid state change: an action moves a listing from Src to Dst.
type Transition struct {
	Action Action
	Src    Status
	Dst    Status
}

// Transitions defines all valid state changes in the listing lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Action: ActionApprove, Src: StatusPending, Dst: StatusActive},

	{Action: ActionPause, Src: StatusActive, Dst: StatusPaused},
	{Action: ActionResume, Src: StatusPaused, Dst: StatusActive},

	{Action: ActionArchive, Src: StatusActive, Dst: StatusArchived},
	{Action: ActionArchive, Src: StatusPaused, Dst: StatusArchivedPaused},
	{Action: ActionUnarchive, Src: StatusArchived, Dst: StatusActive},
	{Action: ActionUnarchive, Src: StatusArchivedPaused, Dst: StatusPaused},

	{Action: ActionMarkSold, Src: StatusActive, Dst: StatusSold},
	{Action: ActionMarkSold, Src: StatusPaused, Dst: StatusSold},

	{Action: ActionExpire, Src: StatusPending, Dst: StatusExpired},
	{Action: ActionExpire, Src: StatusActive, Dst: StatusExpired},
	{Action: ActionExpire, Src: StatusPaused, Dst: StatusExpired},
}

// Listing is the core domain entity: a vehicle advertisement whose
// visibility is governed by the lifecycle state machine.
type Listing struct {
	ID        string
	OwnerID   string
	Title     string
	Make      string
	Model     string
	Year      int
	Price     float64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewListing creates a listing in the initial "pending" state, owned by
// the given user. OwnerID and CreatedAt are immutable afterwards.
func NewListing(id, ownerID, title, vehicleMake, vehicleModel string, year int, price float64) Listing {
	now := time.Now().UTC()
	return Listing{
		ID:        id,
		OwnerID:   ownerID,
		Title:     title,
		Make:      vehicleMake,
		Model:     vehicleModel,
		Year:      year,
		Price:     price,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
