package domain

// EventKind names a lifecycle event emitted after a successful transition.
type EventKind string

const (
	EventListingApproved   EventKind = "listing.approved"
	EventListingMarkedSold EventKind = "listing.marked_sold"
	EventListingArchived   EventKind = "listing.archived"
	EventListingUnarchived EventKind = "listing.unarchived"
	EventListingExpired    EventKind = "listing.expired"
)

// Event is the immutable record handed to the event publisher after a
// transition has been persisted. It carries a snapshot of the listing so
// consumers never need to re-read it, plus the actor origin: consumers
// may treat admin-forced transitions differently (e.g. suppress the
// "congratulations on your sale" notification).
type Event struct {
	Kind    EventKind
	Listing Listing
	Admin   bool
}

// eventKinds maps actions to the event they emit. Pause and resume are
// deliberately absent: they mutate visibility only and no downstream
// consumer reacts to them.
var eventKinds = map[Action]EventKind{
	ActionApprove:   EventListingApproved,
	ActionMarkSold:  EventListingMarkedSold,
	ActionArchive:   EventListingArchived,
	ActionUnarchive: EventListingUnarchived,
	ActionExpire:    EventListingExpired,
}

// EventKindFor returns the event kind emitted by an action, if any.
func EventKindFor(action Action) (EventKind, bool) {
	kind, ok := eventKinds[action]
	return kind, ok
}
