package domain

// Reason identifies why a transition was rejected. Reasons are stable
// codes intended for API clients and audit logs, not display text.
type Reason string

const (
	ReasonAlreadyApproved Reason = "already_approved"
	ReasonAlreadySold     Reason = "already_sold"
	ReasonAlreadyArchived Reason = "already_archived"
	ReasonAlreadyPaused   Reason = "already_paused"
	ReasonAlreadyActive   Reason = "already_active"
	ReasonAlreadyExpired  Reason = "already_expired"
	ReasonNotArchived     Reason = "not_archived"
	ReasonNotApproved     Reason = "not_approved"
	ReasonListingSold     Reason = "listing_sold"
	ReasonListingArchived Reason = "listing_archived"
	ReasonListingExpired  Reason = "listing_expired"
)

// Classify explains an illegal (action, status) pair: the reason code,
// and whether the pair is a repeat of an already-completed action.
//
// Repeats are what retry-happy clients produce (marking a sold listing
// sold again); the owner path tolerates them as silent no-ops while the
// admin path reports them as conflicts. Everything else is a hard
// conflict on both paths. Classify is only meaningful for pairs that are
// absent from Transitions; legal pairs classify as a hard conflict so a
// misuse never turns into a silent no-op.
func Classify(action Action, current Status) (Reason, bool) {
	archived := current == StatusArchived || current == StatusArchivedPaused

	switch action {
	case ActionApprove:
		return ReasonAlreadyApproved, true

	case ActionMarkSold:
		switch {
		case current == StatusSold:
			return ReasonAlreadySold, true
		case archived:
			return ReasonListingArchived, false
		case current == StatusPending:
			return ReasonNotApproved, false
		default:
			return ReasonListingExpired, false
		}

	case ActionArchive:
		switch {
		case archived:
			return ReasonAlreadyArchived, true
		case current == StatusSold:
			return ReasonListingSold, false
		case current == StatusPending:
			return ReasonNotApproved, false
		default:
			return ReasonListingExpired, false
		}

	case ActionUnarchive:
		// Not-archived is always a hard conflict, even for the owner.
		return ReasonNotArchived, false

	case ActionPause, ActionResume:
		switch {
		case current == StatusPaused && action == ActionPause:
			return ReasonAlreadyPaused, true
		case current == StatusActive && action == ActionResume:
			return ReasonAlreadyActive, true
		case current == StatusSold:
			return ReasonListingSold, false
		case archived:
			return ReasonListingArchived, false
		case current == StatusPending:
			return ReasonNotApproved, false
		default:
			return ReasonListingExpired, false
		}

	case ActionExpire:
		switch {
		case current == StatusExpired:
			return ReasonAlreadyExpired, true
		case archived:
			return ReasonListingArchived, false
		default:
			return ReasonListingSold, false
		}
	}

	return ReasonNotApproved, false
}
