package domain

// Actor identifies who is requesting a transition. There are exactly two
// variants: the listing owner (identified by username, resolved against
// the user directory before authorization) and an operator acting with
// admin privilege. The variant decides whether ownership is checked and
// whether repeated actions are tolerated as no-ops.
type Actor struct {
	admin    bool
	username string
}

// Owner returns an actor for the user-initiated path.
func Owner(username string) Actor {
	return Actor{username: username}
}

// Admin returns an actor for the operator path. Role authorization is the
// caller's responsibility; the engine only skips the ownership check.
func Admin() Actor {
	return Actor{admin: true}
}

// IsAdmin reports whether this is the operator path.
func (a Actor) IsAdmin() bool { return a.admin }

// Username returns the acting username on the owner path. Empty for admins.
func (a Actor) Username() string { return a.username }
