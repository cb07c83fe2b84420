package domain

import "time"

// User is an entry in the user directory. Only the fields the ownership
// check needs live here; credentials and profiles belong to the account
// service.
type User struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

// NewUser creates a directory entry.
func NewUser(id, username, email string) User {
	return User{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
}
