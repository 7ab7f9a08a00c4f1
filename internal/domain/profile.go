package domain

import "time"

// UserProfile holds the onboarding answers for one user.
// ID is the identity provider's subject for that user.
type UserProfile struct {
	ID        string
	FullName  string
	BirthDate time.Time
	Gender    string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is the verified identity of the caller for one request.
// It is passed explicitly to every service call that reads or writes
// user-owned data.
type Session struct {
	UserID string
	Email  string
}
