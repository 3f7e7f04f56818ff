// internal/domain/requester.go
package domain

// Requester is the authenticated identity behind a call.
type Requester struct {
	UserID  string
	IsAdmin bool
}

// NewRequester creates a Requester.
func NewRequester(userID string, isAdmin bool) Requester {
	return Requester{UserID: userID, IsAdmin: isAdmin}
}
