package domain

// Principal is the authenticated caller as read from a bearer token.
type Principal struct {
	UserID string
	Email  string
	Name   string
	Token  string
}

// TokenVerifier verifies a bearer token and returns the caller it identifies.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}
