package driven

import "time"

// TokenProvider issues and validates API access tokens
type TokenProvider interface {
	// IssueToken creates a signed token for the subject with the given TTL
	IssueToken(subject string, ttl time.Duration) (string, error)

	// ValidateToken verifies a token and returns its subject.
	// Returns domain.ErrTokenExpired or domain.ErrTokenInvalid on failure.
	ValidateToken(token string) (string, error)
}
