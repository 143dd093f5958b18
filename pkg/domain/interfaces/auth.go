package interfaces

import "context"

// TokenSource supplies a currently valid bearer credential, fetching a new
// one transparently when the cached token is missing or near expiry.
// Implementations must serialize refreshes so concurrent callers observe a
// single fetch.
type TokenSource interface {
	// GetValidToken returns the Authorization header value for a valid token
	GetValidToken(ctx context.Context) (string, error)

	// Invalidate drops the cached token so the next call refreshes.
	// Used by call sites that received a 401 for a token that still looked
	// valid locally.
	Invalidate()
}
