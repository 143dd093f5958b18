package auth

import "time"

// Token is an issued bearer credential with its expiry instant. Tokens are
// replaced on refresh, never mutated, and never persisted across runs.
type Token struct {
	AccessToken string `masq:"secret"`
	TokenType   string
	ExpiresAt   time.Time
}

// ValidAt reports whether the token is still usable at now, leaving the
// given safety margin so it does not expire mid-request.
func (t *Token) ValidAt(now time.Time, margin time.Duration) bool {
	return now.Add(margin).Before(t.ExpiresAt)
}

// HeaderValue returns the Authorization header value for the token
func (t *Token) HeaderValue() string {
	return t.TokenType + " " + t.AccessToken
}
