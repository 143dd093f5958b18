package types

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the synchronization run
var (
	// ErrAuthenticationFailed means the identity endpoint rejected the
	// configured credentials. Terminal, never retried.
	ErrAuthenticationFailed = goerr.New("authentication failed: invalid credentials")

	// ErrAuthExpired means a previously issued token was rejected with 401
	// even after one refresh. Terminal for the call site.
	ErrAuthExpired = goerr.New("authentication expired and refresh did not recover")

	// ErrEmptyReport means a report resource returned no rows. The skip
	// decision would be unsound, so the run aborts.
	ErrEmptyReport = goerr.New("report response is empty")
)

// Error tags classifying remote and row-level failures
var (
	// TagTransient marks gateway-timeout class failures that are retried
	// with a cooldown up to a bounded number of attempts.
	TagTransient = goerr.NewTag("transient")

	// TagProtocol marks responses whose body could not be parsed.
	TagProtocol = goerr.NewTag("protocol")

	// TagRemote marks any other non-success status from the remote API.
	TagRemote = goerr.NewTag("remote")

	// TagBadRecord marks a row that failed normalization. Row-level only,
	// never aborts the file.
	TagBadRecord = goerr.NewTag("bad_record")
)
