package onlinesim

import "errors"

// Error categories for marketplace calls. Callers dispatch on these with
// errors.Is; the wrapped error carries the operation and underlying cause.
var (
	// ErrTransient covers timeouts, connection failures and 5xx responses.
	// The next cycle retries.
	ErrTransient = errors.New("onlinesim: transient network error")

	// ErrRateLimited is returned on HTTP 429 responses.
	ErrRateLimited = errors.New("onlinesim: rate limited")

	// ErrAuth means the API rejected the key. Retrying without operator
	// intervention is futile.
	ErrAuth = errors.New("onlinesim: API key rejected")

	// ErrNoBalance means the account cannot cover a purchase.
	ErrNoBalance = errors.New("onlinesim: insufficient balance")

	// ErrSoldOut means the requested number is no longer available; another
	// client may have taken it between check and purchase.
	ErrSoldOut = errors.New("onlinesim: number no longer available")
)
