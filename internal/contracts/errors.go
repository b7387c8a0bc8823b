package contracts

import "errors"

var (
	// ErrRateLimited is returned by a market data provider that refused the call
	ErrRateLimited = errors.New("market data provider rate limit reached")

	// ErrNoSymbol means no ticker could be extracted from the text
	ErrNoSymbol = errors.New("could not identify stock symbol")

	// ErrProviderNotConfigured means an optional provider has no credentials
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrHoldingNotFound is returned by repositories for unknown ids
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrInvalidHoldingID means the id is malformed for the configured store
	ErrInvalidHoldingID = errors.New("invalid holding id")

	// ErrHoldingNotActive means a close was attempted on a closed or legacy entry
	ErrHoldingNotActive = errors.New("holding is not active")
)
