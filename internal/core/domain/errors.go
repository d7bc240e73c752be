package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap them with context using fmt.Errorf("...: %w", err).
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransientNetwork indicates a network failure worth retrying.
	ErrTransientNetwork = errors.New("network unavailable")

	// Conversion errors.

	// ErrConversionTimeout indicates a conversion job never reached 100%
	// within the poll budget.
	ErrConversionTimeout = errors.New("conversion did not complete")

	// ErrInvalidContent indicates the converted document is too short to
	// be the article (paywalls, script-rendered pages, ...).
	ErrInvalidContent = errors.New("converted content is too short")

	// Destination errors.

	// ErrCorruptRemoteState indicates a destination document whose
	// artifact cannot be parsed.
	ErrCorruptRemoteState = errors.New("corrupt remote document")

	// ErrProcessFailure indicates the destination client exited non-zero
	// or its output could not be parsed.
	ErrProcessFailure = errors.New("destination client failed")

	// Authentication errors.

	// ErrAuthRequired indicates no credentials are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrCredentialExpiry indicates the bearer token could not be decoded
	// or refreshed.
	ErrCredentialExpiry = errors.New("credential refresh failed")
)
