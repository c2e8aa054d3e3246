package taxonomy

import "github.com/bragbook2/brag-book-gallery-sub019/internal"

// Error classification helpers, re-exported so callers can branch on
// failure modes without reaching into the internal package.

// IsValidationError reports whether err is a bad-input rejection
func IsValidationError(err error) bool {
	return internal.IsValidationError(err)
}

// IsNotFoundError reports whether err is a single-term lookup miss
func IsNotFoundError(err error) bool {
	return internal.IsNotFoundError(err)
}

// IsStoreUnavailableError reports whether err is a term store failure
func IsStoreUnavailableError(err error) bool {
	return internal.IsStoreUnavailableError(err)
}

// IsCycleDetectedError reports whether err marks a looping parent chain
func IsCycleDetectedError(err error) bool {
	return internal.IsCycleDetectedError(err)
}

// IsConnectionError reports whether err is a shared cache connection failure
func IsConnectionError(err error) bool {
	return internal.IsConnectionError(err)
}
