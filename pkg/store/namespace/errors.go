package namespace

import "errors"

// StoreError is a domain error from namespace or sharing operations.
//
// These are business logic failures (missing folder, duplicate title,
// foreign owner) as opposed to infrastructure failures (network, disk),
// which are returned as wrapped plain errors. Callers branch on Code;
// an HTTP layer would translate codes to status codes.
type StoreError struct {
	// Code is the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// ErrorCode is the category of a StoreError.
type ErrorCode int

const (
	// ErrNotFound indicates the referenced folder, file or grant does not
	// exist.
	ErrNotFound ErrorCode = iota

	// ErrForbidden indicates the actor lacks ownership or grant
	// permission for the requested operation.
	ErrForbidden

	// ErrConflict indicates a uniqueness invariant would be violated:
	// a sibling with the same title, or a second grant for the same
	// (file, grantee) pair.
	ErrConflict

	// ErrInvalidArgument indicates malformed input: empty or oversized
	// title, expiry not in the future, sharing a file with its owner,
	// missing identifier.
	ErrInvalidArgument

	// ErrInvalidOperation indicates a structurally disallowed mutation,
	// such as moving a folder into itself or into one of its own
	// descendants.
	ErrInvalidOperation

	// ErrStorageUnavailable indicates the blob store failed. Any paired
	// metadata change has been rolled back.
	ErrStorageUnavailable
)

// String returns the name of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrForbidden:
		return "forbidden"
	case ErrConflict:
		return "conflict"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrInvalidOperation:
		return "invalid_operation"
	case ErrStorageUnavailable:
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) a
// StoreError. The second return value reports whether a code was found.
func CodeOf(err error) (ErrorCode, bool) {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code, true
	}
	return 0, false
}

// IsCode reports whether err carries the given StoreError code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
