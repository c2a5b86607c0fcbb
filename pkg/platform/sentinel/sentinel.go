package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and the OAuth service decides what they mean for the grant at hand:
//   - ErrNotFound: no record for the key (missing, consumed, or revoked)
//   - ErrConflict: a record with the same identifier already exists
//   - ErrExpired: the record exists but its lifetime has passed
//   - ErrUnavailable: the backing store could not be reached
//
// Validation failures on caller input belong in pkg/domain-errors instead.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
