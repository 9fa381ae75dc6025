package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned (wrapped) by every point lookup when the
// referenced row or document does not exist. Background workers treat it
// as a signal to no-op rather than retry.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err indicates a missing row or document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey reports whether err is a uniqueness-constraint violation.
// This is the sole tolerated exception class on the feed write path:
// callers skip the offending row and keep going. Relies on gorm's error
// translation (TranslateError) rather than string matching.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
