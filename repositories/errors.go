package repositories

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors surfaced by the stores. Callers match them with errors.Is
// and translate them to transport-level failure codes.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidID         = errors.New("invalid identifier")
)

// ParseID converts a path or payload identifier into a store key.
// Anything that is not a positive integer fails with ErrInvalidID before
// the store is consulted.
func ParseID(raw string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidID
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidID
	}
	return uint(n), nil
}

// storeErr wraps transient store failures so they stay distinguishable
// from the not-found and validation sentinels above.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
