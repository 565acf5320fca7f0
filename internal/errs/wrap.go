// Package errs chains the registry's sentinel errors with their causes
// so callers keep matching the sentinel with errors.Is while logs
// retain the underlying detail.
package errs

import "fmt"

// Wrap ties a sentinel such as ErrTenantNotFound or ErrUniqueConstraint
// to the error that triggered it. Both remain matchable.
func Wrap(base, ext error) error {
	if ext == nil {
		return base
	}

	return fmt.Errorf("%w: %w", base, ext)
}

// Wrapf annotates a sentinel with plain detail text, typically the
// offending tenant ID.
func Wrapf(base error, str string) error {
	return fmt.Errorf("%w: %s", base, str)
}
