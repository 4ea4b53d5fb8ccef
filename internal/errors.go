package internal

import (
	"errors"
	"fmt"
)

// Failure kinds. Every fatal condition maps onto one of these so callers can
// classify with errors.Is without parsing message text.
var (
	ErrPrerequisiteMissing = errors.New("prerequisite missing")
	ErrSyncFailure         = errors.New("repository sync failed")
	ErrInstallFailure      = errors.New("package install failed")
	ErrConfigInputInvalid  = errors.New("invalid configuration input")
	ErrLivenessTimeout     = errors.New("liveness probe timed out")
)

// WrapKind attaches a failure kind to err while keeping both matchable
// through errors.Is.
func WrapKind(kind error, err error, context string) error {
	if err == nil {
		return fmt.Errorf("%s: %w", context, kind)
	}
	return fmt.Errorf("%s: %w: %w", context, kind, err)
}
