package internal

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKindMatchesBothErrors(t *testing.T) {
	cause := fmt.Errorf("exit status 128")
	err := WrapKind(ErrSyncFailure, cause, "cloning repo")

	assert.True(t, errors.Is(err, ErrSyncFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "cloning repo")
}

func TestWrapKindNilCause(t *testing.T) {
	err := WrapKind(ErrLivenessTimeout, nil, "no answer")
	assert.True(t, errors.Is(err, ErrLivenessTimeout))
	assert.Contains(t, err.Error(), "no answer")
}
