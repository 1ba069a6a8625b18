package kycerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := Conflict("record %s already terminal", "abc")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))

	// Kind survives wrapping.
	wrapped := fmt.Errorf("approving record: %w", err)
	assert.Equal(t, KindConflict, KindOf(wrapped))

	// Unclassified errors fall back to internal.
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream(cause, "subject directory unreachable")

	assert.Equal(t, KindUpstreamUnavailable, KindOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "subject directory unreachable")
}
