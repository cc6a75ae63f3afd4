package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("read offset=10 length=5000: %w", ErrOutOfBounds)
	require.ErrorIs(t, wrapped, ErrOutOfBounds)
	assert.NotErrorIs(t, wrapped, ErrNoSuchRegion)

	detailed := &Error{Kind: ErrKindNoSuchRegion, Msg: "clone target 42 has no region"}
	assert.ErrorIs(t, detailed, ErrNoSuchRegion)
	assert.NotErrorIs(t, detailed, ErrAlreadyExists)
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("mprotect: ENOMEM")
	e := &Error{Kind: ErrKindProtection, Msg: "protect page", Err: cause}
	assert.Equal(t, "protect page: mprotect: ENOMEM", e.Error())
	assert.ErrorIs(t, e, cause)

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(fmt.Errorf("ctx: %w", ErrInvalidSize))
	require.True(t, ok)
	assert.Equal(t, ErrKindInvalidSize, k)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestErrKind_String(t *testing.T) {
	assert.Equal(t, "out_of_bounds", ErrKindOutOfBounds.String())
	assert.Equal(t, "unknown", ErrKind(99).String())
}
