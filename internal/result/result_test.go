package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsAlreadyResolved(t *testing.T) {
	r := New("value", nil)
	assert.True(t, r.Done())
	v, err := r.Unwrap()
	assert.Equal(t, "value", v)
	assert.NoError(t, err)
}

func TestPendingDrivesWaitFuncExactlyOnce(t *testing.T) {
	calls := 0
	r := Pending(func() (any, error) {
		calls++
		return 42, nil
	})
	assert.False(t, r.Done())

	v1, _ := r.Unwrap()
	v2, _ := r.Unwrap()
	assert.Equal(t, 42, v1)
	assert.Equal(t, 42, v2)
	assert.Equal(t, 1, calls, "the wait function must be driven exactly once")
	assert.True(t, r.Done())
}

func TestUnwrapOrReturnsDefaultOnError(t *testing.T) {
	causeErr := errors.New("boom")
	r := New(nil, causeErr)
	assert.Equal(t, "fallback", r.UnwrapOr("fallback"))
}

func TestUnwrapOrReturnsValueOnSuccess(t *testing.T) {
	r := New("value", nil)
	assert.Equal(t, "value", r.UnwrapOr("fallback"))
}

func TestExpectPanicsWithWrappedCause(t *testing.T) {
	causeErr := errors.New("boom")
	r := New(nil, causeErr)

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		err, ok := rec.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, causeErr)
	}()
	r.Expect("should have a value")
}

func TestExpectReturnsValueOnSuccess(t *testing.T) {
	r := New("value", nil)
	assert.Equal(t, "value", r.Expect("should have a value"))
}

func TestMustUnwrapPanicsOnError(t *testing.T) {
	causeErr := errors.New("boom")
	r := New(nil, causeErr)

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		assert.ErrorIs(t, rec.(error), causeErr)
	}()
	r.MustUnwrap()
}
