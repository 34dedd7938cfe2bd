package sched

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferRunInvokesClosureWithArgs(t *testing.T) {
	var got []any
	d := &Defer{
		fn: func(args ...any) (any, error) {
			got = args
			return "result", nil
		},
		args: []any{"a", 1},
	}
	s := New(defaultConfig())
	value, err := d.run(s)

	require.NoError(t, err)
	assert.Equal(t, "result", value)
	assert.Equal(t, []any{"a", 1}, got)
}

func TestDeferRunDrivesReturnedFuncSynchronously(t *testing.T) {
	ran := false
	d := &Defer{
		fn: func(args ...any) (any, error) {
			return Func(func(h *H) (any, error) {
				ran = true
				h.Sleep(0.001)
				return "done", nil
			}), nil
		},
	}
	s := New(defaultConfig())
	value, err := d.run(s)

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, "done", value)
}

func TestDeferRunSurfacesClosureError(t *testing.T) {
	causeErr := fmt.Errorf("cleanup failed")
	d := &Defer{fn: func(args ...any) (any, error) { return nil, causeErr }}
	s := New(defaultConfig())
	_, err := d.run(s)
	assert.ErrorIs(t, err, causeErr)
}
