package item_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diatche/airbnb-scraper/item"
	"github.com/diatche/airbnb-scraper/store/memory"
)

// closeSpy records backend lifecycle events.
type closeSpy struct {
	*memory.Store
	closes int
}

func (s *closeSpy) Close() error {
	s.closes++
	return nil
}

// =============================================================================
// DEPTH-COUNTED CONNECTION
// =============================================================================

func TestConn_NestedAcquireSharesOneBackend(t *testing.T) {
	// GIVEN: Two independent subsystems acquiring the same Conn
	// WHEN: Each releases in turn
	// THEN: The backend opens once and closes only on the last release

	spy := &closeSpy{Store: memory.New()}
	opens := 0
	conn := item.NewConn(func() (item.Backend, error) {
		opens++
		return spy, nil
	})

	first, err := conn.Acquire()
	require.NoError(t, err)
	second, err := conn.Acquire()
	require.NoError(t, err)
	assert.Same(t, first, second, "nested acquires share the open backend")
	assert.Equal(t, 1, opens)
	assert.Equal(t, 2, conn.Depth())

	require.NoError(t, conn.Release())
	assert.Equal(t, 0, spy.closes, "inner release must not tear down the connection")

	require.NoError(t, conn.Release())
	assert.Equal(t, 1, spy.closes)
	assert.Equal(t, 0, conn.Depth())
}

func TestConn_ReleaseBelowZeroIsFatal(t *testing.T) {
	// GIVEN: A Conn with balanced acquire/release history
	// WHEN: An extra release arrives
	// THEN: The mismatch is reported, not silently absorbed

	spy := &closeSpy{Store: memory.New()}
	conn := item.NewConn(func() (item.Backend, error) { return spy, nil })

	_, err := conn.Acquire()
	require.NoError(t, err)
	require.NoError(t, conn.Release())

	err = conn.Release()
	assert.ErrorIs(t, err, item.ErrConnMismatch)
	assert.Equal(t, 1, spy.closes, "the backend must not close twice")
}

func TestConn_ReopensAfterFullRelease(t *testing.T) {
	spy := &closeSpy{Store: memory.New()}
	opens := 0
	conn := item.NewConn(func() (item.Backend, error) {
		opens++
		return spy, nil
	})

	_, err := conn.Acquire()
	require.NoError(t, err)
	require.NoError(t, conn.Release())

	_, err = conn.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 2, opens, "a fresh acquire after teardown reopens")
	require.NoError(t, conn.Release())
}

func TestConn_OpenFailurePropagates(t *testing.T) {
	conn := item.NewConn(func() (item.Backend, error) {
		return nil, assert.AnError
	})

	_, err := conn.Acquire()
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, conn.Depth(), "a failed open must not count as held")
}
