package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// An acknowledged enqueue must survive closing and reopening the database.
func TestBadger_Reopen(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenBadger(dir, Config{})
	require.NoError(t, err)
	var ids []uint64
	for i := 1; i <= 3; i++ {
		id, err := s.Enqueue(message(i))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	require.NoError(t, s.Ack(ids[1]))

	pending, err := s.AllPending()
	require.NoError(t, err)
	third := pending[1]
	third.Sent = true
	require.NoError(t, s.Update(third))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir, Config{})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 2, s.Len())
	pending, err = s.AllPending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[0], pending[0].ID)
	assert.Equal(t, ids[2], pending[1].ID)
	assert.Equal(t, "test/3", pending[1].Topic)
	assert.True(t, pending[1].Sent)

	next, err := s.Enqueue(message(4))
	require.NoError(t, err)
	assert.Greater(t, next, ids[2])
}

func TestBadger_ReopenKeepsCapacity(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir, Config{Capacity: 2})
	require.NoError(t, err)
	for i := 1; i <= 2; i++ {
		_, err := s.Enqueue(message(i))
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir, Config{Capacity: 2})
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Enqueue(message(3))
	assert.ErrorIs(t, err, ErrStoreFull)
}
