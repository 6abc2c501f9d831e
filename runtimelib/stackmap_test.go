package runtimelib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackMapEnterExitRoundTrip(t *testing.T) {
	m := NewStackMap()
	m.Enter(1, 42, 1000)

	got, ok := m.Exit(1, 42)
	require.True(t, ok)
	require.Equal(t, int64(1000), got)
}

func TestStackMapExitWithoutEnter(t *testing.T) {
	m := NewStackMap()
	_, ok := m.Exit(1, 99)
	require.False(t, ok)
}

func TestStackMapExitClears(t *testing.T) {
	m := NewStackMap()
	m.Enter(1, 42, 1000)
	m.Exit(1, 42)

	_, ok := m.Exit(1, 42)
	require.False(t, ok, "a second Exit without a matching Enter must not see stale state")
}

func TestStackMapIsolatesByThread(t *testing.T) {
	m := NewStackMap()
	m.Enter(1, 42, 1000)
	m.Enter(2, 42, 2000)

	got1, ok1 := m.Exit(1, 42)
	require.True(t, ok1)
	require.Equal(t, int64(1000), got1)

	got2, ok2 := m.Exit(2, 42)
	require.True(t, ok2)
	require.Equal(t, int64(2000), got2)
}

func TestStackMapOverwritesPendingEntryOnReEnter(t *testing.T) {
	m := NewStackMap()
	m.Enter(1, 42, 1000)
	m.Enter(1, 42, 2000)

	got, ok := m.Exit(1, 42)
	require.True(t, ok)
	require.Equal(t, int64(2000), got)
}
