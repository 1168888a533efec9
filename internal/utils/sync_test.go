package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionalMutexLocks(t *testing.T) {
	m := OptionalMutex{UseMutex: true}

	m.Lock()
	require.False(t, m.TryLock())
	m.Unlock()

	require.True(t, m.TryLock())
	m.Unlock()
}

func TestOptionalMutexDisabled(t *testing.T) {
	m := OptionalMutex{}

	m.Lock()
	require.True(t, m.TryLock())
	m.Unlock()
	m.Unlock()
}
