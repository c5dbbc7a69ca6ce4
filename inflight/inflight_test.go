package inflight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRejectsDuplicates(t *testing.T) {
	set := NewSet()

	release, ok := set.Acquire("pay-1")
	require.True(t, ok)
	assert.True(t, set.Busy("pay-1"))
	assert.Equal(t, []string{"pay-1"}, set.Keys())

	_, ok = set.Acquire("pay-1")
	assert.False(t, ok)

	other, ok := set.Acquire("pay-2")
	require.True(t, ok)
	other()

	release()
	release()
	assert.False(t, set.Busy("pay-1"))

	_, ok = set.Acquire("pay-1")
	assert.True(t, ok)
}
