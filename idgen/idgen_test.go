package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNanoID(t *testing.T) {
	gen := NanoID(10)
	seen := make(map[string]bool)
	for range 1000 {
		id := gen()
		require.Len(t, id, 10)
		assert.Regexp(t, `^[0-9a-z]+$`, id)
		assert.False(t, seen[id], "duplicate %q", id)
		seen[id] = true
	}
}

func TestUUIDv7(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	u, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
	assert.LessOrEqual(t, a[:13], b[:13], "v7 IDs sort by time")
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("tb_", NanoID(6))()
	assert.True(t, strings.HasPrefix(id, "tb_"))
	assert.Len(t, id, 9)
}
