package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harentsoaR/dentaheal/internal/store"
)

func TestObjectID(t *testing.T) {
	oid, err := objectID("665f1c2e9b1d4a0001a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, "665f1c2e9b1d4a0001a1b2c3", oid.Hex())

	for _, bad := range []string{"", "abc", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := objectID(bad)
		assert.ErrorIs(t, err, store.ErrInvalidID, bad)
	}
}
