package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashUUID(t *testing.T) {
	a := HashUUID([]string{"B:f16", "G:f16", "R:f16"})
	b := HashUUID([]string{"B:f16", "G:f16", "R:f16"})
	c := HashUUID([]string{"B:f32", "G:f32", "R:f32"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(3), id.Version())

	assert.Empty(t, HashUUID(func() {}))
}

func TestRunID(t *testing.T) {
	assert.NotEqual(t, RunID(), RunID())
}

func TestMd5ThenHex(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Md5ThenHex(nil))
}
