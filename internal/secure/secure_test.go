package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferRoundTrip(t *testing.T) {
	b := NewBufferFromString("US:ABC123")

	s, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "US:ABC123", s)

	locked, err := b.Open()
	require.NoError(t, err)
	assert.Equal(t, []byte("US:ABC123"), locked.Bytes())
	locked.Destroy()
}

func TestBufferDestroy(t *testing.T) {
	b := NewBuffer([]byte("secret"))
	b.Destroy()
	b.Destroy()

	locked, err := b.Open()
	require.NoError(t, err)
	assert.Empty(t, locked.Bytes())
	locked.Destroy()
}
