package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("host and port", func(t *testing.T) {
		addr, err := Normalize("localhost:8080")
		require.NoError(t, err)
		require.Equal(t, "localhost:8080", addr)
	})

	t.Run("port only", func(t *testing.T) {
		addr, err := Normalize(":8080")
		require.NoError(t, err)
		require.Equal(t, "0.0.0.0:8080", addr)
	})

	t.Run("ipv6", func(t *testing.T) {
		addr, err := Normalize("[::1]:0")
		require.NoError(t, err)
		require.Equal(t, "[::1]:0", addr)
	})

	t.Run("host only", func(t *testing.T) {
		_, err := Normalize("localhost")
		require.ErrorIs(t, err, ErrNoPort)

		_, err = Normalize("localhost:")
		require.ErrorIs(t, err, ErrNoPort)
	})

	t.Run("too big port", func(t *testing.T) {
		_, err := Normalize(":65536")
		require.ErrorIs(t, err, ErrBadPort)
	})

	t.Run("non-numeric port", func(t *testing.T) {
		_, err := Normalize(":http")
		require.ErrorIs(t, err, ErrBadPort)
	})
}
