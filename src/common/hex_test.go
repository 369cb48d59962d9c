package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	raw := []byte{0xde, 0xad, 0xbe, 0xef}

	s := EncodeToString(raw)
	require.Equal(t, "0XDEADBEEF", s)

	for _, in := range []string{s, "0xdeadbeef", "deadbeef"} {
		out, err := DecodeFromString(in)
		require.NoError(t, err, in)
		require.Equal(t, raw, out, in)
	}

	_, err := DecodeFromString("0xzz")
	require.Error(t, err)
}
