package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mosaicnetworks/sequencer/src/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleKeyfile(t *testing.T) {
	simpleKeyfile := NewSimpleKeyfile(filepath.Join(t.TempDir(), "keys", "priv_key"))

	// Try a read, should get nothing
	key, err := simpleKeyfile.ReadKey()
	require.Error(t, err)
	require.Nil(t, key)

	key, err = GenerateKey()
	require.NoError(t, err)
	require.NoError(t, simpleKeyfile.WriteKey(key))

	nKey, err := simpleKeyfile.ReadKey()
	require.NoError(t, err)
	assert.Equal(t, PrivateKeyHex(key), PrivateKeyHex(nKey))
	assert.Equal(t, PublicKeyHex(key.PubKey()), PublicKeyHex(nKey.PubKey()))
}

func TestSimpleKeyfilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "priv_key")
	simpleKeyfile := NewSimpleKeyfile(path)

	key, err := GenerateKey()
	require.NoError(t, err)
	require.NoError(t, simpleKeyfile.WriteKey(key))

	require.NoError(t, os.Chmod(path, 0644))

	_, err = simpleKeyfile.ReadKey()
	require.Error(t, err)
}

func TestParsePrivateKey(t *testing.T) {
	_, err := ParsePrivateKey(make([]byte, 31))
	require.Error(t, err)

	_, err = ParsePrivateKey(make([]byte, 32))
	require.Error(t, err, "zero key must be rejected")

	overflow := make([]byte, 32)
	for i := range overflow {
		overflow[i] = 0xff
	}
	_, err = ParsePrivateKey(overflow)
	require.Error(t, err)
}

func TestSignVerify(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	hash := crypto.SHA256([]byte("block payload"))
	sig := Sign(key, hash)

	pub, err := ParsePublicKeyHex(PublicKeyHex(key.PubKey()))
	require.NoError(t, err)

	assert.True(t, Verify(pub, hash, sig))
	assert.False(t, Verify(pub, crypto.SHA256([]byte("other")), sig))
	assert.False(t, Verify(pub, hash, "not-hex"))

	other, err := GenerateKey()
	require.NoError(t, err)
	assert.False(t, Verify(other.PubKey(), hash, sig))
}
