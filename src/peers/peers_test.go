package peers

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePeers(t *testing.T, n int) []*Peer {
	t.Helper()
	res := []*Peer{}
	for i := 0; i < n; i++ {
		key, err := keys.GenerateKey()
		require.NoError(t, err)
		res = append(res, NewPeer(
			keys.PublicKeyHex(key.PubKey()),
			fmt.Sprintf("addr%d", i),
			fmt.Sprintf("peer%d", i),
		))
	}
	return res
}

func TestJSONPeerSet(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONPeerSet(dir)

	// Try a read, should get nothing
	peerSet, err := store.PeerSet()
	require.Error(t, err)
	require.Nil(t, peerSet)

	peers := makePeers(t, 3)
	require.NoError(t, store.Write(peers))

	peerSet, err = store.PeerSet()
	require.NoError(t, err)
	require.Equal(t, 3, peerSet.Len())

	for i, p := range peers {
		idx, ok := peerSet.IndexOf(p.PubKeyHex)
		require.True(t, ok)
		assert.Equal(t, i, idx)
		assert.Equal(t, p.Moniker, peerSet.Peers[i].Moniker)
	}
}

func TestJSONPeerSetEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "peers.json"), nil, 0644))

	peerSet, err := NewJSONPeerSet(dir).PeerSet()
	require.NoError(t, err)
	assert.Equal(t, 0, peerSet.Len())
}

func TestPeerSetIndexIsCaseInsensitive(t *testing.T) {
	peers := makePeers(t, 2)
	lower := NewPeer("0x"+peers[1].PubKeyHex[2:], "", "")

	peerSet := NewPeerSet(append(peers, lower))

	assert.Equal(t, 2, peerSet.Len(), "duplicate key must be ignored")

	idx, ok := peerSet.IndexOf(lower.PubKeyHex)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = peerSet.IndexOf("0X00")
	assert.False(t, ok)
}
