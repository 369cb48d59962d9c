package sequencer

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mosaicnetworks/sequencer/src/api"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/mosaicnetworks/sequencer/src/node"
	"github.com/mosaicnetworks/sequencer/src/peers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitToAvailability(t *testing.T) {
	key, err := keys.GenerateKey()
	require.NoError(t, err)
	validator := node.NewValidator(key, "solo")
	peerSet := peers.NewPeerSet([]*peers.Peer{
		peers.NewPeer(validator.PublicKeyHex(), "", "solo"),
	})

	opts := config.NewOptions(config.HTTP{Port: freePort(t)}).
		WithSubmit().
		WithQuerySQL(config.SQL{Driver: "sqlite3", Database: filepath.Join(t.TempDir(), "q.db")})

	n, err := Serve(context.Background(), opts,
		node.NewInitHandle(node.TestConfig(t), validator, peerSet),
		common.NewTestEntry(t, common.TestLogLevel))
	require.NoError(t, err)
	defer func() {
		n.Shutdown()
		require.NoError(t, n.Wait())
	}()

	resp, err := http.Post(url(n, "/submit/submit"), "application/octet-stream", strings.NewReader("hello"))
	require.NoError(t, err)
	var submitted api.SubmitResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	resp.Body.Close()

	var tx datasource.TransactionRecord
	require.Eventually(t, func() bool {
		resp, err := http.Get(url(n, "/availability/transaction/"+submitted.Hash))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&tx) == nil
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, []byte("hello"), tx.Payload)

	code, body := httpGet(t, n, "/status/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "sequencer_consensus_blocks_decided_total")
}
