package datasource_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/mosaicnetworks/sequencer/src/datasource/dstest"
	"github.com/mosaicnetworks/sequencer/src/datasource/fsstore"
	"github.com/mosaicnetworks/sequencer/src/datasource/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The two backends fed the same events answer every query identically.
func TestBackendEquivalence(t *testing.T) {
	ctx := context.Background()
	logger := common.NewTestEntry(t, common.TestLogLevel)
	dir := t.TempDir()

	fs, err := fsstore.Create(config.FS{StoragePath: filepath.Join(dir, "fs")}, logger)
	require.NoError(t, err)
	defer fs.Close()

	sql, err := sqlstore.Create(ctx, config.SQL{Driver: "sqlite3", Database: filepath.Join(dir, "q.db")}, logger)
	require.NoError(t, err)
	defer sql.Close()

	key, err := keys.GenerateKey()
	require.NoError(t, err)

	t0 := time.Unix(1700000000, 0)
	events := []consensus.Event{}
	for v := uint64(0); v < 20; v++ {
		events = append(events, consensus.NewViewFinishedEvent(v, t0))
		if v%3 != 0 {
			events = append(events, dstest.DecideEvent(t, key, v,
				t0.Add(time.Duration(v)*time.Second), "a", "b", string(rune('c'+v))))
		}
	}

	for _, ds := range []datasource.DataSource{fs, sql} {
		for _, ev := range events {
			require.NoError(t, ds.Apply(ctx, ev))
		}
	}

	fsSnap := dstest.Snapshot(t, fs)
	sqlSnap := dstest.Snapshot(t, sql)
	assert.Equal(t, fsSnap, sqlSnap)
	assert.Equal(t, uint64(13), fsSnap["height"])
}
