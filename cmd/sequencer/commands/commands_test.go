package commands

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/crypto/keys"
	"github.com/mosaicnetworks/sequencer/src/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func testConfig(t *testing.T) *config.Config {
	return config.NewTestConfig(t, common.TestLogLevel)
}

func execute(ctx context.Context, conf *config.Config, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(conf)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeKey(t *testing.T, conf *config.Config) {
	t.Helper()
	key, err := keys.GenerateKey()
	require.NoError(t, err)
	require.NoError(t, keys.NewSimpleKeyfile(conf.Keyfile()).WriteKey(key))
}

// startRun executes the run command in the background. The returned channel
// yields its result once ctx is cancelled.
func startRun(ctx context.Context, conf *config.Config, args ...string) <-chan error {
	done := make(chan error, 1)
	go func() {
		args = append([]string{"run", "--heartbeat", "5ms", "--slow-heartbeat", "20ms"}, args...)
		_, err := execute(ctx, conf, args...)
		done <- err
	}()
	return done
}

func waitStatus(t *testing.T, port int, path string, status int) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d%s", port, path))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == status
	}, 5*time.Second, 10*time.Millisecond)
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
		return nil
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(context.Background(), testConfig(t), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)
}

func TestKeygen(t *testing.T) {
	conf := testConfig(t)

	out, err := execute(context.Background(), conf, "keygen")
	require.NoError(t, err)
	assert.Contains(t, out, conf.Keyfile())

	key, err := keys.NewSimpleKeyfile(conf.Keyfile()).ReadKey()
	require.NoError(t, err)

	pub, err := os.ReadFile(filepath.Join(conf.DataDir, defaultPublicKeyFile))
	require.NoError(t, err)
	assert.Equal(t, keys.PublicKeyHex(key.PubKey()), string(pub))

	_, err = execute(context.Background(), conf, "keygen")
	assert.ErrorContains(t, err, "a key already lives under")
}

func TestKeygenCustomPaths(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "a", "priv")
	pub := filepath.Join(dir, "b", "pub")

	_, err := execute(context.Background(), testConfig(t), "keygen", "--priv", priv, "--pub", pub)
	require.NoError(t, err)

	assert.FileExists(t, priv)
	assert.FileExists(t, pub)
}

func TestRunWithoutKey(t *testing.T) {
	_, err := execute(context.Background(), testConfig(t), "run", "--api-port", strconv.Itoa(freePort(t)))
	assert.ErrorContains(t, err, "run keygen first")
}

func TestRunConfigError(t *testing.T) {
	conf := testConfig(t)
	writeKey(t, conf)

	_, err := execute(context.Background(), conf, "run",
		"--api-port", strconv.Itoa(freePort(t)),
		"--query-fs", "--query-sql", "--sql-driver", "sqlite3")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.ConfigError), err.Error())
}

func TestRunRejectsZeroHeartbeat(t *testing.T) {
	conf := testConfig(t)
	writeKey(t, conf)
	port := freePort(t)

	_, err := execute(context.Background(), conf, "run",
		"--api-port", strconv.Itoa(port),
		"--submit",
		"--slow-heartbeat", "0s")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.ConfigError), err.Error())

	// nothing was bound
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	ln.Close()
}

func TestRunUntilCancelled(t *testing.T) {
	conf := testConfig(t)
	writeKey(t, conf)
	port := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := startRun(ctx, conf,
		"--api-port", strconv.Itoa(port),
		"--submit", "--query-fs")

	waitStatus(t, port, "/healthcheck", http.StatusOK)

	resp, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/submit/submit", port),
		"application/octet-stream", strings.NewReader("tx"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	waitStatus(t, port, "/availability/block/0", http.StatusOK)

	assert.DirExists(t, filepath.Join(conf.DataDir, config.DefaultStorageDir))

	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestRunFromEnvironment(t *testing.T) {
	conf := testConfig(t)
	writeKey(t, conf)
	port := freePort(t)

	t.Setenv("SEQUENCER_API_PORT", strconv.Itoa(port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := startRun(ctx, conf)

	waitStatus(t, port, "/healthcheck", http.StatusOK)
	// minimal mode
	waitStatus(t, port, "/status/latest_block_height", http.StatusNotFound)

	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestRunFromConfigFile(t *testing.T) {
	conf := testConfig(t)
	writeKey(t, conf)
	port := freePort(t)

	db := filepath.Join(t.TempDir(), "query.db")
	file := fmt.Sprintf(`
api-port = %d
query-sql = true
sql-driver = "sqlite3"
postgres-database = %q
`, port, db)
	require.NoError(t, os.WriteFile(filepath.Join(conf.DataDir, "sequencer.toml"), []byte(file), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := startRun(ctx, conf)

	waitStatus(t, port, "/status/latest_block_height", http.StatusOK)
	assert.FileExists(t, db)

	cancel()
	assert.NoError(t, waitDone(t, done))
}
