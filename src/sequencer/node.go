package sequencer

import (
	"context"
	"net"
	"sync"

	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Node is a running sequencer node: the consensus handle, this node's index
// and the supervised task serving the API and applying events.
type Node struct {
	Handle    *consensus.Handle
	NodeIndex consensus.NodeIndex

	addr   net.Addr
	group  *errgroup.Group
	cancel context.CancelFunc
	ds     datasource.DataSource
	logger *logrus.Entry

	waitOnce sync.Once
	waitErr  error
}

// Addr is the address the API is served on.
func (n *Node) Addr() net.Addr {
	return n.addr
}

// Shutdown cancels the node's task. Wait returns once it has stopped.
func (n *Node) Shutdown() {
	n.cancel()
}

// Wait blocks until the supervised task ends, releases the query backend and
// returns the first error of the server or the update loop.
func (n *Node) Wait() error {
	n.waitOnce.Do(func() {
		n.waitErr = n.group.Wait()
		n.cancel()

		if n.ds != nil {
			if err := n.ds.Close(); err != nil {
				n.logger.WithError(err).Warn("Closing query backend")
			}
		}

		if n.waitErr != nil {
			n.logger.WithError(n.waitErr).Error("Node task failed")
		} else {
			n.logger.Info("Node stopped")
		}
	})
	return n.waitErr
}
