package datasource

import (
	"context"

	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// DataSource is a query backend. Apply is called by a single writer; the
// read methods may run concurrently with each other but not with Apply.
type DataSource interface {
	// PopulateMetrics returns the sink the consensus engine reports to.
	PopulateMetrics() metrics.Sink

	// Apply records one event.
	Apply(ctx context.Context, ev consensus.Event) error

	// BlockHeight is the number of stored blocks. Heights start at zero.
	BlockHeight(ctx context.Context) (uint64, error)
	GetBlock(ctx context.Context, height uint64) (*BlockRecord, error)
	GetBlockByHash(ctx context.Context, hash string) (*BlockRecord, error)
	GetTransaction(ctx context.Context, hash string) (*TransactionRecord, error)
	Status(ctx context.Context) (Status, error)

	// Metrics exposes everything registered through PopulateMetrics.
	Metrics() prometheus.Gatherer

	Close() error
}
