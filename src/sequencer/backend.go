package sequencer

import (
	"context"

	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/mosaicnetworks/sequencer/src/datasource/fsstore"
	"github.com/mosaicnetworks/sequencer/src/datasource/sqlstore"
	"github.com/mosaicnetworks/sequencer/src/metrics"
	"github.com/sirupsen/logrus"
)

// backendKind is the closed set of query backends.
type backendKind int

const (
	noBackend backendKind = iota
	sqlBackend
	fsBackend
)

// String ...
func (k backendKind) String() string {
	switch k {
	case sqlBackend:
		return "sql"
	case fsBackend:
		return "fs"
	default:
		return "none"
	}
}

func backendOf(opts config.Options) backendKind {
	switch {
	case opts.QuerySQL != nil:
		return sqlBackend
	case opts.QueryFS != nil:
		return fsBackend
	default:
		return noBackend
	}
}

// openBackend creates the selected data source, or nil for minimal nodes.
func openBackend(ctx context.Context, opts config.Options, logger *logrus.Entry) (datasource.DataSource, error) {
	switch backendOf(opts) {
	case sqlBackend:
		return sqlstore.Create(ctx, *opts.QuerySQL, logger)
	case fsBackend:
		return fsstore.Create(*opts.QueryFS, logger)
	default:
		return nil, nil
	}
}

func sinkOf(ds datasource.DataSource) metrics.Sink {
	if ds == nil {
		return metrics.NoMetrics{}
	}
	return ds.PopulateMetrics()
}
