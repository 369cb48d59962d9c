package sequencer

import (
	"context"

	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Serve bootstraps a node with opts and the engine built by initHandle. It
// returns once consensus is started and the API is bound. Any failure before
// that point is returned synchronously and leaves nothing running.
//
// Cancelling ctx shuts the node down; callers must then call Node.Wait.
func Serve(ctx context.Context, opts config.Options, initHandle consensus.InitHandle, logger *logrus.Entry) (*Node, error) {
	return serve(ctx, opts, initHandle, logger, nil)
}

func serve(ctx context.Context,
	opts config.Options,
	initHandle consensus.InitHandle,
	logger *logrus.Entry,
	extra []namedModule,
) (node *Node, err error) {

	selected, err := unconfigured{
		opts:       opts,
		initHandle: initHandle,
		logger:     logger,
	}.selectBackend(ctx)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil && selected.ds != nil {
			selected.ds.Close()
		}
	}()

	constructed, err := selected.constructHandle()
	if err != nil {
		return nil, err
	}

	subscribed, err := constructed.subscribe()
	if err != nil {
		return nil, err
	}

	registered, err := subscribed.buildState().registerModules(extra)
	if err != nil {
		return nil, err
	}

	bound, err := registered.bind()
	if err != nil {
		return nil, err
	}

	return bound.startConsensus(ctx)
}

// startConsensus spawns the server and the update loop, then starts the
// engine. It is the last stage.
func (s *serverBound) startConsensus(ctx context.Context) (*Node, error) {
	taskCtx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(taskCtx)

	node := &Node{
		Handle:    s.handle,
		NodeIndex: s.handle.NodeIndex(),
		addr:      s.ln.Addr(),
		group:     group,
		cancel:    cancel,
		ds:        s.ds,
		logger:    s.logger,
	}

	group.Go(func() error {
		return s.app.Serve(gctx, s.ln)
	})

	if s.stream != nil {
		group.Go(func() error {
			return runUpdateLoop(gctx, s.stream, s.state, s.logger)
		})
	}

	if err := s.starter.StartConsensus(gctx); err != nil {
		cancel()
		group.Wait()
		return nil, err
	}

	s.logger.WithField("addr", node.addr.String()).Info("Consensus started")

	return node, nil
}
