package sequencer

import (
	"context"
	"errors"

	"github.com/mosaicnetworks/sequencer/src/api"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/sirupsen/logrus"
)

// runUpdateLoop applies every event of stream to the backend, in order and
// once. Waiting for the next event is the only point where it stops; an
// event taken from the stream is always applied in full.
func runUpdateLoop(ctx context.Context, stream *consensus.EventStream, state *api.State, logger *logrus.Entry) error {
	var expected uint64

	for {
		ev, err := stream.Next(ctx)
		if errors.Is(err, consensus.ErrStreamClosed) {
			logger.Debug("Event stream ended")
			return nil
		}
		if err != nil {
			// cancelled between events
			return nil
		}

		if ev.Seq != expected {
			return common.Errorf(common.EventPipelineError, "update loop",
				"expected event %d, got %d", expected, ev.Seq)
		}
		expected++

		if err := state.Apply(context.WithoutCancel(ctx), ev); err != nil {
			return common.NewNodeErr(common.RuntimeTaskError, "apply event", err)
		}

		logger.WithFields(logrus.Fields{
			"seq":  ev.Seq,
			"type": ev.Type.String(),
			"view": ev.View,
		}).Debug("Applied event")
	}
}
