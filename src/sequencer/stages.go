package sequencer

import (
	"context"
	"net"

	"github.com/mosaicnetworks/sequencer/src/api"
	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/config"
	"github.com/mosaicnetworks/sequencer/src/consensus"
	"github.com/mosaicnetworks/sequencer/src/datasource"
	"github.com/mosaicnetworks/sequencer/src/service"
	"github.com/sirupsen/logrus"
)

type namedModule struct {
	name   string
	module *service.Module
}

type unconfigured struct {
	opts       config.Options
	initHandle consensus.InitHandle
	logger     *logrus.Entry
}

func (s unconfigured) selectBackend(ctx context.Context) (*backendSelected, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}

	kind := backendOf(s.opts)
	logger := s.logger.WithField("backend", kind.String())

	ds, err := openBackend(ctx, s.opts, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Backend selected")

	return &backendSelected{
		unconfigured: s,
		logger:       logger,
		ds:           ds,
	}, nil
}

type backendSelected struct {
	unconfigured
	logger *logrus.Entry
	ds     datasource.DataSource
}

func (s *backendSelected) constructHandle() (*handleConstructed, error) {
	engine, index, err := s.initHandle(sinkOf(s.ds))
	if err != nil {
		return nil, common.NewNodeErr(common.ConfigError, "construct consensus handle", err)
	}

	s.logger.WithField("node_index", index).Debug("Consensus handle constructed")

	return &handleConstructed{
		backendSelected: s,
		handle:          consensus.NewHandle(engine, index),
	}, nil
}

type handleConstructed struct {
	*backendSelected
	handle *consensus.Handle
}

// subscribe obtains the event stream before anything can start the engine.
// Minimal nodes consume no events and only take the Starter.
func (s *handleConstructed) subscribe() (*subscribed, error) {
	if s.ds == nil {
		return &subscribed{
			handleConstructed: s,
			starter:           s.handle.WithoutEvents(),
		}, nil
	}

	stream, starter, err := s.handle.Subscribe()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Subscribed to consensus events")

	return &subscribed{
		handleConstructed: s,
		stream:            stream,
		starter:           starter,
	}, nil
}

type subscribed struct {
	*handleConstructed
	stream  *consensus.EventStream
	starter *consensus.Starter
}

func (s *subscribed) buildState() *stateBuilt {
	var state *api.State
	if s.ds == nil {
		state = api.NewMinimalState(s.handle)
	} else {
		state = api.NewQueryState(s.ds, s.handle)
	}
	return &stateBuilt{
		subscribed: s,
		state:      state,
	}
}

type stateBuilt struct {
	*subscribed
	state *api.State
}

// registerModules composes the server. Nothing is bound yet, so a failure
// leaves no partial server behind.
func (s *stateBuilt) registerModules(extra []namedModule) (*modulesRegistered, error) {
	app := service.NewApp(s.logger)

	modules := []namedModule{}

	if s.opts.Submit != nil {
		modules = append(modules, namedModule{"submit", api.NewSubmitModule(s.state, s.logger)})
	}

	if s.ds != nil {
		availability, err := api.NewAvailabilityModule(s.state, s.logger)
		if err != nil {
			return nil, err
		}
		status, err := api.NewStatusModule(s.state, s.logger)
		if err != nil {
			return nil, err
		}
		modules = append(modules,
			namedModule{"availability", availability},
			namedModule{"status", status},
		)
	}

	modules = append(modules, extra...)

	for _, m := range modules {
		if err := app.RegisterModule(m.name, m.module); err != nil {
			return nil, err
		}
	}

	s.logger.WithField("modules", app.Modules()).Debug("Modules registered")

	return &modulesRegistered{
		stateBuilt: s,
		app:        app,
	}, nil
}

type modulesRegistered struct {
	*stateBuilt
	app *service.App
}

func (s *modulesRegistered) bind() (*serverBound, error) {
	ln, err := s.app.Listen(s.opts.HTTP.Port)
	if err != nil {
		return nil, err
	}
	return &serverBound{
		modulesRegistered: s,
		ln:                ln,
	}, nil
}

type serverBound struct {
	*modulesRegistered
	ln net.Listener
}
