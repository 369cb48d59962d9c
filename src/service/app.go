package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mosaicnetworks/sequencer/src/common"
	"github.com/mosaicnetworks/sequencer/src/version"
	"github.com/sirupsen/logrus"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type entry struct {
	module  string
	pattern string
	handler http.HandlerFunc
}

// App is the HTTP server of a node.
type App struct {
	sync.Mutex

	modules []string
	entries []entry
	logger  *logrus.Entry
}

// NewApp returns an App with the health and version routes.
func NewApp(logger *logrus.Entry) *App {
	app := &App{
		logger: logger,
	}

	app.entries = append(app.entries,
		entry{"", "GET /healthcheck", app.GetHealth},
		entry{"", "GET /version", app.GetVersion},
	)

	return app
}

// RegisterModule mounts m under /name/. It fails with a
// ModuleRegistrationError, and registers nothing, if the name is empty or
// taken, if m has no routes, or if any route collides with an existing one.
func (a *App) RegisterModule(name string, m *Module) error {
	a.Lock()
	defer a.Unlock()

	op := fmt.Sprintf("register module %q", name)

	if name == "" || strings.Contains(name, "/") {
		return common.Errorf(common.ModuleRegistrationError, op, "invalid module name")
	}
	for _, existing := range a.modules {
		if existing == name {
			return common.Errorf(common.ModuleRegistrationError, op, "module already registered")
		}
	}
	if m == nil || len(m.routes) == 0 {
		return common.Errorf(common.ModuleRegistrationError, op, "module has no routes")
	}

	candidate := append([]entry{}, a.entries...)
	for _, r := range m.routes {
		if r.Handler == nil {
			return common.Errorf(common.ModuleRegistrationError, op, "nil handler for %s", r.Path)
		}
		candidate = append(candidate, entry{
			module:  name,
			pattern: pattern(r.Method, "/"+name, r.Path),
			handler: r.Handler,
		})
	}

	if _, err := buildMux(candidate, a.middleware); err != nil {
		return common.NewNodeErr(common.ModuleRegistrationError, op, err)
	}

	a.entries = candidate
	a.modules = append(a.modules, name)

	a.logger.WithFields(logrus.Fields{
		"module": name,
		"routes": len(m.routes),
	}).Debug("Registered module")

	return nil
}

// Modules returns the registered module names in registration order.
func (a *App) Modules() []string {
	a.Lock()
	defer a.Unlock()
	return append([]string{}, a.modules...)
}

// Handler returns an http.Handler serving every route registered so far.
func (a *App) Handler() http.Handler {
	a.Lock()
	defer a.Unlock()

	mux, err := buildMux(a.entries, a.middleware)
	if err != nil {
		// entries were validated on registration
		panic(err)
	}
	return mux
}

// buildMux registers entries on a fresh ServeMux, turning the mux's panics on
// conflicting patterns into errors.
func buildMux(entries []entry, wrap func(http.HandlerFunc) http.HandlerFunc) (mux *http.ServeMux, err error) {
	mux = http.NewServeMux()

	defer func() {
		if r := recover(); r != nil {
			mux = nil
			err = fmt.Errorf("%v", r)
		}
	}()

	seen := make(map[string]string)
	for _, e := range entries {
		if owner, ok := seen[e.pattern]; ok {
			return nil, fmt.Errorf("route %q already registered by %q", e.pattern, owner)
		}
		seen[e.pattern] = e.module
		mux.HandleFunc(e.pattern, wrap(e.handler))
	}

	return mux, nil
}

func (a *App) middleware(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Listen binds the API port. Bind failures are RuntimeTaskErrors.
func (a *App) Listen(port int) (net.Listener, error) {
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, common.NewNodeErr(common.RuntimeTaskError, "bind "+addr, err)
	}
	a.logger.WithField("bind_address", ln.Addr().String()).Debug("Bound API port")
	return ln, nil
}

// Serve serves on ln until ctx is done, then shuts down gracefully. This is
// a blocking call.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	a.logger.WithField("bind_address", ln.Addr().String()).Info("Serving API")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return common.NewNodeErr(common.RuntimeTaskError, "serve", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Shutting down API")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return common.NewNodeErr(common.RuntimeTaskError, "serve", err)
	}
	return nil
}

// GetHealth ...
func (a *App) GetHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "available"})
}

// GetVersion ...
func (a *App) GetVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}
