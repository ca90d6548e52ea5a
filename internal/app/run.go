package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/vk/fnmesh/internal/ctxlog"
	"github.com/vk/fnmesh/internal/lbserver"
)

// shutdownGrace bounds how long in-flight requests may finish after the
// context is cancelled.
const shutdownGrace = 10 * time.Second

// Run serves the load-balanced HTTP application until ctx is cancelled,
// then drains it gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	engine := lbserver.New(ctx, a.routes, lbserver.Options{
		Identity:   a.registry.Identity(),
		Attributes: a.cfg.Attributes,
	})

	srv := &http.Server{
		Addr:    a.cfg.Server.Listen,
		Handler: engine,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", "address", a.cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	a.logger.Debug("App.Run method finished.")
	return nil
}
