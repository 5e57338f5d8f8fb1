package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-api/internal/config"
	"github.com/adanyl0v/go-todo-api/internal/delivery/http/middleware"
	"github.com/adanyl0v/go-todo-api/internal/delivery/http/v1"
)

// Router builds the gin engine. ConnectStorage must have been called.
func (a *App) Router() *gin.Engine {
	if a.cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(a.logger))

	if a.cfg.Metrics.Enabled {
		metrics := middleware.NewMetrics()
		router.Use(metrics.Middleware())
		router.GET("/metrics", metrics.Handler())
	}

	v1.RegisterRoutes(router, v1.New(a.logger, a.todos))
	return router
}

// ListenAndServeHTTP serves until ctx is done, then shuts the server
// down gracefully within the configured timeout.
func (a *App) ListenAndServeHTTP(ctx context.Context) error {
	httpCfg := a.cfg.HTTP

	server := &http.Server{
		Addr:              net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error().
				Err(err).
				Msg("failed to listen and serve http")
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		return err
	}
	a.logger.Info().Msg("shut down http server")
	return nil
}
