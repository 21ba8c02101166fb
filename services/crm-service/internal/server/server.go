package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stoik/simplecrm/services/crm-service/internal/auth"
	"github.com/stoik/simplecrm/services/crm-service/internal/logging"
	"github.com/stoik/simplecrm/services/crm-service/internal/people"
	"github.com/stoik/simplecrm/services/crm-service/internal/provider"
	"github.com/stoik/simplecrm/services/crm-service/internal/web"
)

const shutdownTimeout = 10 * time.Second

// Deps are the components the router is assembled from.
type Deps struct {
	Logger           *zap.Logger
	AppURL           string
	Provider         provider.Provider
	Sessions         *auth.SessionManager
	Sync             *auth.Synchronizer
	People           people.Repository
	EnforceOwnership bool
}

// NewRouter builds the gin engine serving the UI, auth and contacts routes.
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(logging.Requests(d.Logger), logging.Recovery(d.Logger))

	// registered before the session middleware so probes never touch the store
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Use(auth.Middleware(d.Sessions, d.Sync, d.Logger))

	auth.NewHandler(d.Provider, d.Sessions, d.Sync, d.AppURL, d.Logger).Register(r)
	people.NewHandler(d.People, d.Logger, d.EnforceOwnership).Register(r)
	if err := web.NewHandler(d.Provider.Name()).Register(r); err != nil {
		return nil, err
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return r, nil
}

type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func New(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for up
// to shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Some requests may not have completed", zap.Error(err))
		return fmt.Errorf("failed to shut down: %w", err)
	}

	return <-errChan
}
