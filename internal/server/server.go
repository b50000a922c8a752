// Package server provides the Pitstop HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zulandar/pitstop/internal/auth"
	"github.com/zulandar/pitstop/internal/notify"
	"github.com/zulandar/pitstop/internal/vehicle"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Port     int
	Auth     *auth.Service
	Courier  *notify.Fanout          // nil disables chat alerts
	Registry *vehicle.RegistryClient // nil disables registry lookups
	Log      *logrus.Logger
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Auth == nil {
		return fmt.Errorf("server: auth service is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.Log == nil {
		opts.Log = logrus.New()
	}

	router := NewRouter(opts)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	opts.Log.WithField("addr", addr).Info("pitstop API listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with all routes registered. Split out so
// tests can drive it with httptest.
func NewRouter(opts StartOpts) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	if opts.Log == nil {
		opts.Log = logrus.New()
	}

	s := &api{
		db:       opts.DB,
		auth:     opts.Auth,
		courier:  opts.Courier,
		registry: opts.Registry,
		log:      opts.Log,
	}
	s.registerRoutes(router)
	return router
}

// api carries the handler dependencies.
type api struct {
	db       *gorm.DB
	auth     *auth.Service
	courier  *notify.Fanout
	registry *vehicle.RegistryClient
	log      *logrus.Logger
}
