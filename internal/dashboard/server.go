// Package dashboard serves the health and report JSON API.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/rdtrack/internal/health"
	"github.com/zulandar/rdtrack/internal/report"
	"github.com/zulandar/rdtrack/internal/store"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB          *gorm.DB
	Port        int
	Out         io.Writer
	HistoryDays int
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := NewRouter(opts.DB, health.WithHistoryDays(opts.HistoryDays))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard API running at http://localhost:%d/api/health/dashboard\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the API router over db.
func NewRouter(db *gorm.DB, opts ...health.Option) *gin.Engine {
	s := store.New(db)
	a := &api{
		store:   s,
		health:  health.NewService(s, opts...),
		reports: report.NewBuilder(s),
		poll:    3 * time.Second,
		beat:    15 * time.Second,
	}
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, a)
	return router
}
