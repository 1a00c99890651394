package dashboard

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/health"
	"github.com/zulandar/rdtrack/internal/report"
	"github.com/zulandar/rdtrack/internal/store"
)

type api struct {
	store   *store.Store
	health  *health.Service
	reports *report.Builder
	poll    time.Duration
	beat    time.Duration
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, a *api) {
	g := router.Group("/api")
	g.GET("/health/dashboard", a.handleDashboard)
	g.GET("/assets/:id/health", a.handleAssetHealth)
	g.GET("/assets/:id/health/history", a.handleHistory)
	g.POST("/snapshots", a.handleRecordAll)
	g.GET("/reports/person", a.handlePersonReport)
	g.GET("/reports/engineer/:id", a.handleEngineerReport)
	g.GET("/events", a.handleSSE)
}

func (a *api) handleDashboard(c *gin.Context) {
	d, err := a.health.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (a *api) handleAssetHealth(c *gin.Context) {
	m, err := a.health.ComputeAssetHealth(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *api) handleHistory(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
			return
		}
		days = n
	}
	snaps, err := a.health.History(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snaps)
}

func (a *api) handleRecordAll(c *gin.Context) {
	results, err := a.health.RecordAll(c.Request.Context())
	if err != nil && len(results) == 0 {
		writeError(c, err)
		return
	}
	resp := gin.H{"recorded": len(results), "assets": results}
	if err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (a *api) handlePersonReport(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	r, err := dates.ParseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	rep, err := a.reports.Person(c.Request.Context(), name, r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (a *api) handleEngineerReport(c *gin.Context) {
	r, err := dates.ParseRange(c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	rep, err := a.reports.Engineer(c.Request.Context(), c.Param("id"), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dates.ErrMalformed), errors.Is(err, report.ErrInvalid):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
