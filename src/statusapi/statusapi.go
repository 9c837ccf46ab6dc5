// Package statusapi exposes a read-only JSON view of the running
// scheduler's per-channel state, plus a validated POST endpoint to
// retune the RACH detector's scan window at runtime. It is additive
// observability: disabled unless a listen address is configured, and
// it never touches the tap protocol, which stays the only decoded-frame
// output.
package statusapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/doismellburning/gmr1rx/src"
)

// Snapshotter is the narrow view the status API needs of the running
// bus, kept as an interface so handlers are testable without a real
// scheduler.
type Snapshotter interface {
	Snapshot() []gmr1.ChannelSnapshot
}

// ScanWindowSetter lets the retune endpoint reach the live RACH
// detector(s) registered for a run.
type ScanWindowSetter interface {
	SetRACHScanWindow(window int) error
}

// Server wraps a gin engine serving the status API.
type Server struct {
	engine    *gin.Engine
	bus       Snapshotter
	rach      ScanWindowSetter
	validator *validator.Validate
}

// New builds a Server. bus and rach may be nil in contexts that only
// need one of the two endpoint groups (e.g. tests).
func New(bus Snapshotter, rach ScanWindowSetter) *Server {
	s := &Server{
		engine:    gin.New(),
		bus:       bus,
		rach:      rach,
		validator: validator.New(),
	}
	s.engine.Use(gin.Recovery())
	s.engine.GET("/status", s.handleStatus)
	s.engine.POST("/rach/scan-window", s.handleSetScanWindow)
	return s
}

// Run blocks serving the status API on addr.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func (s *Server) handleStatus(c *gin.Context) {
	if s.bus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "scheduler not attached"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"channels": s.bus.Snapshot(),
	})
}

// scanWindowRequest is validated via go-playground/validator (through
// gin's ShouldBindJSON) before it ever reaches the RACH detector.
type scanWindowRequest struct {
	Window int `json:"window" binding:"required" validate:"gte=1,lte=100000"`
}

func (s *Server) handleSetScanWindow(c *gin.Context) {
	var req scanWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	if s.rach == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": "rach detector not attached"})
		return
	}
	if err := s.rach.SetRACHScanWindow(req.Window); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "window": req.Window})
}
