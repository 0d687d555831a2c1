// Package trigger exposes an HTTP endpoint that queues manual ballot runs.
package trigger

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pydata-london/meetup-ballot/internal/middleware"
	"github.com/pydata-london/meetup-ballot/pkg/queue"
	"github.com/pydata-london/meetup-ballot/pkg/response"
)

// Enqueuer queues ballot runs.
type Enqueuer interface {
	EnqueueBallotRun(ctx context.Context, payload queue.BallotRunPayload) (*queue.Job, error)
}

// TriggerRequest is the optional body for POST /ballots.
type TriggerRequest struct {
	Force       bool   `json:"force"`
	DryRun      bool   `json:"dry_run"`
	RequestedBy string `json:"requested_by"`
}

// Handler handles trigger HTTP endpoints.
type Handler struct {
	queue  Enqueuer
	logger *zap.Logger
}

// NewHandler creates a trigger handler.
func NewHandler(q Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{queue: q, logger: logger}
}

// Trigger handles POST /ballots. An empty body queues a regular run.
func (h *Handler) Trigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.RequestedBy == "" {
		req.RequestedBy = c.GetString(middleware.ContextRequester)
	}

	job, err := h.queue.EnqueueBallotRun(c.Request.Context(), queue.BallotRunPayload{
		Force:       req.Force,
		DryRun:      req.DryRun,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		h.logger.Error("enqueue ballot run failed", zap.Error(err))
		response.ServiceUnavailable(c, "failed to queue ballot run")
		return
	}

	h.logger.Info("ballot run queued", zap.String("job_id", job.ID), zap.Bool("force", req.Force), zap.Bool("dry_run", req.DryRun))
	response.Accepted(c, gin.H{
		"job_id":  job.ID,
		"force":   req.Force,
		"dry_run": req.DryRun,
	})
}

// NewRouter builds the trigger API.
func NewRouter(h *Handler, token string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.POST("/ballots", middleware.TriggerToken(token), h.Trigger)
	return router
}
