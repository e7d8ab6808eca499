package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketsync/backend/internal/domain/run"
	"github.com/marketsync/backend/internal/infrastructure/logger"
	"github.com/marketsync/backend/internal/interfaces/http/dto"
)

// SyncRunner triggers sync flows and exposes their run history.
type SyncRunner interface {
	CreateCards(ctx context.Context) (*run.Run, error)
	UpdatePrices(ctx context.Context) (*run.Run, error)
	UpdateQuantities(ctx context.Context) (*run.Run, error)
	BackfillIDs(ctx context.Context) (*run.Run, error)
	ListRuns(ctx context.Context, limit int) ([]run.Run, error)
}

// SyncHandler handles sync trigger and run history endpoints
type SyncHandler struct {
	BaseHandler
	runner SyncRunner
	logger *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(runner SyncRunner, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{runner: runner, logger: logger}
}

// RegisterRoutes registers the sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/:kind", h.Trigger)
		sync.GET("/runs", h.ListRuns)
	}
}

// RunResponse represents one sync run
type RunResponse struct {
	ID         string     `json:"id"`
	Store      string     `json:"store"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Rejected   int        `json:"rejected"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Duration   string     `json:"duration,omitempty"`
}

func toRunResponse(r *run.Run) RunResponse {
	resp := RunResponse{
		ID:         r.ID.String(),
		Store:      r.Store,
		Kind:       string(r.Kind),
		Status:     string(r.Status),
		Total:      r.Total,
		Succeeded:  r.Succeeded,
		Rejected:   r.Rejected,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if d := r.Duration(); d > 0 {
		resp.Duration = d.Round(time.Millisecond).String()
	}
	return resp
}

// Trigger runs the named sync flow synchronously and returns its run record.
// A flow failure is an upstream fault: the run record is still returned so
// the operator can see how far it got.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var flow func(ctx context.Context) (*run.Run, error)
	kind := run.Kind(c.Param("kind"))
	switch kind {
	case run.KindCards:
		flow = h.runner.CreateCards
	case run.KindPrices:
		flow = h.runner.UpdatePrices
	case run.KindQuantities:
		flow = h.runner.UpdateQuantities
	case run.KindBackfill:
		flow = h.runner.BackfillIDs
	default:
		h.BadRequest(c, "unknown sync kind "+c.Param("kind"))
		return
	}

	r, err := flow(c.Request.Context())
	if err != nil {
		// request-scoped logger so the failure carries the request id
		logger.GetGinLogger(c).Error("sync flow failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		if r != nil {
			c.JSON(http.StatusBadGateway, dto.Response{
				Success: false,
				Data:    toRunResponse(r),
				Error:   &dto.ErrorInfo{Code: dto.ErrCodeUpstream, Message: err.Error()},
			})
			return
		}
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, err.Error())
		return
	}

	h.Success(c, toRunResponse(r))
}

// ListRuns returns the most recent sync runs, newest first
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.runner.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, toRunResponse(&runs[i]))
	}
	h.Success(c, out)
}
