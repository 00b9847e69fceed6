package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/varpulse/internal/domain/dto"
	"github.com/guttosm/varpulse/internal/domain/models"
	"github.com/guttosm/varpulse/internal/service"
)

// RunService is the subset of *service.RunService the handlers use.
type RunService interface {
	Start(ctx context.Context, spec service.RunSpec) (models.Run, error)
	Get(ctx context.Context, id string) (models.Run, error)
	List(ctx context.Context, limit int) ([]models.Run, error)
}

// Handler provides HTTP handlers for generation runs.
//
// Responsibilities:
//   - Decode and validate run requests
//   - Delegate to the run service
//   - Map run records and service errors to JSON responses
type Handler struct {
	svc RunService
}

// NewHandler constructs a Handler backed by svc.
func NewHandler(svc RunService) *Handler {
	return &Handler{svc: svc}
}

// StartRun godoc
// @Summary      Start a generation run
// @Description  Starts an asynchronous run that generates products, trades and risks. Omitted fields use the server defaults.
// @Tags         runs
// @Accept       json
// @Produce      json
// @Param        request  body      dto.RunRequest    false  "Run overrides"
// @Success      202      {object}  dto.RunResponse   "Accepted"
// @Failure      400      {object}  dto.ErrorResponse "Bad Request"
// @Failure      409      {object}  dto.ErrorResponse "A run is already in progress"
// @Failure      500      {object}  dto.ErrorResponse "Internal Error"
// @Router       /api/v1/runs [post]
func (h *Handler) StartRun(c *gin.Context) {
	var req dto.RunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
			return
		}
	}

	run, err := h.svc.Start(c.Request.Context(), service.RunSpec{
		TradeCount:   req.TradeCount,
		ProductCount: req.ProductCount,
		VectorLength: req.VectorLength,
		Mode:         req.Mode,
	})
	switch {
	case errors.Is(err, service.ErrInvalidRunSpec):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid run request", err))
		return
	case errors.Is(err, service.ErrRunInProgress):
		c.JSON(http.StatusConflict, dto.NewErrorResponse("a run is already in progress", err))
		return
	case errors.Is(err, service.ErrShuttingDown):
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("server is shutting down", err))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to start run", err))
		return
	}

	c.Header("Location", "/api/v1/runs/"+run.ID)
	c.JSON(http.StatusAccepted, dto.NewRunResponse(run))
}

// GetRun godoc
// @Summary      Get a generation run
// @Tags         runs
// @Produce      json
// @Param        id   path      string  true  "Run id"
// @Success      200  {object}  dto.RunResponse   "Success"
// @Failure      404  {object}  dto.ErrorResponse "Not Found"
// @Failure      500  {object}  dto.ErrorResponse "Internal Error"
// @Router       /api/v1/runs/{id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("run not found", nil))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch run", err))
		return
	}
	c.JSON(http.StatusOK, dto.NewRunResponse(run))
}

// ListRuns godoc
// @Summary      List generation runs
// @Description  Returns the most recent runs, newest first
// @Tags         runs
// @Produce      json
// @Param        limit  query     int  false  "Maximum runs returned" example(20)
// @Success      200    {object}  dto.RunListResponse "Success"
// @Failure      400    {object}  dto.ErrorResponse   "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("limit must be a non-negative integer", err))
			return
		}
		limit = n
	}

	runs, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to list runs", err))
		return
	}

	resp := dto.RunListResponse{Runs: make([]dto.RunResponse, 0, len(runs))}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, dto.NewRunResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}
