package dto

import (
	"time"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// RunRequest is the body of POST /api/v1/runs. Omitted fields take the
// server's configured defaults.
type RunRequest struct {
	TradeCount   int64  `json:"trade_count" example:"100000"`  // Number of trades (and risks) to generate
	ProductCount int    `json:"product_count" example:"100"`   // Size of the product table
	VectorLength int    `json:"vector_length" example:"260"`   // Length of each risk PnL vector
	Mode         string `json:"mode" example:"columnar-files"` // in-memory-channel, csv-files or columnar-files
}

// RunResponse represents one generation run in API responses.
type RunResponse struct {
	ID              string     `json:"id" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	Status          string     `json:"status" example:"running"`
	Mode            string     `json:"mode" example:"columnar-files"`
	TradeCount      int64      `json:"trade_count" example:"100000"`
	ProductCount    int        `json:"product_count" example:"100"`
	VectorLength    int        `json:"vector_length" example:"260"`
	ProductsWritten int64      `json:"products_written"`
	TradesWritten   int64      `json:"trades_written"`
	RisksWritten    int64      `json:"risks_written"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// NewRunResponse maps a run record to its API representation.
func NewRunResponse(r models.Run) RunResponse {
	return RunResponse{
		ID:              r.ID,
		Status:          string(r.Status),
		Mode:            r.Mode,
		TradeCount:      r.TradeCount,
		ProductCount:    r.ProductCount,
		VectorLength:    r.VectorLength,
		ProductsWritten: r.ProductsWritten,
		TradesWritten:   r.TradesWritten,
		RisksWritten:    r.RisksWritten,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Error:           r.Error,
	}
}

// RunListResponse is returned by GET /api/v1/runs.
type RunListResponse struct {
	Runs []RunResponse `json:"runs"`
}
