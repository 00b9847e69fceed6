package models

import "time"

// RunStatus is the lifecycle state of a generation run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run describes one generation run triggered through the API.
//
// Fields:
//   - ID: uuid assigned when the run is accepted.
//   - Mode: output mode used by the run (csv-files, columnar-files, in-memory-channel).
//   - TradeCount, ProductCount, VectorLength: requested quantities.
//   - TradesWritten, RisksWritten, ProductsWritten: records handed to the output.
//   - Error: aggregated failure message, empty on success.
type Run struct {
	ID              string     `json:"id"`
	Status          RunStatus  `json:"status"`
	Mode            string     `json:"mode"`
	TradeCount      int64      `json:"trade_count"`
	ProductCount    int        `json:"product_count"`
	VectorLength    int        `json:"vector_length"`
	ProductsWritten int64      `json:"products_written"`
	TradesWritten   int64      `json:"trades_written"`
	RisksWritten    int64      `json:"risks_written"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Done reports whether the run reached a terminal state.
func (r Run) Done() bool {
	return r.Status == RunSucceeded || r.Status == RunFailed
}
