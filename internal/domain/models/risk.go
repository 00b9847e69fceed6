package models

// Risk holds the measures computed for exactly one trade.
//
// Column order (CSV and Parquet):
//  1. TradeId
//  2. Delta
//  3. Gamma
//  4. Vega
//  5. Pnl
//  6. PnlVector
//
// PnlVector has the same length for every risk of a run.
type Risk struct {
	TradeId   int64     `json:"trade_id"`
	Delta     float64   `json:"delta"`
	Gamma     float64   `json:"gamma"`
	Vega      float64   `json:"vega"`
	Pnl       float64   `json:"pnl"`
	PnlVector []float64 `json:"pnl_vector"`
}

// RiskFields is the fixed header order for risk rows.
var RiskFields = []string{
	"TradeId",
	"Delta",
	"Gamma",
	"Vega",
	"Pnl",
	"PnlVector",
}
