package models

import "time"

// Trade is one generated position on a product.
//
// Column order (CSV and Parquet):
//  1. Id
//  2. ProductId
//  3. ProductQtyMultiplier
//  4. Desk
//  5. Book
//  6. Trader
//  7. Counterparty
//  8. Date
//  9. Status
//  10. IsSimulated
//
// Id is global to the run and dense in [0, tradeCount); ProductId always points
// into the product table of the same run.
type Trade struct {
	Id                   int64     `json:"id"`
	ProductId            int32     `json:"product_id"`
	ProductQtyMultiplier float64   `json:"product_qty_multiplier"`
	Desk                 string    `json:"desk"`
	Book                 int32     `json:"book"`
	Trader               string    `json:"trader"`
	Counterparty         string    `json:"counterparty"`
	Date                 time.Time `json:"date"`
	Status               string    `json:"status"`
	IsSimulated          string    `json:"is_simulated"`
}

// TradeFields is the fixed header order for trade rows.
var TradeFields = []string{
	"Id",
	"ProductId",
	"ProductQtyMultiplier",
	"Desk",
	"Book",
	"Trader",
	"Counterparty",
	"Date",
	"Status",
	"IsSimulated",
}

// DateLayout is the textual form of Trade.Date.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// EncodeDate returns the number of days between 1970-01-01 and the calendar
// date of d. The clock part and location of d are ignored.
func EncodeDate(d time.Time) int32 {
	y, m, day := d.Date()
	return int32(time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// DecodeDate is the inverse of EncodeDate; the result is midnight UTC.
func DecodeDate(days int32) time.Time {
	return epoch.AddDate(0, 0, int(days))
}
