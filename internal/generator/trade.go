package generator

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/guttosm/varpulse/internal/domain/models"
)

const (
	// DefaultDateSpan is the number of business dates trades are spread over.
	DefaultDateSpan = 20
	bookCount       = 10
)

var (
	desks    = []string{"DeskA", "DeskB", "DeskC", "DeskD"}
	traders  = []string{"TraderA", "TraderB", "TraderC", "TraderD", "TraderE", "TraderF"}
	statuses = []string{"DONE", "MATCHED", "NEW", "CONFIRMED"}
)

// TradeGenerator builds trades from their index and referenced entities.
// Everything except ProductQtyMultiplier is a function of the index, so two
// runs produce the same trade skeletons.
type TradeGenerator struct {
	asOf     time.Time
	dateSpan int
}

// NewTradeGenerator returns a generator dating trades back from asOf.
func NewTradeGenerator(asOf time.Time, dateSpan int) *TradeGenerator {
	if dateSpan <= 0 {
		dateSpan = DefaultDateSpan
	}
	y, m, d := asOf.Date()
	return &TradeGenerator{
		asOf:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		dateSpan: dateSpan,
	}
}

// Generate returns trade number index. The caller passes the product at
// index % productCount and the counterparty at index % counterpartyCount.
func (g *TradeGenerator) Generate(index int64, product models.Product, cpty models.CounterParty, rng *rand.Rand) models.Trade {
	simulated := "LIVE"
	if index%10 == 9 {
		simulated = "SIMULATION"
	}
	return models.Trade{
		Id:                   index,
		ProductId:            product.Id,
		ProductQtyMultiplier: Round(uniform(1, 100, rng), 2),
		Desk:                 desks[index%int64(len(desks))],
		Book:                 int32(index % bookCount),
		Trader:               fmt.Sprintf("%s%d", traders[index%int64(len(traders))], index%3),
		Counterparty:         cpty.Name,
		Date:                 g.asOf.AddDate(0, 0, -int(index%int64(g.dateSpan))),
		Status:               statuses[index%int64(len(statuses))],
		IsSimulated:          simulated,
	}
}
