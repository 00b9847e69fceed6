package generator

import (
	"math/rand/v2"

	"github.com/guttosm/varpulse/internal/domain/models"
)

const (
	// DefaultVectorLength is the PnL vector size when none is configured.
	DefaultVectorLength = 260

	bumpSize     = 0.5 // (+25%) - (-25%)
	shiftOperand = 1.1
)

// bumpFactors perturb the product bumped MtMs.
var bumpFactors = [...]float64{0.5, 0.2, 0.3, 0.6}

// RiskCalculator computes the risk measures of a trade on its product.
type RiskCalculator struct {
	vectorLength int
}

// NewRiskCalculator returns a calculator producing PnL vectors of the given length.
func NewRiskCalculator(vectorLength int) *RiskCalculator {
	if vectorLength < 0 {
		vectorLength = 0
	}
	return &RiskCalculator{vectorLength: vectorLength}
}

// VectorLength returns the length of every PnL vector produced.
func (c *RiskCalculator) VectorLength() int {
	return c.vectorLength
}

// Execute computes the risk entry of trade on product using rng for every draw.
//
// The measures do not model a real pricer: gamma and vega are random fractions
// of delta, and the PnL vector is gaussian noise around the pnl.
func (c *RiskCalculator) Execute(trade models.Trade, product models.Product, rng *rand.Rand) models.Risk {
	underlier := product.UnderlierValue
	rateChange := (underlier*shiftOperand - underlier) / underlier

	baseUp := product.BumpedMtmUp
	baseDown := product.BumpedMtmDown
	bumpedUp := Round(baseUp+baseUp*bumpFactors[rng.IntN(len(bumpFactors))], 2)
	bumpedDown := Round(baseDown+baseDown*bumpFactors[rng.IntN(len(bumpFactors))], 2)

	delta := trade.ProductQtyMultiplier * ((bumpedUp - bumpedDown) / bumpSize)
	pnlDelta := rateChange * delta

	gamma := delta * uniform(-0.1, 0.1, rng)
	vega := delta * uniform(-1, 1, rng)
	pnlVega := vega * 0.01
	pnl := pnlVega + pnlDelta

	vector := make([]float64, c.vectorLength)
	for i := range vector {
		vector[i] = 0.2 * pnl * rng.NormFloat64()
	}

	return models.Risk{
		TradeId:   trade.Id,
		Delta:     delta,
		Gamma:     gamma,
		Vega:      vega,
		Pnl:       pnl,
		PnlVector: vector,
	}
}
