package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// DefaultCounterpartyCount is the size of the counterparty table when none is configured.
const DefaultCounterpartyCount = 50

var (
	currencies     = []string{"EUR", "USD", "GBP", "JPY", "CHF"}
	productTypes   = []string{"BARRIER OPTION", "EUROPEAN OPTION", "SWAP", "FORWARD", "FUTURE"}
	underlierTypes = []string{"EQUITY", "INDEX", "FX", "RATE", "COMMODITY"}
	underliers     = []string{"AAPL", "MSFT", "SX5E", "SPX", "EURUSD", "USDJPY", "BRENT", "GOLD", "EURIBOR3M", "SOFR"}

	cptyGroups    = []string{"Banks", "Insurers", "Hedge Funds", "Corporates", "Sovereigns"}
	cptySectors   = []string{"Financials", "Energy", "Industrials", "Utilities", "Public Sector"}
	cptyCountries = []string{"FR", "DE", "GB", "US", "JP", "CH", "BR"}
	cptyRatings   = []string{"AAA", "AA", "A", "BBB", "BB"}
)

// ProductRepository is a fixed, densely indexed table of products.
type ProductRepository struct {
	products []models.Product
}

// NewProductRepository generates n products. n <= 0 yields an empty table.
func NewProductRepository(n int) *ProductRepository {
	return newProductRepository(n, newRand())
}

func newProductRepository(n int, rng *rand.Rand) *ProductRepository {
	if n <= 0 {
		return &ProductRepository{}
	}
	products := make([]models.Product, n)
	for i := range products {
		products[i] = newProduct(int32(i), rng)
	}
	return &ProductRepository{products: products}
}

// newProduct builds one product. The bumped MtMs are the PV after a +25% and a
// -25% bump; theta and rho follow pv*3/365 and -pv/150.
func newProduct(id int32, rng *rand.Rand) models.Product {
	underlier := underliers[int(id)%len(underliers)]
	pv := Round(uniform(-5000, 5000, rng), 2)
	return models.Product{
		Id:                id,
		ProductName:       fmt.Sprintf("%s-%s-%d", productTypes[int(id)%len(productTypes)], underlier, id),
		ProductType:       productTypes[int(id)%len(productTypes)],
		UnderlierCode:     underlier,
		UnderlierCurrency: currencies[rng.IntN(len(currencies))],
		UnderlierType:     underlierTypes[int(id)%len(underlierTypes)],
		UnderlierValue:    Round(uniform(10, 500, rng), 2),
		ProductBaseMtm:    pv,
		BumpedMtmUp:       Round(pv*1.25, 2),
		BumpedMtmDown:     Round(pv*0.75, 2),
		Theta:             Round(pv*3/365, 2),
		Rho:               Round(-pv/150, 2),
	}
}

// Count returns the number of products in the table.
func (r *ProductRepository) Count() int {
	return len(r.products)
}

// Product returns the product with the given dense index.
func (r *ProductRepository) Product(i int) models.Product {
	return r.products[i]
}

// Products returns the whole table. Callers must not modify it.
func (r *ProductRepository) Products() []models.Product {
	return r.products
}

// CounterpartyRepository is a fixed, densely indexed table of counterparties.
type CounterpartyRepository struct {
	counterparties []models.CounterParty
}

// NewCounterpartyRepository generates n counterparties. n <= 0 yields an empty table.
func NewCounterpartyRepository(n int) *CounterpartyRepository {
	if n <= 0 {
		return &CounterpartyRepository{}
	}
	cps := make([]models.CounterParty, n)
	for i := range cps {
		cps[i] = models.CounterParty{
			Id:      int32(i),
			Name:    fmt.Sprintf("CPTY_%03d", i),
			Group:   cptyGroups[i%len(cptyGroups)],
			Sector:  cptySectors[(i/len(cptyGroups))%len(cptySectors)],
			Country: cptyCountries[i%len(cptyCountries)],
			Rating:  cptyRatings[(i*7)%len(cptyRatings)],
		}
	}
	return &CounterpartyRepository{counterparties: cps}
}

// Count returns the number of counterparties in the table.
func (r *CounterpartyRepository) Count() int {
	return len(r.counterparties)
}

// CounterParty returns the counterparty with the given dense index.
func (r *CounterpartyRepository) CounterParty(i int) models.CounterParty {
	return r.counterparties[i]
}
