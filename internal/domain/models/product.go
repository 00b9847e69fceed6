package models

// Product is one reference instrument of the generated dataset.
//
// Products are built once per run by the product repository and never mutated
// afterwards; trades reference them by Id.
//
// Column order (CSV and Parquet):
//  1. Id
//  2. ProductName
//  3. ProductType
//  4. UnderlierCode
//  5. UnderlierCurrency
//  6. UnderlierType
//  7. UnderlierValue
//  8. ProductBaseMtm
//  9. BumpedMtmUp
//  10. BumpedMtmDown
//  11. Theta
//  12. Rho
type Product struct {
	Id                int32   `json:"id"`
	ProductName       string  `json:"product_name"`
	ProductType       string  `json:"product_type"`
	UnderlierCode     string  `json:"underlier_code"`
	UnderlierCurrency string  `json:"underlier_currency"`
	UnderlierType     string  `json:"underlier_type"`
	UnderlierValue    float64 `json:"underlier_value"`
	ProductBaseMtm    float64 `json:"product_base_mtm"`
	BumpedMtmUp       float64 `json:"bumped_mtm_up"`
	BumpedMtmDown     float64 `json:"bumped_mtm_down"`
	Theta             float64 `json:"theta"`
	Rho               float64 `json:"rho"`
}

// ProductFields is the fixed header order for product rows.
var ProductFields = []string{
	"Id",
	"ProductName",
	"ProductType",
	"UnderlierCode",
	"UnderlierCurrency",
	"UnderlierType",
	"UnderlierValue",
	"ProductBaseMtm",
	"BumpedMtmUp",
	"BumpedMtmDown",
	"Theta",
	"Rho",
}
