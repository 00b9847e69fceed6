package output

import (
	"io"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/guttosm/varpulse/internal/domain/models"
)

type productRow struct {
	Id                int32   `parquet:"Id"`
	ProductName       string  `parquet:"ProductName"`
	ProductType       string  `parquet:"ProductType"`
	UnderlierCode     string  `parquet:"UnderlierCode"`
	UnderlierCurrency string  `parquet:"UnderlierCurrency"`
	UnderlierType     string  `parquet:"UnderlierType"`
	UnderlierValue    float64 `parquet:"UnderlierValue"`
	ProductBaseMtm    float64 `parquet:"ProductBaseMtm"`
	BumpedMtmUp       float64 `parquet:"BumpedMtmUp"`
	BumpedMtmDown     float64 `parquet:"BumpedMtmDown"`
	Theta             float64 `parquet:"Theta"`
	Rho               float64 `parquet:"Rho"`
}

type tradeRow struct {
	Id                   int64   `parquet:"Id"`
	ProductId            int32   `parquet:"ProductId"`
	ProductQtyMultiplier float64 `parquet:"ProductQtyMultiplier"`
	Desk                 string  `parquet:"Desk"`
	Book                 int32   `parquet:"Book"`
	Trader               string  `parquet:"Trader"`
	Counterparty         string  `parquet:"Counterparty"`
	// Date is the number of days since 1970-01-01.
	Date        int32  `parquet:"Date"`
	Status      string `parquet:"Status"`
	IsSimulated string `parquet:"IsSimulated"`
}

type riskRow struct {
	TradeId   int64     `parquet:"TradeId"`
	Delta     float64   `parquet:"Delta"`
	Gamma     float64   `parquet:"Gamma"`
	Vega      float64   `parquet:"Vega"`
	Pnl       float64   `parquet:"Pnl"`
	PnlVector []float64 `parquet:"PnlVector,list"`
}

// ParquetFormat writes one Parquet file per buffer with a codec per entity.
type ParquetFormat struct {
	ProductCodec compress.Codec
	TradeCodec   compress.Codec
	RiskCodec    compress.Codec
}

// NewParquetFormat leaves products uncompressed and snappy-compresses trades and risks.
func NewParquetFormat() ParquetFormat {
	return ParquetFormat{
		ProductCodec: &parquet.Uncompressed,
		TradeCodec:   &parquet.Snappy,
		RiskCodec:    &parquet.Snappy,
	}
}

func (ParquetFormat) Extension() string { return "parquet" }

func (f ParquetFormat) WriteProducts(w io.Writer, recs []models.Product) error {
	rows := make([]productRow, len(recs))
	for i, p := range recs {
		rows[i] = productRow{
			Id:                p.Id,
			ProductName:       p.ProductName,
			ProductType:       p.ProductType,
			UnderlierCode:     p.UnderlierCode,
			UnderlierCurrency: p.UnderlierCurrency,
			UnderlierType:     p.UnderlierType,
			UnderlierValue:    p.UnderlierValue,
			ProductBaseMtm:    p.ProductBaseMtm,
			BumpedMtmUp:       p.BumpedMtmUp,
			BumpedMtmDown:     p.BumpedMtmDown,
			Theta:             p.Theta,
			Rho:               p.Rho,
		}
	}
	return writeParquet(w, rows, f.ProductCodec)
}

func (f ParquetFormat) WriteTrades(w io.Writer, recs []models.Trade) error {
	rows := make([]tradeRow, len(recs))
	for i, t := range recs {
		rows[i] = tradeRow{
			Id:                   t.Id,
			ProductId:            t.ProductId,
			ProductQtyMultiplier: t.ProductQtyMultiplier,
			Desk:                 t.Desk,
			Book:                 t.Book,
			Trader:               t.Trader,
			Counterparty:         t.Counterparty,
			Date:                 models.EncodeDate(t.Date),
			Status:               t.Status,
			IsSimulated:          t.IsSimulated,
		}
	}
	return writeParquet(w, rows, f.TradeCodec)
}

func (f ParquetFormat) WriteRisks(w io.Writer, recs []models.Risk) error {
	rows := make([]riskRow, len(recs))
	for i, r := range recs {
		rows[i] = riskRow{
			TradeId:   r.TradeId,
			Delta:     r.Delta,
			Gamma:     r.Gamma,
			Vega:      r.Vega,
			Pnl:       r.Pnl,
			PnlVector: r.PnlVector,
		}
	}
	return writeParquet(w, rows, f.RiskCodec)
}

func writeParquet[T any](w io.Writer, rows []T, codec compress.Codec) error {
	var opts []parquet.WriterOption
	if codec != nil {
		opts = append(opts, parquet.Compression(codec))
	}
	pw := parquet.NewGenericWriter[T](w, opts...)
	if _, err := pw.Write(rows); err != nil {
		_ = pw.Close()
		return err
	}
	return pw.Close()
}
