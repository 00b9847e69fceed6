package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/guttosm/varpulse/internal/domain/models"
)

const (
	DefaultSeparator       = '|'
	DefaultVectorSeparator = ';'
)

// CSVFormat writes a header line and one line per record.
type CSVFormat struct {
	Separator       rune
	VectorSeparator rune
}

// NewCSVFormat returns a CSVFormat; a zero separator falls back to its default.
func NewCSVFormat(separator, vectorSeparator rune) CSVFormat {
	if separator == 0 {
		separator = DefaultSeparator
	}
	if vectorSeparator == 0 {
		vectorSeparator = DefaultVectorSeparator
	}
	return CSVFormat{Separator: separator, VectorSeparator: vectorSeparator}
}

// Extension implements Format.
func (CSVFormat) Extension() string { return "csv" }

// WriteProducts writes the header and one row per product.
func (f CSVFormat) WriteProducts(w io.Writer, recs []models.Product) error {
	return writeCSV(f.newWriter(w), models.ProductFields, recs, func(p models.Product, row []string) {
		row[0] = strconv.FormatInt(int64(p.Id), 10)
		row[1] = p.ProductName
		row[2] = p.ProductType
		row[3] = p.UnderlierCode
		row[4] = p.UnderlierCurrency
		row[5] = p.UnderlierType
		row[6] = formatFloat(p.UnderlierValue)
		row[7] = formatFloat(p.ProductBaseMtm)
		row[8] = formatFloat(p.BumpedMtmUp)
		row[9] = formatFloat(p.BumpedMtmDown)
		row[10] = formatFloat(p.Theta)
		row[11] = formatFloat(p.Rho)
	})
}

// WriteTrades writes the header and one row per trade, dates as yyyy-MM-dd.
func (f CSVFormat) WriteTrades(w io.Writer, recs []models.Trade) error {
	return writeCSV(f.newWriter(w), models.TradeFields, recs, func(t models.Trade, row []string) {
		row[0] = strconv.FormatInt(t.Id, 10)
		row[1] = strconv.FormatInt(int64(t.ProductId), 10)
		row[2] = formatFloat(t.ProductQtyMultiplier)
		row[3] = t.Desk
		row[4] = strconv.FormatInt(int64(t.Book), 10)
		row[5] = t.Trader
		row[6] = t.Counterparty
		row[7] = t.Date.Format(models.DateLayout)
		row[8] = t.Status
		row[9] = t.IsSimulated
	})
}

// WriteRisks writes the header and one row per risk, joining the PnL vector
// with VectorSeparator.
func (f CSVFormat) WriteRisks(w io.Writer, recs []models.Risk) error {
	var sb strings.Builder
	return writeCSV(f.newWriter(w), models.RiskFields, recs, func(r models.Risk, row []string) {
		row[0] = strconv.FormatInt(r.TradeId, 10)
		row[1] = formatFloat(r.Delta)
		row[2] = formatFloat(r.Gamma)
		row[3] = formatFloat(r.Vega)
		row[4] = formatFloat(r.Pnl)
		row[5] = f.joinVector(&sb, r.PnlVector)
	})
}

func (f CSVFormat) newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = f.Separator
	return cw
}

// joinVector renders v with the vector separator; nil or empty is "".
func (f CSVFormat) joinVector(sb *strings.Builder, v []float64) string {
	if len(v) == 0 {
		return ""
	}
	sb.Reset()
	for i, x := range v {
		if i > 0 {
			sb.WriteRune(f.VectorSeparator)
		}
		sb.WriteString(formatFloat(x))
	}
	return sb.String()
}

func writeCSV[T any](cw *csv.Writer, header []string, recs []T, fill func(T, []string)) error {
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for _, rec := range recs {
		fill(rec, row)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
