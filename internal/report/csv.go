package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"github.com/spf13/cast"

	"github.com/foxxcyber/pex/internal/expiry"
	"github.com/foxxcyber/pex/internal/models"
)

// CSVRow is the column layout shared by CSV export and import.
// Dias and Status are ignored on import; they are always derived.
type CSVRow struct {
	Codigo      string `csv:"codigo"`
	Lote        string `csv:"lote"`
	Produto     string `csv:"produto"`
	Quantidade  string `csv:"quantidade"`
	Validade    string `csv:"validade"`
	Dias        string `csv:"dias"`
	Status      string `csv:"status"`
	Observacoes string `csv:"observacoes"`
}

// WriteCSV writes products with ISO expiry dates so the file can be re-imported
func WriteCSV(w io.Writer, products []models.Product) error {
	rows := make([]*CSVRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, &CSVRow{
			Codigo:      p.Barcode,
			Lote:        p.BatchOrEmpty(),
			Produto:     p.Name,
			Quantidade:  cast.ToString(p.Quantity),
			Validade:    p.ExpiryDate,
			Dias:        cast.ToString(p.DaysToExpiry),
			Status:      p.Status.Label(),
			Observacoes: p.Observations,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ImportRow is one parsed CSV line. Line counts the header as line 1.
type ImportRow struct {
	Line  int
	Draft models.ProductDraft
	Err   error
}

var (
	ErrEmptyImport     = errors.New("csv has no rows")
	ErrMalformedImport = errors.New("csv could not be parsed")
)

// ParseCSV reads an import file. Rows that cannot be turned into a draft
// carry Err and are otherwise left for the caller to report.
func ParseCSV(r io.Reader) ([]ImportRow, error) {
	var rows []*CSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, ErrEmptyImport
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	out := make([]ImportRow, 0, len(rows))
	for i, row := range rows {
		draft, err := row.draft()
		out = append(out, ImportRow{Line: i + 2, Draft: draft, Err: err})
	}
	return out, nil
}

func (r *CSVRow) draft() (models.ProductDraft, error) {
	date, err := ParseLenientDate(r.Validade)
	if err != nil {
		return models.ProductDraft{}, err
	}

	// Non-numeric quantities count as zero
	qty := cast.ToInt(strings.TrimSpace(r.Quantidade))
	if qty < 0 {
		return models.ProductDraft{}, fmt.Errorf("negative quantity %q", r.Quantidade)
	}

	name := strings.TrimSpace(r.Produto)
	barcode := strings.TrimSpace(r.Codigo)
	batch := strings.TrimSpace(r.Lote)
	obs := strings.TrimSpace(r.Observacoes)

	return models.ProductDraft{
		Barcode:      &barcode,
		Batch:        &batch,
		Name:         &name,
		Quantity:     &qty,
		ExpiryDate:   &date,
		Observations: &obs,
	}, nil
}

// brLayouts are tried before dateparse, which reads ambiguous slashes as month first
var brLayouts = []string{"02/01/2006", "02/01/06", "02-01-2006", "02.01.2006"}

// ParseLenientDate accepts ISO dates, Brazilian dd/mm/yyyy and anything
// dateparse understands, returning YYYY-MM-DD
func ParseLenientDate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", expiry.ErrInvalidDate)
	}
	if date, err := expiry.Normalize(s); err == nil {
		return date, nil
	}
	for _, layout := range brLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(expiry.DateLayout), nil
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", expiry.ErrInvalidDate, s)
	}
	return t.Format(expiry.DateLayout), nil
}
