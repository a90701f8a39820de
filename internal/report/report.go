// Package report renders product views as PDF, XLSX and CSV documents and
// parses CSV imports.
package report

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/foxxcyber/pex/internal/expiry"
	"github.com/foxxcyber/pex/internal/models"
)

const (
	Title         = "PEX - RELATÓRIO DE VALIDADE"
	timestampForm = "02/01/2006 15:04:05"
)

// Column headers shared by every export format
var headers = []string{"CÓDIGO", "PRODUTO", "QTD", "VALIDADE", "DIAS", "STATUS"}

var upper = cases.Upper(language.BrazilianPortuguese)

// row is the display form of a product, one string per header
func row(p models.Product) []string {
	return []string{
		p.Barcode,
		upper.String(p.Name),
		strconv.Itoa(p.Quantity),
		expiry.FormatDisplay(p.ExpiryDate),
		strconv.Itoa(p.DaysToExpiry),
		upper.String(p.Status.Label()),
	}
}

func generatedLine(at time.Time) string {
	return "GERADO EM: " + at.Format(timestampForm)
}

func totalLine(n int) string {
	return fmt.Sprintf("Total de itens monitorados: %d", n)
}

// Filename returns the download name for a report in the given format
func Filename(ext string, at time.Time) string {
	return fmt.Sprintf("pex-relatorio-%s.%s", at.Format(expiry.DateLayout), ext)
}
