package inventory

import (
	"sort"
	"strings"

	"github.com/foxxcyber/pex/internal/models"
)

// Filter returns the products matching every set criterion of spec, sorted
// by days-to-expiry ascending (most urgent first). Equal day-counts keep
// their collection order. The input slice is never modified.
func Filter(products []models.Product, spec models.FilterSpec) []models.Product {
	search := strings.ToLower(spec.Search)

	result := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !matches(p, spec, search) {
			continue
		}
		result = append(result, p)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DaysToExpiry < result[j].DaysToExpiry
	})
	return result
}

func matches(p models.Product, spec models.FilterSpec, lowerSearch string) bool {
	if lowerSearch != "" &&
		!strings.Contains(strings.ToLower(p.Name), lowerSearch) &&
		!strings.Contains(p.Barcode, spec.Search) {
		return false
	}

	// Fixed-width YYYY-MM-DD strings compare in calendar order
	if spec.StartDate != "" && p.ExpiryDate < spec.StartDate {
		return false
	}
	if spec.EndDate != "" && p.ExpiryDate > spec.EndDate {
		return false
	}

	if spec.Status != "" && p.Status != spec.Status {
		return false
	}
	return true
}

// ComputeStats counts the full collection per status tier
func ComputeStats(products []models.Product) models.InventoryStats {
	stats := models.InventoryStats{Total: len(products)}
	for _, p := range products {
		switch p.Status {
		case models.StatusExpired:
			stats.Expired++
		case models.StatusCritical:
			stats.Critical++
		case models.StatusSafe:
			stats.Safe++
		}
	}
	return stats
}

// IDs collects the ids of products, in order
func IDs(products []models.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}
