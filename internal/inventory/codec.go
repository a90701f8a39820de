package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/foxxcyber/pex/internal/expiry"
	"github.com/foxxcyber/pex/internal/models"
)

func encodeProducts(products []models.Product) ([]byte, error) {
	if products == nil {
		products = []models.Product{}
	}
	return json.Marshal(products)
}

// decodeProducts parses a stored collection. Empty input is an empty
// collection. Records without an id, a name or a valid expiry date are
// skipped and counted; anything that is not a JSON array of products is
// ErrPersistenceCorrupt.
func decodeProducts(raw []byte) ([]models.Product, int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Product{}, 0, nil
	}

	var stored []models.Product
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistenceCorrupt, err)
	}

	products := make([]models.Product, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	dropped := 0
	for _, p := range stored {
		if p.ID == "" || strings.TrimSpace(p.Name) == "" || p.Quantity < 0 {
			dropped++
			continue
		}
		if _, dup := seen[p.ID]; dup {
			dropped++
			continue
		}
		date, err := expiry.Normalize(p.ExpiryDate)
		if err != nil {
			dropped++
			continue
		}
		p.ExpiryDate = date
		if p.Batch != nil && *p.Batch == "" {
			p.Batch = nil
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}
	return products, dropped, nil
}
