package models

import "strings"

// Status is the expiry tier derived from days-to-expiry
type Status string

const (
	StatusExpired  Status = "EXPIRED"
	StatusCritical Status = "CRITICAL"
	StatusSafe     Status = "SAFE"
)

// CriticalWindowDays is the last day-count still classified as critical
const CriticalWindowDays = 35

// Statuses lists every tier in display order
var Statuses = []Status{StatusExpired, StatusCritical, StatusSafe}

// Label returns the operator-facing label
func (s Status) Label() string {
	switch s {
	case StatusExpired:
		return "Vencido"
	case StatusCritical:
		return "Crítico (<= 35 dias)"
	case StatusSafe:
		return "Seguro (> 35 dias)"
	}
	return string(s)
}

// Badge returns the short uppercase badge shown in tables
func (s Status) Badge() string {
	switch s {
	case StatusExpired:
		return "VENCIDO"
	case StatusCritical:
		return "CRÍTICO"
	case StatusSafe:
		return "SEGURO"
	}
	return string(s)
}

// ParseStatus accepts a tier code or its label, case-insensitively for codes.
// The empty string maps to "" with ok=true (no status filter).
func ParseStatus(raw string) (Status, bool) {
	if raw == "" {
		return "", true
	}
	for _, s := range Statuses {
		if raw == s.Label() || strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// Product is a single inventory record.
// DaysToExpiry and Status are derived from ExpiryDate by the inventory store.
type Product struct {
	ID           string  `json:"id"`
	Barcode      string  `json:"barcode"`
	Batch        *string `json:"batch,omitempty"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	ExpiryDate   string  `json:"expiryDate"` // YYYY-MM-DD
	Observations string  `json:"observations"`

	// Derived
	DaysToExpiry int    `json:"daysToExpiry"`
	Status       Status `json:"status"`
}

// BatchOrEmpty returns the batch or "" when unset
func (p Product) BatchOrEmpty() string {
	if p.Batch == nil {
		return ""
	}
	return *p.Batch
}

// ProductDraft is unvalidated input for create and update.
// On update, nil fields keep their previous value.
type ProductDraft struct {
	Barcode      *string `json:"barcode,omitempty"`
	Batch        *string `json:"batch,omitempty"`
	Name         *string `json:"name,omitempty"`
	Quantity     *int    `json:"quantity,omitempty"`
	ExpiryDate   *string `json:"expiryDate,omitempty"`
	Observations *string `json:"observations,omitempty"`
}

// InventoryStats provides aggregate counts for the dashboard
type InventoryStats struct {
	Total    int `json:"total"`
	Expired  int `json:"expired"`
	Critical int `json:"critical"`
	Safe     int `json:"safe"`
}

// FilterSpec holds the ephemeral query parameters of the product table
type FilterSpec struct {
	Search    string `json:"search"`
	StartDate string `json:"startDate"` // YYYY-MM-DD, inclusive
	EndDate   string `json:"endDate"`   // YYYY-MM-DD, inclusive
	Status    Status `json:"status"`
}

// ActiveCount returns how many advanced filters (dates, status) are set
func (f FilterSpec) ActiveCount() int {
	n := 0
	if f.StartDate != "" {
		n++
	}
	if f.EndDate != "" {
		n++
	}
	if f.Status != "" {
		n++
	}
	return n
}

// IsZero reports whether no filter at all is set
func (f FilterSpec) IsZero() bool {
	return f.Search == "" && f.ActiveCount() == 0
}
