package projectfin

import (
	"math"
	"strings"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
)

// SkontoCodes is the account-code prefix set marking cash-discount
// postings. The defaults follow the German SKR03/SKR04 numbering but the
// set is configuration data, not logic.
type SkontoCodes struct {
	// Customer prefixes mark discounts granted to customers (expense
	// accounts plus the clearing liability account).
	Customer []string
	// Vendor prefixes mark discounts received from vendors (income
	// accounts plus the clearing asset account).
	Vendor []string
}

// DefaultSkontoCodes returns the SKR03/SKR04 prefix sets.
func DefaultSkontoCodes() SkontoCodes {
	return SkontoCodes{
		Customer: []string{"7300", "7301", "7302", "7303", "2130"},
		Vendor:   []string{"4730", "4731", "4732", "4733", "2670"},
	}
}

// SkontoClass labels which discount bucket an account code falls into.
type SkontoClass int

const (
	SkontoNone SkontoClass = iota
	SkontoCustomer
	SkontoVendor
)

// Classify matches an account code against the prefix sets.
func (c SkontoCodes) Classify(accountCode string) SkontoClass {
	if accountCode == "" {
		return SkontoNone
	}
	for _, prefix := range c.Customer {
		if strings.HasPrefix(accountCode, prefix) {
			return SkontoCustomer
		}
	}
	for _, prefix := range c.Vendor {
		if strings.HasPrefix(accountCode, prefix) {
			return SkontoVendor
		}
	}
	return SkontoNone
}

// SkontoTotals carries the extracted cash-discount amounts.
type SkontoTotals struct {
	Customer float64
	Vendor   float64
}

// ExtractSkonto scans internal analytic entries and accumulates
// abs(amount) into the matching discount bucket. Entries outside both
// prefix sets are left for the other-cost filter.
func ExtractSkonto(entries []ledger.Entry, codes SkontoCodes) SkontoTotals {
	var totals SkontoTotals
	for _, entry := range entries {
		switch codes.Classify(entry.AccountCode) {
		case SkontoCustomer:
			totals.Customer += math.Abs(entry.Amount)
		case SkontoVendor:
			totals.Vendor += math.Abs(entry.Amount)
		}
	}
	return totals
}
