package projectfin

import (
	"math"

	"github.com/nordlicht-erp/nordlicht/internal/ledger"
)

// FilterOtherCosts sums the internal cost entries not already claimed by
// the revenue, vendor, discount, or labor aggregations. The filter is
// exclusion-based: a negative non-timesheet entry is included unless it
//
//	(a) originates from an invoice/credit-note/bill/refund move,
//	(b) originates from a generic journal entry (deferral postings would
//	    otherwise be counted once per period),
//	(c) belongs to a reversed document, or
//	(d) is posted to a cash-discount account.
//
// Manual allocations without a move line always survive the filter.
func FilterOtherCosts(entries []ledger.Entry, codes SkontoCodes) float64 {
	var total float64
	for _, entry := range entries {
		if entry.IsTimesheet || entry.Amount >= 0 {
			continue
		}
		if excludeFromOtherCosts(entry, codes) {
			continue
		}
		total += math.Abs(entry.Amount)
	}
	return total
}

func excludeFromOtherCosts(entry ledger.Entry, codes SkontoCodes) bool {
	if entry.HasMoveLine {
		switch entry.MoveType {
		case ledger.MoveCustomerInvoice, ledger.MoveCustomerCreditNote,
			ledger.MoveVendorBill, ledger.MoveVendorRefund:
			return true
		case ledger.MoveJournalEntry:
			return true
		}
		if entry.Reversed() {
			return true
		}
	}
	return codes.Classify(entry.AccountCode) != SkontoNone
}
