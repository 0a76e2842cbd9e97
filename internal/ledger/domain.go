// Package ledger exposes read-only access to posted accounting data:
// invoice/bill lines carrying an analytic distribution, internal analytic
// entries (timesheets, manual costs), worker rates, and sales orders.
// The ledger itself is owned by the host accounting system; this package
// never writes to it.
package ledger

import (
	"encoding/json"
	"math"
)

// MoveType identifies the document kind a ledger line belongs to.
type MoveType string

const (
	MoveCustomerInvoice    MoveType = "customer_invoice"
	MoveCustomerCreditNote MoveType = "customer_credit_note"
	MoveVendorBill         MoveType = "vendor_bill"
	MoveVendorRefund       MoveType = "vendor_refund"
	MoveJournalEntry       MoveType = "journal_entry"
)

// CustomerMoveTypes returns the move types scanned by the revenue side.
func CustomerMoveTypes() []MoveType {
	return []MoveType{MoveCustomerInvoice, MoveCustomerCreditNote}
}

// VendorMoveTypes returns the move types scanned by the cost side.
func VendorMoveTypes() []MoveType {
	return []MoveType{MoveVendorBill, MoveVendorRefund}
}

// InvoiceLikeMoveTypes covers every document kind already claimed by the
// revenue or vendor aggregation, used by the other-cost exclusion rules.
func InvoiceLikeMoveTypes() []MoveType {
	return []MoveType{MoveCustomerInvoice, MoveCustomerCreditNote, MoveVendorBill, MoveVendorRefund}
}

// Reversal reports whether the move type negates its primary counterpart.
func (m MoveType) Reversal() bool {
	return m == MoveCustomerCreditNote || m == MoveVendorRefund
}

// Display types for presentation-only lines excluded from aggregation.
const (
	DisplaySection = "section"
	DisplayNote    = "note"
)

// Line is a single posted invoice or bill line together with the parent
// document figures needed for paid-proportion and reversal handling.
type Line struct {
	ID          int64
	DocumentID  int64
	DocumentRef string
	MoveType    MoveType
	DisplayType string

	// AmountNet is the pre-tax line amount, AmountGross includes tax.
	AmountNet   float64
	AmountGross float64

	// Distribution is the raw percentage-keyed allocation map as stored
	// on the line. May be malformed; parsing is the caller's concern.
	Distribution json.RawMessage

	// Parent document totals used to derive the paid proportion.
	DocumentTotal    float64
	DocumentResidual float64

	// ReversedDocID points at the document this line's parent reverses.
	// Lines of reversing documents are excluded from aggregation.
	ReversedDocID *int64
}

// Reversed reports whether the parent document carries a reversal link.
func (l Line) Reversed() bool {
	return l.ReversedDocID != nil
}

// PaidRatio returns the fraction of the parent document already settled.
// A zero document total yields 0, never a division fault.
func (l Line) PaidRatio() float64 {
	if math.Abs(l.DocumentTotal) == 0 {
		return 0
	}
	return (l.DocumentTotal - l.DocumentResidual) / l.DocumentTotal
}

// Entry is an internal analytic entry attributed to a dimension: a
// timesheet line, a cost allocation mirrored from an accounting move, or
// a manual ad-hoc booking without any accounting move behind it.
type Entry struct {
	ID          int64
	DimensionID int64

	// Amount is signed: costs are negative. UnitAmount carries hours for
	// timesheet entries.
	Amount     float64
	UnitAmount float64

	IsTimesheet bool
	WorkerID    *int64

	// AccountCode is the code of the underlying posted account, empty
	// for manual entries without a move line.
	AccountCode string

	// MoveType of the originating document, empty when HasMoveLine is
	// false.
	MoveType      MoveType
	HasMoveLine   bool
	ReversedDocID *int64
}

// Reversed reports whether the originating document was reversed.
func (e Entry) Reversed() bool {
	return e.ReversedDocID != nil
}

// Sales order states counting toward the project budget baseline.
const (
	OrderConfirmed = "confirmed"
	OrderDone      = "done"
)

// SalesOrder is a confirmed order linked to a project.
type SalesOrder struct {
	ID        int64
	ProjectID int64
	State     string
	AmountNet float64
	TaxNames  []string
}
