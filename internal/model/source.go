package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind distinguishes receivable from payable source entries.
type SourceKind string

const (
	SourceAR SourceKind = "AR"
	SourceAP SourceKind = "AP"
)

// StatusPaid is the source status that closes an entry.
const StatusPaid = "paid"

// SourceEntry is a row in ar_entries.csv or ap_entries.csv.
type SourceEntry struct {
	Kind           SourceKind
	Row            int
	EntryID        string          `col:"EntryID" validate:"required"`
	CounterpartyID string          `col:"CounterpartyID" validate:"required"`
	InvoiceNo      string          `col:"InvoiceNo"`
	InvoiceDate    time.Time       `col:"InvoiceDate" validate:"required"`
	DueDate        time.Time       `col:"DueDate" validate:"required,gtefield=InvoiceDate"`
	AccountID      int             `col:"AccountID" validate:"gte=0"`
	Amount         decimal.Decimal `col:"Amount" validate:"gte=0"`
	Tax            decimal.Decimal `col:"Tax" validate:"gte=0"`
	PaidAmount     decimal.Decimal `col:"PaidAmount" validate:"gte=0"`
	PaymentDate    time.Time       `col:"PaymentDate"` // zero when unpaid
	Status         string          `col:"Status"`
	Memo           string          `col:"Memo"`
}

// Total returns the invoice amount including tax.
func (e SourceEntry) Total() decimal.Decimal {
	return e.Amount.Add(e.Tax)
}

// IsPaid reports whether the status column marks the entry as paid.
func (e SourceEntry) IsPaid() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), StatusPaid)
}

// PaidAsOf returns the settled amount as seen on asOf. Payments dated
// after asOf have not happened yet.
func (e SourceEntry) PaidAsOf(asOf time.Time) decimal.Decimal {
	if e.PaidAmount.IsZero() || e.PaymentDate.After(asOf) {
		return decimal.Zero
	}
	return e.PaidAmount
}

// OpenAsOf returns the outstanding balance on asOf and whether the entry
// counts as open at that date.
func (e SourceEntry) OpenAsOf(asOf time.Time) (decimal.Decimal, bool) {
	if e.InvoiceDate.After(asOf) {
		return decimal.Zero, false
	}
	paid := e.PaidAsOf(asOf)
	if e.IsPaid() && paid.Equal(e.PaidAmount) {
		return decimal.Zero, false
	}
	open := e.Total().Sub(paid)
	if !open.IsPositive() {
		return decimal.Zero, false
	}
	return open, true
}

// Direction is the cash movement of a cashbook row.
type Direction string

const (
	DirectionReceipt Direction = "receipt"
	DirectionPayment Direction = "payment"
)

// CashbookEntry is a row in cashbook.csv.
type CashbookEntry struct {
	Row            int
	Date           time.Time       `col:"Date" validate:"required"`
	AccountID      int             `col:"AccountID" validate:"gt=0"`
	CounterpartyID string          `col:"Counterparty"`
	Description    string          `col:"Description"`
	Amount         decimal.Decimal `col:"Amount" validate:"gt=0"`
	Direction      Direction       `col:"Type" validate:"oneof=receipt payment"`
	LinkedEntryID  string          `col:"LinkEntryID"` // weak reference to an AR/AP EntryID
}

// AdjustmentLine is a row in journal_adjustments.csv. Lines sharing an
// EntryID form one manual journal entry.
type AdjustmentLine struct {
	Row       int
	EntryID   string          `col:"EntryID" validate:"required"`
	Date      time.Time       `col:"Date" validate:"required"`
	AccountID int             `col:"AccountID" validate:"gt=0"`
	Debit     decimal.Decimal `col:"Debit" validate:"gte=0"`
	Credit    decimal.Decimal `col:"Credit" validate:"gte=0"`
	Memo      string          `col:"Memo"`
}

// Customer is a row in customers.csv.
type Customer struct {
	ID          string          `col:"CustomerID" validate:"required"`
	Name        string          `col:"Name"`
	Terms       string          `col:"Terms"`
	CreditLimit decimal.Decimal `col:"CreditLimit" validate:"gte=0"`
}

// Vendor is a row in vendors.csv.
type Vendor struct {
	ID      string `col:"VendorID" validate:"required"`
	Name    string `col:"Name"`
	Terms   string `col:"Terms"`
	Contact string `col:"Contact"`
}

// Item is a row in items.csv. Its account columns tell the engine which
// accounts hold cost of sales and inventory.
type Item struct {
	Row              int
	ID               string          `col:"ItemID" validate:"required"`
	Name             string          `col:"Name"`
	SKU              string          `col:"SKU"`
	Type             string          `col:"Type"`
	UnitPrice        decimal.Decimal `col:"UnitPrice" validate:"gte=0"`
	COGSAccount      int             `col:"COGSAccount" validate:"gte=0"`
	RevenueAccount   int             `col:"RevenueAccount" validate:"gte=0"`
	InventoryAccount int             `col:"InventoryAccount" validate:"gte=0"`
}
