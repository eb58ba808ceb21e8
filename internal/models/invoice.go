package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewInvoice builds an invoice for the given client from the selected time
// entries, freezing currency, rate and totals at creation time.
//
// For hourly clients the total is hours*rate plus any fixed amounts carried
// by the entries. For monthly clients the total is the flat monthly rate and
// the entry list is kept only for reference.
func NewInvoice(c Client, entries []TimeEntry, number string, issuedOn time.Time) Invoice {
	inv := Invoice{
		ID:        uuid.NewString(),
		ClientID:  c.ID,
		Number:    number,
		Currency:  c.Currency,
		Rate:      c.Rate,
		IssuedOn:  issuedOn,
		Status:    InvoiceDraft,
		UpdatedAt: issuedOn,
	}

	switch c.RateKind {
	case RateMonthly:
		inv.Total = c.Rate
	default:
		var hours, fixed float64
		for _, e := range entries {
			if e.Amount != 0 {
				fixed += e.Amount
			} else {
				hours += e.Hours
			}
		}
		inv.Total = hours*c.Rate + fixed
	}

	for _, e := range entries {
		inv.EntryIDs = append(inv.EntryIDs, e.ID)
	}
	return inv
}

// InvoiceNumber formats a sequential per-year invoice number, e.g. 2026-007.
func InvoiceNumber(year int, seq int) string {
	return fmt.Sprintf("%d-%03d", year, seq)
}
