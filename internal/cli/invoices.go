package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avolkovs/tallybook/internal/models"
)

func (a *App) listInvoices(ctx context.Context) {
	invoices, err := a.store.Invoices(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if len(invoices) == 0 {
		fmt.Println("No invoices yet. Use 'addinvoice'.")
		return
	}

	names := a.clientNames(ctx)
	for _, inv := range invoices {
		fmt.Printf("%s  %-10s %-20s %10.2f %s  %s  %s\n",
			shortID(inv.ID), inv.Number, names[inv.ClientID],
			inv.Total, inv.Currency, inv.IssuedOn.Format("2006-01-02"), inv.Status)
	}
}

// addInvoice builds an invoice for a client from its not-yet-invoiced time
// entries, numbering it sequentially within the issue year.
func (a *App) addInvoice(ctx context.Context) {
	client, ok := a.pickClient(ctx)
	if !ok {
		return
	}

	issuedOn, err := GetDate(a.reader, "Issue date (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	entries, err := a.uninvoicedEntries(ctx, client.ID)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if client.RateKind == models.RateHourly && len(entries) == 0 {
		fmt.Println("No uninvoiced entries for this client.")
		return
	}

	number, err := a.store.NextInvoiceNumber(ctx, issuedOn.Year())
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	inv := models.NewInvoice(client, entries, number, issuedOn)
	if err := a.store.SaveInvoice(ctx, &inv); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Printf("Created invoice %s for %.2f %s (%d entries)\n",
		inv.Number, inv.Total, inv.Currency, len(inv.EntryIDs))
}

func (a *App) setInvoiceStatus(ctx context.Context, args []string, status string) {
	if len(args) == 0 {
		fmt.Printf("Usage: %sinvoice <id>\n", map[string]string{"sent": "send", "paid": "pay"}[status])
		return
	}
	invoices, err := a.store.Invoices(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	ids := make([]string, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	id, ok := resolveID(args[0], ids)
	if !ok {
		fmt.Println("No invoice matches", args[0])
		return
	}
	for _, inv := range invoices {
		if inv.ID != id {
			continue
		}
		inv.Status = models.InvoiceStatus(status)
		if err := a.store.SaveInvoice(ctx, &inv); err != nil {
			log.Printf("error: %v", err)
			return
		}
		fmt.Printf("Invoice %s is now %s\n", inv.Number, inv.Status)

		// Paying an invoice settles its entries too.
		if inv.Status == models.InvoicePaid {
			a.settleEntries(ctx, inv)
		}
		return
	}
}

// settleEntries stamps the invoice's entries as paid on the payment day.
func (a *App) settleEntries(ctx context.Context, inv models.Invoice) {
	if len(inv.EntryIDs) == 0 {
		return
	}
	entries, err := a.store.Entries(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	member := map[string]bool{}
	for _, id := range inv.EntryIDs {
		member[id] = true
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, e := range entries {
		if !member[e.ID] || e.PaidOn != nil {
			continue
		}
		e.PaidOn = &today
		if err := a.store.SaveEntry(ctx, &e); err != nil {
			log.Printf("error: %v", err)
			return
		}
	}
}

// uninvoicedEntries returns the client's entries not yet referenced by any
// invoice.
func (a *App) uninvoicedEntries(ctx context.Context, clientID string) ([]models.TimeEntry, error) {
	entries, err := a.store.Entries(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := a.store.Invoices(ctx)
	if err != nil {
		return nil, err
	}

	invoiced := map[string]bool{}
	for _, inv := range invoices {
		for _, id := range inv.EntryIDs {
			invoiced[id] = true
		}
	}

	var result []models.TimeEntry
	for _, e := range entries {
		if e.ClientID == clientID && !invoiced[e.ID] {
			result = append(result, e)
		}
	}
	return result, nil
}
