package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/avolkovs/tallybook/internal/models"
)

func (a *App) listEntries(ctx context.Context) {
	entries, err := a.store.Entries(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("No time entries yet. Use 'addentry'.")
		return
	}

	names := a.clientNames(ctx)
	for _, e := range entries {
		paid := ""
		if e.PaidOn != nil {
			paid = "paid " + e.PaidOn.Format("2006-01-02")
		}
		fmt.Printf("%s  %s  %-20s %5.2fh %8.2f  %-30s %s\n",
			shortID(e.ID), e.Date.Format("2006-01-02"), names[e.ClientID],
			e.Hours, e.Amount, e.Description, paid)
	}
}

func (a *App) addEntry(ctx context.Context) {
	client, ok := a.pickClient(ctx)
	if !ok {
		return
	}

	date, err := GetDate(a.reader, "Date (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	hours, err := GetFloat(a.reader, "Hours (empty for 0)", 0, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	amount, err := GetFloat(a.reader, "Fixed amount (empty for 0)", 0, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	desc, err := GetSimpleText(a.reader, "Description", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	e := models.TimeEntry{
		ClientID:    client.ID,
		Date:        date,
		Hours:       hours,
		Amount:      amount,
		Description: desc,
	}
	if err := a.store.SaveEntry(ctx, &e); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Printf("Added entry %s\n", shortID(e.ID))
}

func (a *App) deleteEntry(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: delentry <id>")
		return
	}
	e, ok := a.findEntry(ctx, args[0])
	if !ok {
		return
	}
	if err := a.store.DeleteEntry(ctx, e.ID); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Println("Deleted.")
}

func (a *App) markEntryPaid(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: markpaid <id>")
		return
	}
	e, ok := a.findEntry(ctx, args[0])
	if !ok {
		return
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	e.PaidOn = &today
	if err := a.store.SaveEntry(ctx, &e); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Printf("Marked %s paid on %s\n", shortID(e.ID), today.Format("2006-01-02"))
}

func (a *App) findEntry(ctx context.Context, prefix string) (models.TimeEntry, bool) {
	entries, err := a.store.Entries(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return models.TimeEntry{}, false
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	id, ok := resolveID(prefix, ids)
	if !ok {
		fmt.Println("No entry matches", prefix)
		return models.TimeEntry{}, false
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.TimeEntry{}, false
}
