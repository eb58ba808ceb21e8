package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/avolkovs/tallybook/internal/models"
)

func (a *App) listClients(ctx context.Context) {
	clients, err := a.store.Clients(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if len(clients) == 0 {
		fmt.Println("No clients yet. Use 'addclient'.")
		return
	}
	for _, c := range clients {
		state := "active"
		if !c.Active {
			state = "inactive"
		}
		fmt.Printf("%s  %-20s %8.2f %s/%s  %s\n",
			shortID(c.ID), c.Name, c.Rate, c.Currency, c.RateKind, state)
	}
}

func (a *App) addClient(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Client name", os.Stdout)
	if err != nil || name == "" {
		log.Printf("error: client name is required")
		return
	}

	currency, err := GetSimpleText(a.reader, "Currency (e.g. EUR)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	kind, err := GetSimpleText(a.reader, "Rate kind (hourly/monthly)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	rateKind := models.RateHourly
	if strings.EqualFold(kind, string(models.RateMonthly)) {
		rateKind = models.RateMonthly
	}

	rate, err := GetFloat(a.reader, "Rate", 0, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	requiresInvoice, err := GetBool(a.reader, "Requires invoice?", false, os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	email, err := GetSimpleText(a.reader, "Email (optional)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	address, err := GetSimpleText(a.reader, "Address (optional)", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	c := models.Client{
		Name:            name,
		Currency:        currency,
		Rate:            rate,
		RateKind:        rateKind,
		RequiresInvoice: requiresInvoice,
		Active:          true,
		Email:           email,
		Address:         address,
	}
	if err := a.store.SaveClient(ctx, &c); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Printf("Added client %s (%s)\n", c.Name, shortID(c.ID))
}

func (a *App) deleteClient(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: delclient <id>")
		return
	}
	clients, err := a.store.Clients(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	id, ok := resolveID(args[0], clientIDs(clients))
	if !ok {
		fmt.Println("No client matches", args[0])
		return
	}
	if err := a.store.DeleteClient(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Println("Deleted.")
}

func clientIDs(clients []models.Client) []string {
	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	return ids
}

// shortID abbreviates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveID matches a possibly-abbreviated id against the known ids,
// accepting it only when the prefix is unambiguous.
func resolveID(prefix string, ids []string) (string, bool) {
	var match string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", false
			}
			match = id
		}
	}
	return match, match != ""
}
