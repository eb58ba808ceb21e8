package cli

import (
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) showProfile(ctx context.Context) {
	p, err := a.store.Profile(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if p.Name == "" && p.Company == "" {
		fmt.Println("Profile is empty. Use 'editprofile'.")
		return
	}
	fmt.Printf("Name:         %s\n", p.Name)
	fmt.Printf("Company:      %s\n", p.Company)
	fmt.Printf("Email:        %s\n", p.Email)
	fmt.Printf("Address:      %s\n", p.Address)
	fmt.Printf("Tax id:       %s\n", p.TaxID)
	fmt.Printf("Bank details: %s\n", p.BankDetails)
}

// editProfile re-prompts every field; an empty answer keeps the current
// value.
func (a *App) editProfile(ctx context.Context) {
	p, err := a.store.Profile(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	fields := []struct {
		prompt string
		value  *string
	}{
		{"Name", &p.Name},
		{"Company", &p.Company},
		{"Email", &p.Email},
		{"Address", &p.Address},
		{"Tax id", &p.TaxID},
		{"Bank details", &p.BankDetails},
	}

	for _, f := range fields {
		prompt := f.prompt
		if *f.value != "" {
			prompt = fmt.Sprintf("%s [%s]", f.prompt, *f.value)
		}
		answer, err := GetSimpleText(a.reader, prompt, os.Stdout)
		if err != nil {
			log.Printf("error: %v", err)
			return
		}
		if answer != "" {
			*f.value = answer
		}
	}

	if err := a.store.SaveProfile(ctx, &p); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Println("Profile saved.")
}
