// Package models defines the record types kept in the local store and
// synchronized with the remote tabular document.
package models

import "time"

// RateKind classifies how a client is billed.
type RateKind string

const (
	RateHourly  RateKind = "hourly"
	RateMonthly RateKind = "monthly"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
)

// Client is the billing identity a consultant works for.
//
// UpdatedAt is mandatory: it is bumped on every field mutation and is the
// sole input to conflict resolution during sync.
type Client struct {
	ID              string
	Name            string
	Currency        string
	Rate            float64
	RateKind        RateKind
	RequiresInvoice bool
	Active          bool
	Email           string
	Address         string
	UpdatedAt       time.Time
}

// Project belongs to exactly one Client.
type Project struct {
	ID        string
	ClientID  string
	Name      string
	Active    bool
	UpdatedAt time.Time
}

// TimeEntry records work done for a client, optionally under a project.
// Hours and Amount are not mutually exclusive: a fixed-amount entry may
// still carry hours for record keeping.
type TimeEntry struct {
	ID          string
	ClientID    string
	ProjectID   string // empty when the entry is not tied to a project
	Date        time.Time
	Hours       float64
	Amount      float64
	Description string
	PaidOn      *time.Time
	UpdatedAt   time.Time
}

// Invoice captures currency, rate and totals at creation time, so later
// rate changes never retroactively alter historical invoices. EntryIDs is
// empty for flat monthly billing.
type Invoice struct {
	ID        string
	ClientID  string
	Number    string
	EntryIDs  []string
	Currency  string
	Rate      float64
	Total     float64
	IssuedOn  time.Time
	Status    InvoiceStatus
	UpdatedAt time.Time
}

// Profile describes the operator's own business identity. It is a
// singleton, never merged: the local copy wins on push, the remote copy
// wins on pull.
type Profile struct {
	Name        string
	Company     string
	Email       string
	Address     string
	TaxID       string
	BankDetails string
	UpdatedAt   time.Time
}

// Snapshot is the full record set across all collections plus the profile
// at one point in time.
type Snapshot struct {
	Clients  []Client
	Projects []Project
	Entries  []TimeEntry
	Invoices []Invoice
	Profile  Profile
}

// Empty reports whether the snapshot carries no records at all. The profile
// is ignored: a filled-in profile alone does not count as data worth
// protecting a remote document for.
func (s Snapshot) Empty() bool {
	return len(s.Clients) == 0 && len(s.Projects) == 0 &&
		len(s.Entries) == 0 && len(s.Invoices) == 0
}
