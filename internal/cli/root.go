package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/avolkovs/tallybook/internal/sync"
)

func (a *App) getStatus() string {
	st := a.orch.Status()
	s := ""
	if st.Connected {
		s = "linked"
	}
	if st.State != sync.StateIdle {
		if s != "" {
			s += " "
		}
		s += string(st.State)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to Tallybook CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("tb %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Records:  clients, addclient, delclient, projects, addproject, delproject")
			fmt.Println("          entries, addentry, delentry, markpaid")
			fmt.Println("          invoices, addinvoice, sendinvoice, payinvoice")
			fmt.Println("          profile, editprofile")
			fmt.Println("Sync:     connect, disconnect, push, pull, status")
			fmt.Println("Other:    help, exit")

		case "clients", "c":
			a.listClients(ctx)
		case "addclient":
			a.addClient(ctx)
		case "delclient":
			a.deleteClient(ctx, args)

		case "projects", "p":
			a.listProjects(ctx)
		case "addproject":
			a.addProject(ctx)
		case "delproject":
			a.deleteProject(ctx, args)

		case "entries", "e":
			a.listEntries(ctx)
		case "addentry":
			a.addEntry(ctx)
		case "delentry":
			a.deleteEntry(ctx, args)
		case "markpaid":
			a.markEntryPaid(ctx, args)

		case "invoices", "i":
			a.listInvoices(ctx)
		case "addinvoice":
			a.addInvoice(ctx)
		case "sendinvoice":
			a.setInvoiceStatus(ctx, args, "sent")
		case "payinvoice":
			a.setInvoiceStatus(ctx, args, "paid")

		case "profile":
			a.showProfile(ctx)
		case "editprofile":
			a.editProfile(ctx)

		case "connect":
			a.connect(ctx)
		case "disconnect":
			a.disconnect(ctx)
		case "push":
			a.push(ctx)
		case "pull":
			a.pull(ctx)
		case "status":
			a.showSyncStatus(ctx)

		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
