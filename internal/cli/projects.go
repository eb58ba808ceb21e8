package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/avolkovs/tallybook/internal/models"
)

func (a *App) listProjects(ctx context.Context) {
	projects, err := a.store.Projects(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet. Use 'addproject'.")
		return
	}

	names := a.clientNames(ctx)
	for _, p := range projects {
		state := "active"
		if !p.Active {
			state = "inactive"
		}
		fmt.Printf("%s  %-20s client: %-20s %s\n",
			shortID(p.ID), p.Name, names[p.ClientID], state)
	}
}

func (a *App) addProject(ctx context.Context) {
	client, ok := a.pickClient(ctx)
	if !ok {
		return
	}

	name, err := GetSimpleText(a.reader, "Project name", os.Stdout)
	if err != nil || name == "" {
		log.Printf("error: project name is required")
		return
	}

	p := models.Project{ClientID: client.ID, Name: name, Active: true}
	if err := a.store.SaveProject(ctx, &p); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Printf("Added project %s (%s)\n", p.Name, shortID(p.ID))
}

func (a *App) deleteProject(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: delproject <id>")
		return
	}
	projects, err := a.store.Projects(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	id, ok := resolveID(args[0], ids)
	if !ok {
		fmt.Println("No project matches", args[0])
		return
	}
	if err := a.store.DeleteProject(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return
	}
	fmt.Println("Deleted.")
}

// pickClient prompts for a client by abbreviated id.
func (a *App) pickClient(ctx context.Context) (models.Client, bool) {
	clients, err := a.store.Clients(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return models.Client{}, false
	}
	if len(clients) == 0 {
		fmt.Println("No clients yet. Use 'addclient' first.")
		return models.Client{}, false
	}

	for _, c := range clients {
		fmt.Printf("%s  %s\n", shortID(c.ID), c.Name)
	}
	prefix, err := GetSimpleText(a.reader, "Client id", os.Stdout)
	if err != nil {
		log.Printf("error: %v", err)
		return models.Client{}, false
	}
	id, ok := resolveID(prefix, clientIDs(clients))
	if !ok {
		fmt.Println("No client matches", prefix)
		return models.Client{}, false
	}
	for _, c := range clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}

func (a *App) clientNames(ctx context.Context) map[string]string {
	names := map[string]string{}
	clients, err := a.store.Clients(ctx)
	if err != nil {
		return names
	}
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names
}
