package cli

import (
	"context"
	"fmt"
	"log"
)

func (a *App) connect(ctx context.Context) {
	if err := a.orch.Connect(ctx); err != nil {
		log.Printf("connect failed: %v", err)
		return
	}
	fmt.Println("Connected. Changes will sync automatically.")
}

func (a *App) disconnect(ctx context.Context) {
	if err := a.orch.Disconnect(ctx); err != nil {
		log.Printf("disconnect failed: %v", err)
		return
	}
	fmt.Println("Disconnected. Local data is untouched; the remote document keeps its last copy.")
}

func (a *App) push(ctx context.Context) {
	if err := a.orch.Push(ctx, true); err != nil {
		log.Printf("push failed: %v", err)
		return
	}
	fmt.Println("Pushed.")
}

func (a *App) pull(ctx context.Context) {
	if err := a.orch.Pull(ctx); err != nil {
		log.Printf("pull failed: %v", err)
		return
	}
	fmt.Println("Pulled. Local data now matches the remote document.")
}

func (a *App) showSyncStatus(ctx context.Context) {
	docID, err := a.store.DocumentID(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	if docID == "" {
		fmt.Println("Not linked to a remote document. Use 'connect'.")
		return
	}

	st := a.orch.Status()
	fmt.Printf("Document:  %s\n", docID)
	fmt.Printf("State:     %s\n", st.State)
	if st.Message != "" {
		fmt.Printf("Detail:    %s\n", st.Message)
	}
	if st.LastSync != nil {
		fmt.Printf("Last sync: %s\n", st.LastSync.Local().Format("2006-01-02 15:04:05"))
	} else if ls, err := a.store.LastSyncTime(ctx); err == nil && ls != nil {
		fmt.Printf("Last sync: %s\n", ls.Local().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Last sync: never")
	}
}
