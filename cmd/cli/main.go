package main

import (
	"context"
	"log"

	"github.com/avolkovs/tallybook/internal/cli"
	"github.com/avolkovs/tallybook/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
