package config

import (
	"flag"
	"os"
	"time"

	"github.com/avolkovs/tallybook/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-s string   base URL of the document service
//	-u string   token endpoint URL
//	-f string   local database file
//	-n string   remote document name
//	-w int      debounce delay before an automatic push (seconds)
//
// The function filters os.Args to only the flags it owns, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-u", "-f", "-n", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServiceBaseURL, "s", cfg.ServiceBaseURL, "base URL of the document service")
	fs.StringVar(&cfg.AuthURL, "u", cfg.AuthURL, "token endpoint URL")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.DocumentName, "n", cfg.DocumentName, "remote document name")
	debounce := fs.Int("w", int(cfg.DebounceDelay.Seconds()), "debounce delay before automatic push (seconds)")

	if err := fs.Parse(args); err != nil {
		return
	}

	cfg.DebounceDelay = time.Duration(*debounce) * time.Second
}
