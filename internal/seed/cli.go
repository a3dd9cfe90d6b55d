package seed

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/spf13/pflag"
)

// ParseFlags reads the command line into a Config. It returns pflag.ErrHelp
// when help was requested.
func ParseFlags(args []string, out io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := pflag.NewFlagSet("seed-tickets", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVarP(&cfg.BaseURL, "url", "u", "http://localhost:9080", "base URL of the service")
	fs.IntVarP(&cfg.Extra, "extra", "n", 20, "generated tickets on top of the demo set")
	fs.StringVar(&cfg.Prefix, "prefix", "SEED-", "ticket id prefix for generated tickets")
	fs.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU(), "concurrent create requests")
	fs.DurationVarP(&cfg.Timeout, "timeout", "t", 15*time.Second, "HTTP request timeout")
	fs.StringVar(&cfg.Note, "note", "seeded by seed-tickets", "note appended during verification")
	fs.BoolVar(&cfg.SkipDemo, "skip-demo", false, "do not submit the demo tickets")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every request")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(out, `Ticketsync seed tool
====================

Creates sample tickets through a running server, appends a note, completes a
ticket and verifies the list endpoint reflects all of it.

Usage:
  seed-tickets [options]

Options:
%s
Examples:
  seed-tickets --url http://localhost:9080
  seed-tickets -n 200 -w 8 --prefix LOAD-
`, fs.FlagUsages())
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.Extra < 0 {
		return nil, fmt.Errorf("--extra must not be negative")
	}
	if cfg.Note == "" {
		return nil, fmt.Errorf("--note must not be empty")
	}
	return cfg, nil
}
