package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line
// flags.
//
// Supported flags (short forms):
//
//	-f string   credential cache path
//	-l int      renewal lead, seconds
//	-w int      renewal timeout, seconds
//
// os.Args is filtered to only the recognized flags first, so the client
// flags can coexist with flags consumed by other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-f", "-l", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.CachePath, "f", config.CachePath, "credential cache path")
	lead := fs.Int("l", int(config.RenewalLead.Seconds()), "renewal lead (in seconds)")
	timeout := fs.Int("w", int(config.RenewalTimeout.Seconds()), "renewal timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RenewalLead = time.Duration(*lead) * time.Second
	config.RenewalTimeout = time.Duration(*timeout) * time.Second
}
