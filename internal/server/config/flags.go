package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-s string   access-token HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-p int      password reset token validity, minutes
//	-j int      cleanup (janitor) interval, minutes
//	-o string   default role assigned at registration
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-t", "-r", "-p", "-j", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessValidity := fs.Int("t", int(config.AccessTokenValidity.Minutes()), "access token validity (in minutes)")
	refreshValidity := fs.Int("r", int(config.RefreshTokenValidity.Minutes()), "refresh token validity (in minutes)")
	resetValidity := fs.Int("p", int(config.ResetTokenValidity.Minutes()), "reset token validity (in minutes)")
	cleanupInterval := fs.Int("j", int(config.CleanupInterval.Minutes()), "cleanup interval (in minutes)")

	fs.StringVar(&config.DefaultRoleName, "o", config.DefaultRoleName, "default role name")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidity = time.Duration(*accessValidity) * time.Minute
	config.RefreshTokenValidity = time.Duration(*refreshValidity) * time.Minute
	config.ResetTokenValidity = time.Duration(*resetValidity) * time.Minute
	config.CleanupInterval = time.Duration(*cleanupInterval) * time.Minute
}
