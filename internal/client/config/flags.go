package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/flagx"
)

// parseFlags overlays cfg with -a, -s, -u and -t. Other arguments are
// ignored. A malformed value panics.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-u", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "shared secret key")
	fs.Int64Var(&cfg.AdminID, "u", cfg.AdminID, "admin account id")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
