package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-w string   HTTP bind address (e.g., ":10000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-k string   bot token
//	-n string   bot username (without @)
//	-l string   public base URL of the HTTP endpoint
//	-m string   comma separated admin ids
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-i int      stock check interval, minutes
//	-q int      low stock threshold
//	-v string   log level
//
// Arguments are first filtered to the flags above, so other components can
// parse their own flags from the same command line.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-d", "-s", "-t", "-k", "-n", "-l", "-m",
		"-u", "-p", "-b", "-g", "-e", "-i", "-q", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.BotToken, "k", config.BotToken, "bot token")
	fs.StringVar(&config.BotUsername, "n", config.BotUsername, "bot username")
	fs.StringVar(&config.PublicBaseURL, "l", config.PublicBaseURL, "public base URL")
	adminIDs := fs.String("m", "", "comma separated admin ids")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	stockCheckInterval := fs.Int("i", int(config.StockCheckInterval.Minutes()), "stock check interval (in minutes)")
	fs.IntVar(&config.StockAlertThreshold, "q", config.StockAlertThreshold, "low stock threshold")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["t"] {
		config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	}
	if set["i"] {
		config.StockCheckInterval = time.Duration(*stockCheckInterval) * time.Minute
	}
	config.PublicBaseURL = strings.TrimRight(config.PublicBaseURL, "/")
	if *adminIDs != "" {
		config.AdminIDs = parseIDList(*adminIDs)
	}
}
