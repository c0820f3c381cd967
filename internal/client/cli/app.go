package cli

import (
	"bufio"
	"context"
	"net/http"
	"os"

	"github.com/dmitrijs2005/couponkeeper/internal/client/client"
	"github.com/dmitrijs2005/couponkeeper/internal/client/config"
	"github.com/dmitrijs2005/couponkeeper/internal/netx"
)

type App struct {
	config  *config.Config
	api     client.AdminAPI
	scanner *bufio.Scanner
	upload  func(ctx context.Context, url string, body []byte) error
}

func NewApp(c *config.Config) (*App, error) {
	api, err := client.NewGRPCClient(c.ServerEndpointAddr, c.AdminID, c.SecretKey, c.TokenValidity)
	if err != nil {
		return nil, err
	}
	return newApp(c, api, bufio.NewScanner(os.Stdin)), nil
}

func newApp(c *config.Config, api client.AdminAPI, scanner *bufio.Scanner) *App {
	httpClient := &http.Client{Timeout: c.RequestTimeout}
	return &App{
		config:  c,
		api:     api,
		scanner: scanner,
		upload: func(ctx context.Context, url string, body []byte) error {
			return netx.UploadToPresignedURL(ctx, httpClient, url, body)
		},
	}
}

// Run reads commands until EOF or exit.
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	printlnFn("Loyalty admin console (type 'help' for commands)")
	if err := a.Ping(ctx); err != nil {
		printlnFn("Server not reachable:", err)
	}
	runREPL(ctx, a, a.scanner)
}

func (a *App) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

