package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

type execIface interface {
	Ping(ctx context.Context) error
	Overview(ctx context.Context) error
	Recent(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Channels(ctx context.Context) error
	Points(ctx context.Context, args []string) error
	Codes(ctx context.Context, args []string) error
	Cancel(ctx context.Context) error
}

const helpText = "Available commands: ping, overview, recent [n], add <class> <file>, upload <class> <file>, " +
	"remove <class> <n>, channels, points <class>, codes <class>, cancel, exit"

// runREPL dispatches one command per line until EOF or exit. Handlers
// report their own errors; the loop only prints them.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn("loyalty> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "ping":
			if err = a.Ping(ctx); err == nil {
				printlnFn("pong")
			}
		case "overview", "o":
			err = a.Overview(ctx)
		case "recent":
			err = a.Recent(ctx, args)
		case "add":
			err = a.Add(ctx, args)
		case "upload":
			err = a.Upload(ctx, args)
		case "remove":
			err = a.Remove(ctx, args)
		case "channels":
			err = a.Channels(ctx)
		case "points":
			err = a.Points(ctx, args)
		case "codes":
			err = a.Codes(ctx, args)
		case "cancel":
			err = a.Cancel(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
