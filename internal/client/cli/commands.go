package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

var errCancelled = errors.New("cancelled")

func (a *App) Ping(ctx context.Context) error {
	cctx, cancel := a.callContext(ctx)
	defer cancel()
	return a.api.Ping(cctx)
}

func (a *App) Overview(ctx context.Context) error {
	cctx, cancel := a.callContext(ctx)
	defer cancel()

	ov, err := a.api.Overview(cctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Channels:\n")
	for i, ch := range ov.Channels {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, ch)
	}

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tLABEL\tPOINTS\tSTOCK")
	for _, c := range models.CouponClasses() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c, c.Label(), ov.Costs[string(c)], ov.Stock[string(c)])
	}
	_ = tw.Flush()

	printlnFn(b.String())
	return nil
}

func (a *App) Recent(ctx context.Context, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return errors.New("usage: recent [n]")
		}
		limit = n
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()

	rows, err := a.api.RecentRedemptions(cctx, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		printlnFn("No redemptions yet.")
		return nil
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACCOUNT\tNAME\tCLASS\tCODE\tPOINTS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d\n",
			r.CreatedAt.UTC().Format("2006-01-02 15:04"), r.AccountID, r.Name, r.Class, r.Code, r.PointsSpent)
	}
	_ = tw.Flush()

	printlnFn(b.String())
	return nil
}

func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: add <class> <file>")
	}
	class, err := models.ParseCouponClass(args[0])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()

	res, err := a.api.AddCoupons(cctx, string(class), splitLines(data))
	if err != nil {
		return err
	}
	printlnFn(addedText(res.Added, res.Skipped, class))
	return nil
}

// Upload sends the file to object storage through a presigned URL, then asks
// the server to import it.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: upload <class> <file>")
	}
	class, err := models.ParseCouponClass(args[0])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()

	key, url, err := a.api.CouponUploadURL(cctx, string(class))
	if err != nil {
		return err
	}
	if err := a.upload(cctx, url, data); err != nil {
		return err
	}

	res, err := a.api.ImportCoupons(cctx, string(class), key)
	if err != nil {
		return err
	}
	printlnFn(addedText(res.Added, res.Skipped, class))
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: remove <class> <n>")
	}
	class, err := models.ParseCouponClass(args[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return errors.New("usage: remove <class> <n>")
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()

	removed, err := a.api.RemoveCoupons(cctx, string(class), n)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("✅ Removed %d coupons from %s", removed, class.Label()))
	return nil
}

func (a *App) Channels(ctx context.Context) error {
	return a.wizard(ctx, models.StateAwaitingChannels, "", true)
}

func (a *App) Points(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: points <class>")
	}
	return a.wizard(ctx, models.StateAwaitingPointValue, args[0], false)
}

func (a *App) Codes(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: codes <class>")
	}
	return a.wizard(ctx, models.StateAwaitingCouponCodes, args[0], true)
}

func (a *App) Cancel(ctx context.Context) error {
	cctx, cancel := a.callContext(ctx)
	defer cancel()
	if err := a.api.Cancel(cctx); err != nil {
		return err
	}
	printlnFn("Cancelled.")
	return nil
}

// wizard starts a pending admin step and feeds it input until the server
// reports it done. Multi-line input ends with an empty line; an empty
// answer cancels the step.
func (a *App) wizard(ctx context.Context, state models.PendingState, class string, multiline bool) error {
	cctx, cancel := a.callContext(ctx)
	reply, err := a.api.Begin(cctx, string(state), class)
	cancel()
	if err != nil {
		return err
	}
	printlnFn(reply.Text)
	if multiline {
		printlnFn("(finish with an empty line)")
	}

	for {
		text, err := a.readInput(multiline)
		if err != nil {
			_ = a.Cancel(ctx)
			return nil
		}

		cctx, cancel := a.callContext(ctx)
		reply, err = a.api.Input(cctx, text)
		cancel()
		if err != nil {
			return err
		}
		printlnFn(reply.Text)
		if reply.Done || !reply.Handled {
			return nil
		}
	}
}

// readInput returns one line, or every line up to the first empty one.
// Empty input and EOF yield errCancelled.
func (a *App) readInput(multiline bool) (string, error) {
	var lines []string
	for a.scanner.Scan() {
		line := strings.TrimRight(a.scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
		if !multiline {
			break
		}
	}
	if len(lines) == 0 {
		return "", errCancelled
	}
	return strings.Join(lines, "\n"), nil
}

func splitLines(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func addedText(added, skipped int, class models.CouponClass) string {
	s := fmt.Sprintf("✅ Added %d coupons to %s", added, class.Label())
	if skipped > 0 {
		s += fmt.Sprintf(" (%d duplicates skipped)", skipped)
	}
	return s
}
