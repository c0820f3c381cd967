package cli

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/couponkeeper/internal/client/config"
	"github.com/dmitrijs2005/couponkeeper/internal/common"

	gs "github.com/dmitrijs2005/couponkeeper/internal/server/grpc"
)

type fakeAPI struct {
	overview *gs.AdminOverviewResponse
	rows     []gs.RedemptionRow
	added    [][]string
	removed  int
	limit    int
	imported string
	begun    []string
	inputs   []string
	replies  []*gs.AdminReplyResponse
	cancels  int
	err      error
	closed   bool
}

func (f *fakeAPI) Ping(context.Context) error { return f.err }
func (f *fakeAPI) Overview(context.Context) (*gs.AdminOverviewResponse, error) {
	return f.overview, f.err
}
func (f *fakeAPI) RecentRedemptions(_ context.Context, limit int) ([]gs.RedemptionRow, error) {
	f.limit = limit
	return f.rows, f.err
}
func (f *fakeAPI) AddCoupons(_ context.Context, class string, codes []string) (*gs.AddCouponsResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = append(f.added, codes)
	return &gs.AddCouponsResponse{Added: len(codes) - 1, Skipped: 1}, nil
}
func (f *fakeAPI) RemoveCoupons(_ context.Context, class string, n int) (int, error) {
	f.removed = n
	return n, f.err
}
func (f *fakeAPI) CouponUploadURL(_ context.Context, class string) (string, string, error) {
	return "coupons/" + class + "/k", "https://s3.local/put", f.err
}
func (f *fakeAPI) ImportCoupons(_ context.Context, class, key string) (*gs.AddCouponsResponse, error) {
	f.imported = key
	return &gs.AddCouponsResponse{Added: 2}, f.err
}
func (f *fakeAPI) Begin(_ context.Context, state, class string) (*gs.AdminReplyResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.begun = append(f.begun, state+"/"+class)
	return &gs.AdminReplyResponse{Handled: true, State: state, Text: "prompt for " + state}, nil
}
func (f *fakeAPI) Input(_ context.Context, text string) (*gs.AdminReplyResponse, error) {
	f.inputs = append(f.inputs, text)
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}
func (f *fakeAPI) Cancel(context.Context) error {
	f.cancels++
	return f.err
}
func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func newTestApp(api *fakeAPI, input string) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RequestTimeout = time.Second
	return newApp(cfg, api, bufio.NewScanner(strings.NewReader(input)))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "codes.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestOverview(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{overview: &gs.AdminOverviewResponse{
		Channels: []string{"@a", "@b", "@c", "@d", "@e"},
		Costs:    map[string]int{"500": 3, "1000": 10, "2000": 25, "4000": 40},
		Stock:    map[string]int{"500": 7},
	}}

	require.NoError(t, newTestApp(api, "").Overview(context.Background()))

	text := strings.Join(*out, "\n")
	assert.Contains(t, text, "1. @a")
	assert.Contains(t, text, "5. @e")
	assert.Regexp(t, `500\s+500 off 500\s+3\s+7`, text)
	assert.Regexp(t, `4000\s+4000 off 4000\s+40\s+0`, text)
}

func TestRecent(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{rows: []gs.RedemptionRow{{
		AccountID: 42, Name: "ann", Class: "500", Code: "C-1", PointsSpent: 3,
		CreatedAt: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
	}}}
	app := newTestApp(api, "")

	require.NoError(t, app.Recent(context.Background(), []string{"5"}))
	assert.Equal(t, 5, api.limit)
	assert.Regexp(t, `2025-03-01 10:30\s+42\s+ann\s+500\s+C-1\s+3`, strings.Join(*out, "\n"))

	assert.EqualError(t, app.Recent(context.Background(), []string{"zero"}), "usage: recent [n]")

	api.rows = nil
	require.NoError(t, app.Recent(context.Background(), nil))
	assert.Zero(t, api.limit)
	assert.Contains(t, *out, "No redemptions yet.")
}

func TestAdd(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{}
	app := newTestApp(api, "")
	path := writeFile(t, "A1\n\n  B2  \r\nA1\n")

	require.NoError(t, app.Add(context.Background(), []string{"500", path}))

	assert.Equal(t, [][]string{{"A1", "B2", "A1"}}, api.added)
	assert.Contains(t, *out, "✅ Added 2 coupons to 500 off 500 (1 duplicates skipped)")
}

func TestAdd_Validation(t *testing.T) {
	captureOutput(t)
	app := newTestApp(&fakeAPI{}, "")

	assert.EqualError(t, app.Add(context.Background(), []string{"500"}), "usage: add <class> <file>")
	assert.ErrorContains(t, app.Add(context.Background(), []string{"750", "x"}), "unknown coupon class")
	assert.ErrorIs(t, app.Add(context.Background(), []string{"500", filepath.Join(t.TempDir(), "nope")}), os.ErrNotExist)
}

func TestUpload(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{}
	app := newTestApp(api, "")

	var gotURL string
	var gotBody []byte
	app.upload = func(_ context.Context, url string, body []byte) error {
		gotURL, gotBody = url, body
		return nil
	}

	require.NoError(t, app.Upload(context.Background(), []string{"1000", writeFile(t, "X\nY\n")}))

	assert.Equal(t, "https://s3.local/put", gotURL)
	assert.Equal(t, "X\nY\n", string(gotBody))
	assert.Equal(t, "coupons/1000/k", api.imported)
	assert.Contains(t, *out, "✅ Added 2 coupons to 1000 off 1000")
}

func TestUpload_StopsWhenPutFails(t *testing.T) {
	captureOutput(t)
	api := &fakeAPI{}
	app := newTestApp(api, "")
	app.upload = func(context.Context, string, []byte) error { return errors.New("upload failed: 403") }

	err := app.Upload(context.Background(), []string{"1000", writeFile(t, "X\n")})

	assert.EqualError(t, err, "upload failed: 403")
	assert.Empty(t, api.imported)
}

func TestRemove(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{}
	app := newTestApp(api, "")

	require.NoError(t, app.Remove(context.Background(), []string{"2000", "4"}))
	assert.Equal(t, 4, api.removed)
	assert.Contains(t, *out, "✅ Removed 4 coupons from 2000 off 2000")

	assert.EqualError(t, app.Remove(context.Background(), []string{"2000", "0"}), "usage: remove <class> <n>")
}

func TestChannelsWizard_RetriesUntilDone(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{replies: []*gs.AdminReplyResponse{
		{Handled: true, Text: "Send 5 lines"},
		{Handled: true, Done: true, Text: "✅ Channels updated!"},
	}}
	input := "@a\n@b\n\n@a\n@b\n@c\n@d\n@e\n\n"
	app := newTestApp(api, input)

	require.NoError(t, app.Channels(context.Background()))

	assert.Equal(t, []string{"admin_set_channels/"}, api.begun)
	assert.Equal(t, []string{"@a\n@b", "@a\n@b\n@c\n@d\n@e"}, api.inputs)
	assert.Contains(t, *out, "prompt for admin_set_channels")
	assert.Contains(t, *out, "✅ Channels updated!")
	assert.Zero(t, api.cancels)
}

func TestPointsWizard_SingleLine(t *testing.T) {
	captureOutput(t)
	api := &fakeAPI{replies: []*gs.AdminReplyResponse{{Handled: true, Done: true, Text: "✅ Points updated!"}}}
	app := newTestApp(api, "7\nignored\n")

	require.NoError(t, app.Points(context.Background(), []string{"500"}))

	assert.Equal(t, []string{"admin_set_rule_points/500"}, api.begun)
	assert.Equal(t, []string{"7"}, api.inputs)
}

func TestCodesWizard_EmptyInputCancels(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{}
	app := newTestApp(api, "\n")

	require.NoError(t, app.Codes(context.Background(), []string{"500"}))

	assert.Empty(t, api.inputs)
	assert.Equal(t, 1, api.cancels)
	assert.Contains(t, *out, "Cancelled.")
}

func TestWizard_BeginError(t *testing.T) {
	captureOutput(t)
	api := &fakeAPI{err: common.ErrForbidden}
	app := newTestApp(api, "")

	assert.ErrorIs(t, app.Points(context.Background(), []string{"500"}), common.ErrForbidden)
	assert.EqualError(t, app.Codes(context.Background(), nil), "usage: codes <class>")
}

func TestRun_ClosesClient(t *testing.T) {
	out := captureOutput(t)
	api := &fakeAPI{}
	app := newTestApp(api, "exit\n")

	app.Run(context.Background())

	assert.True(t, api.closed)
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}
