package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/Sternrassler/domain-order-counter/internal/testutil"
	"github.com/stretchr/testify/require"
)

// setupEnv points the configuration at mock and returns an empty output dir.
func setupEnv(t *testing.T, mock *testutil.MockOrders) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("ORDERS_TOKEN", "test-token")
	t.Setenv("ORDERS_BASE_URL", mock.URL())
	t.Setenv("ORDERS_THROTTLE_DOMAIN_PAUSE", "0s")
	t.Setenv("ORDERS_THROTTLE_SHORT_PAUSE", "0s")
	t.Setenv("ORDERS_THROTTLE_LONG_PAUSE", "0s")
	t.Setenv("ORDERS_REDIS_ADDR", "")
	t.Setenv("ORDERS_METRICS_ADDR", "")
	t.Setenv("ORDERS_LOG_PRETTY", "false")
	t.Setenv("ORDERS_OUTPUT_DIR", dir)
	return dir
}

func newMock(t *testing.T) *testutil.MockOrders {
	t.Helper()

	mock := testutil.NewMockOrders()
	t.Cleanup(mock.Close)

	mock.SetDomains("a", "b", "c")
	mock.SetDataset("a", 2400)
	mock.SetScript("b", testutil.ServerError())
	mock.SetDataset("c", 0)
	return mock
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out, strings.NewReader(stdin))
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func files(t *testing.T, dir, pattern string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	return matches
}

func TestRun_WritesSummaryAndFiles(t *testing.T) {
	mock := newMock(t)
	dir := setupEnv(t, mock)

	out, err := execute(t, "", "run", "--yes", "--select", "test")
	require.NoError(t, err)

	require.Contains(t, out, "Found 3 domains")
	require.Contains(t, out, "Selected 3 of 3 domains (test)")
	require.Contains(t, out, "Total orders:  2,400")
	require.Contains(t, out, "Successful:    2")
	require.Contains(t, out, "Errors:        1")
	require.Contains(t, out, "Domains without orders: 1")
	require.Contains(t, out, "Domains with errors: 1")

	require.Len(t, files(t, dir, "domain_stats_*.json"), 1)
	require.Len(t, files(t, dir, "domain_stats_*.csv"), 1)
	require.Empty(t, files(t, dir, "domain_stats_*.xlsx"))
}

func TestRun_SelectionAndFormatFlags(t *testing.T) {
	mock := newMock(t)
	setupEnv(t, mock)
	dir := t.TempDir()

	out, err := execute(t, "", "run", "-y", "-s", "first:1", "-o", dir, "--format", "xlsx")
	require.NoError(t, err)

	require.Contains(t, out, "Selected 1 of 3 domains (first:1)")
	require.Contains(t, out, "Total orders:  2,400")
	require.Len(t, files(t, dir, "domain_stats_*.xlsx"), 1)
	require.Empty(t, files(t, dir, "domain_stats_*.json"))

	require.Empty(t, mock.Requests("b"), "unselected domains must not be counted")
}

func TestRun_ConfirmationDeclined(t *testing.T) {
	mock := newMock(t)
	dir := setupEnv(t, mock)

	out, err := execute(t, "n\n", "run")
	require.NoError(t, err)

	require.Contains(t, out, "Count orders on 3 domains? (y/n): ")
	require.Contains(t, out, "Cancelled")
	require.Empty(t, mock.Requests("a"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRun_ConfirmationAccepted(t *testing.T) {
	mock := newMock(t)
	setupEnv(t, mock)

	out, err := execute(t, "yes\n", "run", "--select", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Total orders:  2,400")
}

func TestRun_NoDomains(t *testing.T) {
	mock := newMock(t)
	mock.SetDomains()
	setupEnv(t, mock)

	out, err := execute(t, "", "run", "--yes")
	require.NoError(t, err)
	require.Contains(t, out, "No domains to process")
}

func TestRun_DirectoryUnavailable(t *testing.T) {
	mock := newMock(t)
	mock.SetDomainsResponse(testutil.ServerError())
	setupEnv(t, mock)

	_, err := execute(t, "", "run", "--yes")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch domains")
}

func TestRun_InvalidSelection(t *testing.T) {
	mock := newMock(t)
	setupEnv(t, mock)

	_, err := execute(t, "", "run", "--yes", "--select", "x,y")
	require.Error(t, err)
	require.Empty(t, mock.Requests("a"))
}

func TestRun_InvalidFormat(t *testing.T) {
	mock := newMock(t)
	setupEnv(t, mock)

	_, err := execute(t, "", "run", "--yes", "--format", "pdf")
	require.Error(t, err)
}

func TestRoot_MissingToken(t *testing.T) {
	mock := newMock(t)
	setupEnv(t, mock)
	t.Setenv("ORDERS_TOKEN", "")

	_, err := execute(t, "", "domains")
	require.Error(t, err)
	require.Contains(t, err.Error(), "token is required")
}

func TestDomains_Preview(t *testing.T) {
	mock := newMock(t)
	setupEnv(t, mock)

	out, err := execute(t, "", "domains")
	require.NoError(t, err)
	require.Contains(t, out, "Found 3 domains")
	require.Contains(t, out, "1. "+mock.DomainURL("a"))
}

func TestDomains_All(t *testing.T) {
	mock := newMock(t)
	setupEnv(t, mock)

	out, err := execute(t, "", "domains", "--all")
	require.NoError(t, err)
	require.Contains(t, out, "   1. "+mock.DomainURL("a"))
	require.Contains(t, out, "   3. "+mock.DomainURL("c"))
	require.NotContains(t, out, "Found")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{" yes \n", true},
		{"yes", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirm(strings.NewReader(tt.input), &out, "Go? ")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, "\nGo? ", out.String())
		})
	}
}

func TestConfirm_ReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := confirm(iotest.ErrReader(boom), &bytes.Buffer{}, "Go? ")
	require.ErrorIs(t, err, boom)
}
