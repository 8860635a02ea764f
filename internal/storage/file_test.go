package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileProvider(t *testing.T) (*FileProvider, string) {
	t.Helper()

	dir := t.TempDir()
	provider, err := NewFileProvider(dir)
	require.NoError(t, err)
	return provider, dir
}

func TestLoadTenantsMissingFile(t *testing.T) {
	provider, _ := newFileProvider(t)

	tenants, err := provider.LoadTenants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestLoadTenantsCorruptFile(t *testing.T) {
	provider, dir := newFileProvider(t)

	err := os.WriteFile(filepath.Join(dir, tenantsFilename), []byte("{not json"), 0o644)
	require.NoError(t, err)

	tenants, err := provider.LoadTenants(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestSaveLoadTenantsRoundTrip(t *testing.T) {
	provider, _ := newFileProvider(t)
	ctx := context.Background()

	want := map[string]Tenant{
		"TENANT_1": {
			Name:        "Acme",
			HWID:        "HW1",
			ResourceURL: "http://x/jar",
			Status:      TenantStatusEnabled,
			ExpiryDate:  1234,
		},
		"TENANT_2": {
			Name:   "Beta",
			HWID:   "HW2",
			Status: TenantStatusDisabled,
		},
	}
	require.NoError(t, provider.SaveTenants(ctx, want))

	got, err := provider.LoadTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAppendAndListRequests(t *testing.T) {
	provider, _ := newFileProvider(t)
	ctx := context.Background()

	submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, provider.AppendRequest(ctx, AccessRequest{
		HWID: "HW1", Hostname: "host1", OS: "win",
		SubmittedAt: submitted, Status: ReviewStatusPending,
	}))
	require.NoError(t, provider.AppendRequest(ctx, AccessRequest{
		HWID: "HW2", Hostname: "host2", OS: "linux",
		SubmittedAt: submitted, Status: ReviewStatusPending,
	}))

	requests, err := provider.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 2)

	assert.Equal(t, "HW1", requests[0].HWID)
	assert.Equal(t, "host1", requests[0].Hostname)
	assert.Equal(t, "win", requests[0].OS)
	assert.Equal(t, submitted, requests[0].SubmittedAt)
	assert.Equal(t, ReviewStatusPending, requests[0].Status)
	assert.Equal(t, "HW2", requests[1].HWID)
}

func TestListRequestsSkipsMalformedLines(t *testing.T) {
	provider, dir := newFileProvider(t)

	content := strings.Join([]string{
		"HW1|host1|win|2026-03-01T12:00:00Z|pending",
		"garbage line",
		"HW2|host2",
		"HW3|host3|linux|2026-03-01T13:00:00Z|approved",
		"",
	}, "\n")
	err := os.WriteFile(filepath.Join(dir, requestsFilename), []byte(content), 0o644)
	require.NoError(t, err)

	requests, err := provider.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "HW1", requests[0].HWID)
	assert.Equal(t, "HW3", requests[1].HWID)
	assert.Equal(t, ReviewStatusApproved, requests[1].Status)
}

func TestListRequestsDefaultsStatusToPending(t *testing.T) {
	provider, dir := newFileProvider(t)

	content := "HW1|host1|win|2026-03-01T12:00:00Z\n"
	err := os.WriteFile(filepath.Join(dir, requestsFilename), []byte(content), 0o644)
	require.NoError(t, err)

	requests, err := provider.ListRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, ReviewStatusPending, requests[0].Status)
}

func TestUpdateRequestStatusRewritesInPlace(t *testing.T) {
	provider, dir := newFileProvider(t)
	ctx := context.Background()

	submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, hwid := range []string{"HW1", "HW2", "HW3"} {
		require.NoError(t, provider.AppendRequest(ctx, AccessRequest{
			HWID: hwid, Hostname: "host", OS: "win",
			SubmittedAt: submitted, Status: ReviewStatusPending,
		}))
	}

	require.NoError(t, provider.UpdateRequestStatus(ctx, "HW2", ReviewStatusDenied))

	// Order preserved, other lines untouched
	data, err := os.ReadFile(filepath.Join(dir, requestsFilename))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "HW1|host|win|2026-03-01T12:00:00Z|pending", lines[0])
	assert.Equal(t, "HW2|host|win|2026-03-01T12:00:00Z|denied", lines[1])
	assert.Equal(t, "HW3|host|win|2026-03-01T12:00:00Z|pending", lines[2])
}

func TestUpdateRequestStatusUnknownHWIDIsNoop(t *testing.T) {
	provider, _ := newFileProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.UpdateRequestStatus(ctx, "HW1", ReviewStatusDenied))

	require.NoError(t, provider.AppendRequest(ctx, AccessRequest{
		HWID: "HW2", Hostname: "host", OS: "win",
		SubmittedAt: time.Now(), Status: ReviewStatusPending,
	}))
	require.NoError(t, provider.UpdateRequestStatus(ctx, "HW1", ReviewStatusDenied))

	requests, err := provider.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, ReviewStatusPending, requests[0].Status)
}

// HW1 must not match a longer HWID sharing the prefix.
func TestUpdateRequestStatusMatchesWholeHWID(t *testing.T) {
	provider, _ := newFileProvider(t)
	ctx := context.Background()

	require.NoError(t, provider.AppendRequest(ctx, AccessRequest{
		HWID: "HW10", Hostname: "host", OS: "win",
		SubmittedAt: time.Now(), Status: ReviewStatusPending,
	}))

	require.NoError(t, provider.UpdateRequestStatus(ctx, "HW1", ReviewStatusDenied))

	requests, err := provider.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, ReviewStatusPending, requests[0].Status)
}
