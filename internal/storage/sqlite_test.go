package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"device-access-control/internal/config"
)

func newSQLiteProvider(t *testing.T) Provider {
	t.Helper()

	// Not :memory:, every pooled connection would get its own empty database.
	provider := NewProvider(&config.Storage{
		SQLite: &config.SQLLiteStorage{Path: filepath.Join(t.TempDir(), "storage.db")},
	})
	require.NotNil(t, provider)
	t.Cleanup(func() { provider.Close() })
	return provider
}

func TestSQLiteSaveLoadTenants(t *testing.T) {
	provider := newSQLiteProvider(t)
	ctx := context.Background()

	want := map[string]Tenant{
		"TENANT_1": {
			Name:           "Acme",
			HWID:           "HW1",
			ResourceURL:    "http://x/jar",
			Status:         TenantStatusEnabled,
			LastAccessTime: 1000,
			ExpiryDate:     2000,
		},
	}
	require.NoError(t, provider.SaveTenants(ctx, want))

	got, err := provider.LoadTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Save replaces the whole table
	require.NoError(t, provider.SaveTenants(ctx, map[string]Tenant{
		"TENANT_2": {HWID: "HW2", Status: TenantStatusEnabled},
	}))

	got, err = provider.LoadTenants(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got, "TENANT_2")
}

func TestSQLiteRequestLedger(t *testing.T) {
	provider := newSQLiteProvider(t)
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

	require.NoError(t, provider.UpdateRequestStatus(ctx, "HW1", ReviewStatusDenied))
	require.NoError(t, provider.UpdateRequestStatus(ctx, "missing", ReviewStatusApproved))

	requests, err := provider.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "HW1", requests[0].HWID)
	assert.Equal(t, ReviewStatusDenied, requests[0].Status)
	assert.Equal(t, "HW2", requests[1].HWID)
	assert.Equal(t, ReviewStatusPending, requests[1].Status)
}
