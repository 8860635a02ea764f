package storage

import (
	"context"
	"log/slog"

	"device-access-control/internal/config"
)

// Provider persists the tenant table and the request ledger.
//
// The tenant table is whole-table replace only: callers load the full map,
// mutate it, and save it back. The provider gives no atomicity across
// LoadTenants/SaveTenants; the authorization service serializes every
// read-modify-write cycle behind its own lock.
//
// The ledger is append plus in-place status rewrite. AppendRequest does not
// deduplicate; the caller is expected to have checked for an existing entry
// for the HWID first.
type Provider interface {
	Close() error

	// Tenant table
	LoadTenants(ctx context.Context) (map[string]Tenant, error)
	SaveTenants(ctx context.Context, tenants map[string]Tenant) error

	// Request ledger
	AppendRequest(ctx context.Context, req AccessRequest) error
	UpdateRequestStatus(ctx context.Context, hwid string, status ReviewStatus) error
	ListRequests(ctx context.Context) ([]AccessRequest, error)
}

func NewProvider(config *config.Storage) Provider {
	switch {
	case config.SQLite != nil:
		provider := NewSQLiteProvider(config)
		if provider == nil {
			return nil
		}
		if err := provider.runMigrations("sqlite3"); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			return nil
		}
		return provider

	case config.File != nil:
		provider, err := NewFileProvider(config.File.Dir)
		if err != nil {
			slog.Error("Failed to initialize file storage", "error", err, "dir", config.File.Dir)
			return nil
		}
		return provider

	default:
		slog.Error("Unsupported storage configuration", "config", config)
	}

	return nil
}
