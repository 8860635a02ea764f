package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

type SQLProvider struct {
	db *sqlx.DB

	logger *slog.Logger
}

func NewSQLProvider(driverName string, dataSource string) (provider *SQLProvider) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil
	}

	logger := slog.With("component", "storage", "backend", driverName)

	return &SQLProvider{
		db:     db,
		logger: logger,
	}
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// tenantRow carries the map key alongside the record for scanning.
type tenantRow struct {
	TenantID string `db:"tenant_id"`
	Tenant
}

func (p *SQLProvider) LoadTenants(ctx context.Context) (map[string]Tenant, error) {
	var rows []tenantRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT tenant_id, name, hwid, resource_url, usage_count, max_usage,
		       status, last_access_time, expiry_date
		FROM tenants`)
	if err != nil {
		return nil, fmt.Errorf("load tenants: %w", err)
	}

	tenants := make(map[string]Tenant, len(rows))
	for _, row := range rows {
		tenants[row.TenantID] = row.Tenant
	}
	return tenants, nil
}

// SaveTenants replaces the whole tenant table in one transaction, keeping
// the same whole-table semantics as the file backend.
func (p *SQLProvider) SaveTenants(ctx context.Context, tenants map[string]Tenant) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tenants: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tenants`); err != nil {
		return fmt.Errorf("clear tenant table: %w", err)
	}

	for tenantID, tenant := range tenants {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO tenants (tenant_id, name, hwid, resource_url, usage_count,
			                     max_usage, status, last_access_time, expiry_date)
			VALUES (:tenant_id, :name, :hwid, :resource_url, :usage_count,
			        :max_usage, :status, :last_access_time, :expiry_date)`,
			tenantRow{TenantID: tenantID, Tenant: tenant})
		if err != nil {
			return fmt.Errorf("insert tenant %s: %w", tenantID, err)
		}
	}

	return tx.Commit()
}

func (p *SQLProvider) AppendRequest(ctx context.Context, req AccessRequest) error {
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO access_requests (hwid, hostname, os, submitted_at, status)
		VALUES (:hwid, :hostname, :os, :submitted_at, :status)`, req)
	if err != nil {
		return fmt.Errorf("append request: %w", err)
	}
	return nil
}

func (p *SQLProvider) UpdateRequestStatus(ctx context.Context, hwid string, status ReviewStatus) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE access_requests SET status = ? WHERE hwid = ?`, status, hwid)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}

func (p *SQLProvider) ListRequests(ctx context.Context) ([]AccessRequest, error) {
	var requests []AccessRequest
	err := p.db.SelectContext(ctx, &requests, `
		SELECT hwid, hostname, os, submitted_at, status
		FROM access_requests
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}
