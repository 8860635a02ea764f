// Package authz implements the device authorization state machine.
//
// Devices identify themselves by hardware identifier (HWID). A never-seen
// HWID lands in the request ledger as pending; an administrator approves it
// into the tenant table or denies it. Denial revokes any prior approval
// outright. All state transitions run under a single store-wide write lock
// so the whole-table load-mutate-save cycle never loses updates.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"device-access-control/internal/storage"
)

var (
	ErrHWIDRequired   = errors.New("hwid is required")
	ErrInvalidTenants = errors.New("invalid tenant data")
)

// Name given to tenants approved without an explicit display name.
const defaultTenantName = "unnamed device"

// Decision is the outcome of a device access request.
type Decision struct {
	Authorized bool
	Denied     bool
}

type GrantStatus string

const (
	GrantActive  GrantStatus = "active"
	GrantExpired GrantStatus = "expired"
	GrantInvalid GrantStatus = "invalid"
)

// Grant is the outcome of a resource fetch. ResourceURL is set only when
// Status is GrantActive.
type Grant struct {
	Status      GrantStatus
	ResourceURL string
}

type ApproveParams struct {
	HWID        string
	Name        string
	ResourceURL string
	// ExpiryDate is unix milliseconds, 0 means never expires.
	ExpiryDate int64
}

// Notifier is told about newly ledgered devices. Implementations must be
// safe for concurrent use; calls happen on their own goroutine.
type Notifier interface {
	RequestSubmitted(req storage.AccessRequest)
}

// Service is the authorization state machine over a storage provider.
//
// The mutex covers the full read-modify-write cycle of every mutating
// operation. Reads run under the shared lock. No lock is ever held across
// an external call.
type Service struct {
	store    storage.Provider
	notifier Notifier

	mu sync.RWMutex

	now    func() time.Time
	logger *slog.Logger
}

// NewService creates the state machine. notifier may be nil.
func NewService(store storage.Provider, notifier Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		logger:   slog.With("component", "authz"),
	}
}

// RequestAccess handles a device polling for authorization. Approved
// devices short-circuit without touching the ledger; denied devices stay
// denied until re-approved; unknown devices are ledgered as pending exactly
// once, no matter how often they poll.
func (s *Service) RequestAccess(ctx context.Context, hwid, hostname, os string) (Decision, error) {
	if hwid == "" {
		return Decision{}, ErrHWIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tenants, err := s.store.LoadTenants(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("request access: %w", err)
	}
	if _, _, ok := findTenantByHWID(tenants, hwid, true); ok {
		return Decision{Authorized: true}, nil
	}

	// Ledger reads fail open: a broken audit trail must not lock devices
	// out of the review queue.
	requests, err := s.store.ListRequests(ctx)
	if err != nil {
		s.logger.Warn("Request ledger unreadable, treating as empty", "error", err)
		requests = nil
	}

	seen := false
	for _, req := range requests {
		if req.HWID != hwid {
			continue
		}
		seen = true
		if req.Status == storage.ReviewStatusDenied {
			return Decision{Denied: true}, nil
		}
	}

	if !seen {
		req := storage.AccessRequest{
			HWID:        hwid,
			Hostname:    valueOrUnknown(hostname),
			OS:          valueOrUnknown(os),
			SubmittedAt: s.now().UTC(),
			Status:      storage.ReviewStatusPending,
		}
		if err := s.store.AppendRequest(ctx, req); err != nil {
			// Best-effort audit trail: the device still gets an
			// "awaiting review" answer.
			s.logger.Warn("Failed to append to request ledger", "hwid", hwid, "error", err)
		} else {
			s.logger.Info("New device awaiting review", "hwid", hwid, "hostname", req.Hostname)
			if s.notifier != nil {
				go s.notifier.RequestSubmitted(req)
			}
		}
	}

	return Decision{}, nil
}

// CheckAccess reports whether an enabled tenant record exists for the
// HWID. Pure read, no side effects.
func (s *Service) CheckAccess(ctx context.Context, hwid string) (bool, error) {
	if hwid == "" {
		return false, ErrHWIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants, err := s.store.LoadTenants(ctx)
	if err != nil {
		return false, fmt.Errorf("check access: %w", err)
	}

	_, _, ok := findTenantByHWID(tenants, hwid, true)
	return ok, nil
}

// Approve grants a device access, reusing the existing tenant identifier
// when the HWID was approved before (in whatever status the record is in)
// and minting a new one otherwise. Returns the tenant identifier used.
func (s *Service) Approve(ctx context.Context, params ApproveParams) (string, error) {
	if params.HWID == "" {
		return "", ErrHWIDRequired
	}

	name := params.Name
	if name == "" {
		name = defaultTenantName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tenants, err := s.store.LoadTenants(ctx)
	if err != nil {
		return "", fmt.Errorf("approve: %w", err)
	}

	tenantID, _, ok := findTenantByHWID(tenants, params.HWID, false)
	if !ok {
		tenantID = s.mintTenantID(tenants)
	}

	tenants[tenantID] = storage.Tenant{
		Name:           name,
		HWID:           params.HWID,
		ResourceURL:    params.ResourceURL,
		UsageCount:     0,
		MaxUsage:       0,
		Status:         storage.TenantStatusEnabled,
		LastAccessTime: s.now().UnixMilli(),
		ExpiryDate:     params.ExpiryDate,
	}

	if err := s.store.SaveTenants(ctx, tenants); err != nil {
		return "", fmt.Errorf("approve: %w", err)
	}

	if err := s.store.UpdateRequestStatus(ctx, params.HWID, storage.ReviewStatusApproved); err != nil {
		s.logger.Warn("Failed to mark ledger entry approved", "hwid", params.HWID, "error", err)
	}

	s.logger.Info("Device approved", "hwid", params.HWID, "tenant_id", tenantID)
	return tenantID, nil
}

// Deny marks the ledger entry denied and deletes any tenant record for the
// HWID outright. Idempotent: denying an unknown or already-denied HWID
// still succeeds.
func (s *Service) Deny(ctx context.Context, hwid string) error {
	if hwid == "" {
		return ErrHWIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpdateRequestStatus(ctx, hwid, storage.ReviewStatusDenied); err != nil {
		s.logger.Warn("Failed to mark ledger entry denied", "hwid", hwid, "error", err)
	}

	tenants, err := s.store.LoadTenants(ctx)
	if err != nil {
		return fmt.Errorf("deny: %w", err)
	}

	removed := false
	for tenantID, tenant := range tenants {
		if tenant.HWID == hwid {
			delete(tenants, tenantID)
			removed = true
		}
	}

	if removed {
		if err := s.store.SaveTenants(ctx, tenants); err != nil {
			return fmt.Errorf("deny: %w", err)
		}
	}

	s.logger.Info("Device denied", "hwid", hwid, "revoked_tenant", removed)
	return nil
}

// FetchResource is the resource release gate. Expiry is evaluated at read
// time only; an expired record stays enabled in storage and simply fails
// this check until an admin acts.
func (s *Service) FetchResource(ctx context.Context, hwid string) (Grant, error) {
	if hwid == "" {
		return Grant{}, ErrHWIDRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants, err := s.store.LoadTenants(ctx)
	if err != nil {
		return Grant{}, fmt.Errorf("fetch resource: %w", err)
	}

	_, tenant, ok := findTenantByHWID(tenants, hwid, true)
	if !ok {
		return Grant{Status: GrantInvalid}, nil
	}

	if tenant.ExpiryDate != 0 && s.now().UnixMilli() > tenant.ExpiryDate {
		return Grant{Status: GrantExpired}, nil
	}

	return Grant{Status: GrantActive, ResourceURL: tenant.ResourceURL}, nil
}

// SyncTenants replaces the whole tenant table.
func (s *Service) SyncTenants(ctx context.Context, tenants map[string]storage.Tenant) error {
	if tenants == nil {
		return ErrInvalidTenants
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveTenants(ctx, tenants); err != nil {
		return fmt.Errorf("sync tenants: %w", err)
	}

	s.logger.Info("Tenant table replaced", "count", len(tenants))
	return nil
}

func (s *Service) ListRequests(ctx context.Context) ([]storage.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.ListRequests(ctx)
}

func (s *Service) ListTenants(ctx context.Context) (map[string]storage.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.LoadTenants(ctx)
}

// mintTenantID generates a time-based identifier. Approvals are serialized
// under the write lock, so a same-millisecond collision only happens
// against a pre-existing record; fall back to a random identifier then.
func (s *Service) mintTenantID(tenants map[string]storage.Tenant) string {
	id := fmt.Sprintf("TENANT_%d", s.now().UnixMilli())
	if _, exists := tenants[id]; exists {
		id = "TENANT_" + uuid.NewString()
	}
	return id
}

// findTenantByHWID scans the table for a record with the HWID,
// optionally restricted to enabled records.
func findTenantByHWID(tenants map[string]storage.Tenant, hwid string, enabledOnly bool) (string, storage.Tenant, bool) {
	for tenantID, tenant := range tenants {
		if tenant.HWID != hwid {
			continue
		}
		if enabledOnly && tenant.Status != storage.TenantStatusEnabled {
			continue
		}
		return tenantID, tenant, true
	}
	return "", storage.Tenant{}, false
}

func valueOrUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}
