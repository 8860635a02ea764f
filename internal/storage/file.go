package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	tenantsFilename  = "tenants.json"
	requestsFilename = "requests.txt"

	// Ledger field delimiter. Field values are not expected to contain it.
	ledgerSeparator = "|"
)

// FileProvider stores the tenant table as a single JSON document and the
// request ledger as delimited lines, one entry per line in the fixed order
// hwid|hostname|os|timestamp|status. Writes replace the whole file through
// a temp-file rename so readers always see a complete document.
type FileProvider struct {
	dir string

	logger *slog.Logger
}

func NewFileProvider(dir string) (*FileProvider, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &FileProvider{
		dir:    dir,
		logger: slog.With("component", "storage", "backend", "file"),
	}, nil
}

func (p *FileProvider) Close() error {
	return nil
}

func (p *FileProvider) tenantsPath() string {
	return filepath.Join(p.dir, tenantsFilename)
}

func (p *FileProvider) requestsPath() string {
	return filepath.Join(p.dir, requestsFilename)
}

// LoadTenants returns the full tenant table. A missing or unparseable file
// yields an empty table rather than an error: the table is re-created on
// the next save, and losing a request over a corrupt file is the worse
// trade. Other read failures propagate.
func (p *FileProvider) LoadTenants(ctx context.Context) (map[string]Tenant, error) {
	data, err := os.ReadFile(p.tenantsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Tenant{}, nil
		}
		return nil, fmt.Errorf("read tenant table: %w", err)
	}

	tenants := map[string]Tenant{}
	if err := json.Unmarshal(data, &tenants); err != nil {
		p.logger.Warn("Tenant table unparseable, treating as empty", "error", err)
		return map[string]Tenant{}, nil
	}

	return tenants, nil
}

func (p *FileProvider) SaveTenants(ctx context.Context, tenants map[string]Tenant) error {
	data, err := json.MarshalIndent(tenants, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tenant table: %w", err)
	}

	return p.writeFileAtomic(p.tenantsPath(), append(data, '\n'))
}

func (p *FileProvider) AppendRequest(ctx context.Context, req AccessRequest) error {
	f, err := os.OpenFile(p.requestsPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open request ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatRequestLine(req) + "\n"); err != nil {
		return fmt.Errorf("append to request ledger: %w", err)
	}

	return nil
}

// UpdateRequestStatus rewrites the status field of the first ledger line
// whose hwid matches, leaving every other line untouched. A missing entry
// is a no-op, not an error.
func (p *FileProvider) UpdateRequestStatus(ctx context.Context, hwid string, status ReviewStatus) error {
	data, err := os.ReadFile(p.requestsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read request ledger: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	updated := false
	for i, line := range lines {
		if updated || !strings.HasPrefix(line, hwid+ledgerSeparator) {
			continue
		}
		parts := strings.Split(line, ledgerSeparator)
		if len(parts) < 4 {
			continue
		}
		lines[i] = strings.Join(append(parts[:4], string(status)), ledgerSeparator)
		updated = true
	}

	if !updated {
		return nil
	}

	return p.writeFileAtomic(p.requestsPath(), []byte(strings.Join(lines, "\n")))
}

// ListRequests parses every well-formed ledger line in file order. Lines
// with fewer than four fields are skipped.
func (p *FileProvider) ListRequests(ctx context.Context) ([]AccessRequest, error) {
	data, err := os.ReadFile(p.requestsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read request ledger: %w", err)
	}

	var requests []AccessRequest
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		req, ok := parseRequestLine(line)
		if !ok {
			p.logger.Warn("Skipping malformed ledger line", "line", line)
			continue
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func formatRequestLine(req AccessRequest) string {
	return strings.Join([]string{
		req.HWID,
		req.Hostname,
		req.OS,
		req.SubmittedAt.UTC().Format(time.RFC3339),
		string(req.Status),
	}, ledgerSeparator)
}

func parseRequestLine(line string) (AccessRequest, bool) {
	parts := strings.Split(line, ledgerSeparator)
	if len(parts) < 4 {
		return AccessRequest{}, false
	}

	req := AccessRequest{
		HWID:     parts[0],
		Hostname: parts[1],
		OS:       parts[2],
		Status:   ReviewStatusPending,
	}

	if t, err := time.Parse(time.RFC3339, parts[3]); err == nil {
		req.SubmittedAt = t
	}

	// Trailing status field defaults to pending when absent.
	if len(parts) >= 5 && strings.TrimSpace(parts[4]) != "" {
		req.Status = ReviewStatus(strings.TrimSpace(parts[4]))
	}

	return req, true
}

func (p *FileProvider) writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(p.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	return nil
}
