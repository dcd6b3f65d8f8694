// Package ledger tracks which content identities have already been processed.
//
// The ledger is the single source of truth for "already processed". It is a
// newline-delimited file of hex digests, loaded fully into memory at open and
// appended to as images reach a terminal outcome. An identity present in the
// ledger is never reprocessed, whether the original run succeeded or failed.
package ledger

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/objectscan/objectscan-go/internal/errors"
	"github.com/objectscan/objectscan-go/internal/imagehash"
	"github.com/objectscan/objectscan-go/internal/logging"
)

// Ledger is a durable append-only set of content identities.
type Ledger struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	file   *os.File
	logger *slog.Logger
}

// Open loads the ledger file at path into memory and opens it for appending.
// A missing file is not an error, the ledger starts empty. Entries that do not
// parse as a full-length digest (for example a truncated last line from an
// interrupted run) are skipped rather than failing the whole load.
func Open(path string) (*Ledger, error) {
	logger := logging.ForService("ledger")
	if logger == nil {
		logger = slog.Default().With("service", "ledger")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Component("ledger").
				Category(errors.CategoryLedger).
				Context("path", path).
				Build()
		}
	}

	seen := make(map[string]struct{})
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		dropped := 0
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !imagehash.Valid(line) {
				dropped++
				continue
			}
			seen[line] = struct{}{}
		}
		scanErr := scanner.Err()
		if closeErr := f.Close(); closeErr != nil && scanErr == nil {
			scanErr = closeErr
		}
		if scanErr != nil {
			return nil, errors.New(scanErr).
				Component("ledger").
				Category(errors.CategoryLedger).
				Context("path", path).
				Build()
		}
		if dropped > 0 {
			logger.Warn("dropped malformed ledger entries", "path", path, "count", dropped)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.New(err).
			Component("ledger").
			Category(errors.CategoryLedger).
			Context("path", path).
			Build()
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.New(err).
			Component("ledger").
			Category(errors.CategoryLedger).
			Context("path", path).
			Build()
	}

	return &Ledger{
		seen:   seen,
		file:   file,
		logger: logger,
	}, nil
}

// Contains reports whether the identity has already been processed.
func (l *Ledger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Record appends the identity to the ledger and syncs it to disk before
// returning. Recording an identity that is already present is a no-op, so
// duplicate appends are harmless.
func (l *Ledger) Record(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return nil
	}

	if _, err := l.file.WriteString(id + "\n"); err != nil {
		return errors.New(err).
			Component("ledger").
			Category(errors.CategoryLedger).
			Context("identity", id).
			Build()
	}
	if err := l.file.Sync(); err != nil {
		return errors.New(err).
			Component("ledger").
			Category(errors.CategoryLedger).
			Context("identity", id).
			Build()
	}

	l.seen[id] = struct{}{}
	return nil
}

// Len returns the number of identities currently known to the ledger.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Close closes the underlying ledger file.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
