package uploads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	id "pastcheck/pkg/domain"
	"pastcheck/pkg/platform/sentinel"
)

// Store persists submitted photos on disk under a retention policy. Uploaded
// images are deleted after the retention period regardless of job outcome.
type Store struct {
	dir       string
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New creates the upload store, ensuring the directory exists.
func New(dir string, retention time.Duration, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, retention: retention, logger: logger, now: time.Now}, nil
}

// Save writes a validated photo and returns its reference. The caller has
// already enforced size and content-type limits.
func (s *Store) Save(jobID id.JobID, data []byte) (string, error) {
	ref := filepath.Join(s.dir, jobID.String()+".img")
	if err := os.WriteFile(ref, data, 0o600); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return ref, nil
}

// Read returns the stored photo bytes for a reference.
func (s *Store) Read(ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if errors.Is(err, os.ErrNotExist) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

// Delete removes a stored photo. Missing files are not an error.
func (s *Store) Delete(ref string) error {
	err := os.Remove(ref)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// Sweep removes uploads older than the retention period. Returns the number
// of files removed.
func (s *Store) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("sweep uploads: %w", err)
	}
	cutoff := s.now().Add(-s.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Janitor sweeps expired uploads on the given interval until the context is
// cancelled.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep()
			if err != nil {
				s.logger.ErrorContext(ctx, "upload sweep failed", "error", err.Error())
				continue
			}
			if removed > 0 {
				s.logger.InfoContext(ctx, "expired uploads removed", "count", removed)
			}
		}
	}
}
