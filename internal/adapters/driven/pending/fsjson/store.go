// Package fsjson persists pending plans as JSON artifacts on disk, one
// file per plan. Artifacts are human-readable and survive restarts, so
// an operator can inspect or resolve them out of band.
package fsjson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// quarantineDirName is the subdirectory holding quarantined artifacts.
const quarantineDirName = "quarantine"

// Store writes one <id>.json artifact per pending plan under dir.
type Store struct {
	dir string
}

var _ driven.PendingStore = (*Store)(nil)

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("pending directory is required: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating pending directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the artifact and returns its path.
func (s *Store) Save(_ context.Context, plan domain.PendingPlan) (string, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling pending plan: %w", err)
	}

	path := s.artifactPath(plan.ID)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing pending artifact: %w", err)
	}

	return path, nil
}

// List returns all unresolved artifacts, newest first. Unreadable
// artifacts are logged and skipped so one corrupt file cannot hide the
// rest of the queue.
func (s *Store) List(_ context.Context) ([]domain.PendingPlan, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading pending directory: %w", err)
	}

	var plans []domain.PendingPlan
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		plan, err := s.readArtifact(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			logger.Warn("Skipping unreadable pending artifact %s: %v", entry.Name(), err)
			continue
		}
		plans = append(plans, *plan)
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
	return plans, nil
}

// Get returns one artifact by ID.
func (s *Store) Get(_ context.Context, id string) (*domain.PendingPlan, error) {
	plan, err := s.readArtifact(s.artifactPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("pending plan %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes a resolved artifact.
func (s *Store) Delete(_ context.Context, id string) error {
	err := os.Remove(s.artifactPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("pending plan %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting pending artifact: %w", err)
	}
	return nil
}

// Quarantine moves the artifact into the quarantine subdirectory.
func (s *Store) Quarantine(_ context.Context, id string) error {
	src := s.artifactPath(id)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return fmt.Errorf("pending plan %s: %w", id, domain.ErrNotFound)
	}

	quarantineDir := filepath.Join(s.dir, quarantineDirName)
	if err := os.MkdirAll(quarantineDir, 0o755); err != nil {
		return fmt.Errorf("creating quarantine directory: %w", err)
	}

	dst := filepath.Join(quarantineDir, id+".json")
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("quarantining pending artifact: %w", err)
	}
	return nil
}

// Prune deletes artifacts older than the given age.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	plans, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, plan := range plans {
		if !plan.CreatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(s.artifactPath(plan.ID)); err != nil {
			return removed, fmt.Errorf("pruning pending artifact %s: %w", plan.ID, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) artifactPath(id string) string {
	// IDs may arrive from user input; strip any path components.
	return filepath.Join(s.dir, filepath.Base(id)+".json")
}

func (s *Store) readArtifact(path string) (*domain.PendingPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan domain.PendingPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing pending artifact %s: %w", filepath.Base(path), err)
	}
	return &plan, nil
}
