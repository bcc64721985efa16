package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// maxCollisionSuffix bounds the numeric suffix probed when the
// destination name is taken.
const maxCollisionSuffix = 100

// Executor applies approved plans to the filesystem under a fixed
// archive root. All destinations are resolved relative to that root;
// the validator has already refused anything that escapes it.
type Executor struct {
	archiveRoot string
}

// NewExecutor creates an executor rooted at archiveRoot.
func NewExecutor(archiveRoot string) *Executor {
	return &Executor{archiveRoot: archiveRoot}
}

// ArchiveRoot returns the root all destinations resolve against.
func (e *Executor) ArchiveRoot() string {
	return e.archiveRoot
}

// Target resolves the plan's destination path under the archive root.
func (e *Executor) Target(plan *domain.RenamePlan) string {
	return filepath.Join(e.archiveRoot, filepath.FromSlash(plan.DestDir), plan.NewName)
}

// Apply moves the plan's source file to its destination. With dryRun
// set nothing touches the filesystem and a nil outcome is returned
// alongside the path the move would have used. The real-move outcome
// is always usable; Apply never panics on filesystem errors, it
// records them.
func (e *Executor) Apply(rec domain.FileRecord, plan *domain.RenamePlan, dryRun bool) (string, *domain.MoveOutcome) {
	destDir := filepath.Join(e.archiveRoot, filepath.FromSlash(plan.DestDir))
	target := filepath.Join(destDir, plan.NewName)

	if dryRun {
		logger.Info("[dry-run] %s -> %s", rec.Path, target)
		return target, nil
	}

	final, conflictResolved, err := SafeMove(rec.Path, destDir, plan.NewName)
	if err != nil {
		logger.Warn("move failed for %s: %v", rec.Path, err)
		return target, &domain.MoveOutcome{
			Status:      domain.MoveFailed,
			Src:         rec.Path,
			OriginalDst: target,
			Err:         err.Error(),
		}
	}

	logger.Info("moved %s -> %s", rec.Path, final)
	return final, &domain.MoveOutcome{
		Status:           domain.MoveSuccess,
		Src:              rec.Path,
		OriginalDst:      target,
		Dst:              final,
		ConflictResolved: conflictResolved,
	}
}

// SafeMove moves src into destDir under newName, creating destDir as
// needed. On a name collision it probes "stem_1.ext" through
// "stem_100.ext" and reports whether a suffix was used; past that it
// gives up with ErrCollisionUnresolved.
func SafeMove(src, destDir, newName string) (finalPath string, conflictResolved bool, err error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", false, fmt.Errorf("stat source %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", false, fmt.Errorf("source %s is not a regular file: %w", src, domain.ErrInvalidInput)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating destination %s: %w", destDir, err)
	}

	target, conflictResolved, err := resolveCollision(destDir, newName)
	if err != nil {
		return "", false, err
	}

	if err := moveFile(src, target); err != nil {
		return "", false, err
	}
	return target, conflictResolved, nil
}

// resolveCollision picks the first free name in destDir, suffixing the
// stem when the proposed name is taken.
func resolveCollision(destDir, name string) (string, bool, error) {
	candidate := filepath.Join(destDir, name)
	if _, err := os.Lstat(candidate); os.IsNotExist(err) {
		return candidate, false, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, true, nil
		}
	}
	return "", false, fmt.Errorf("no free name for %s in %s after %d attempts: %w",
		name, destDir, maxCollisionSuffix, domain.ErrCollisionUnresolved)
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("renaming %s: %w", src, err)
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing source after copy %s: %w", src, err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, syscall.EXDEV)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}
