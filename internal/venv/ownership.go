package venv

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// chownTimeout bounds the recursive chown.
const chownTimeout = 2 * time.Minute

// maxForeignReported caps how many foreign-owned paths a scan returns.
const maxForeignReported = 20

// execCommand builds commands, swappable in tests.
var execCommand = exec.CommandContext

// OwnershipReport describes who owns the venv tree.
type OwnershipReport struct {
	// OwnerUID is the uid owning the venv root.
	OwnerUID int

	// CurrentUID is the uid of the user running the CLI.
	CurrentUID int

	// Foreign lists paths inside the venv owned by someone else,
	// capped at a handful for display.
	Foreign []string

	// ForeignCount is the total number of foreign-owned paths found.
	ForeignCount int
}

// Clean reports whether the whole tree belongs to the current user.
func (r *OwnershipReport) Clean() bool {
	return r.OwnerUID == r.CurrentUID && r.ForeignCount == 0
}

// CheckOwnership walks the venv and reports files not owned by the
// current user. A sudo-run pip install is the usual culprit.
//
// Parameters:
//   - venvPath: The venv root
//
// Returns:
//   - *OwnershipReport: The ownership report
//   - error: An error if the venv cannot be walked
func CheckOwnership(venvPath string) (*OwnershipReport, error) {
	report := &OwnershipReport{CurrentUID: os.Getuid()}

	rootInfo, err := os.Stat(venvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", venvPath, err)
	}
	report.OwnerUID = fileUID(rootInfo)

	err = filepath.WalkDir(venvPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are themselves an ownership smell,
			// count them and move on.
			report.ForeignCount++
			if len(report.Foreign) < maxForeignReported {
				report.Foreign = append(report.Foreign, path)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if fileUID(info) != report.CurrentUID {
			report.ForeignCount++
			if len(report.Foreign) < maxForeignReported {
				report.Foreign = append(report.Foreign, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", venvPath, err)
	}

	return report, nil
}

// fileUID extracts the owning uid from file info.
func fileUID(info fs.FileInfo) int {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return int(stat.Uid)
	}
	return os.Getuid()
}

// FixOwnership chowns the venv tree back to the current user via sudo.
//
// Parameters:
//   - ctx: Context for cancellation
//   - venvPath: The venv root
//
// Returns:
//   - error: An error if the chown fails
func FixOwnership(ctx context.Context, venvPath string) error {
	ctx, cancel := context.WithTimeout(ctx, chownTimeout)
	defer cancel()

	target := fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
	cmd := execCommand(ctx, "sudo", "chown", "-R", target, venvPath)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("chown failed: %s", msg)
	}
	return nil
}
