package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// ErrPublish matches every *PublishError.
var ErrPublish = errors.New("publish failed")

// PublishError reports a failure to stage or promote the build output.
type PublishError struct {
	Op  string
	Dir string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s %s: %v", e.Op, e.Dir, e.Err)
}

func (e *PublishError) Unwrap() error                   { return e.Err }
func (e *PublishError) Is(target error) bool            { return target == ErrPublish }
func (e *PublishError) Category() ferrors.ErrorCategory { return ferrors.CategoryFileSystem }

// stagingDir returns the sibling directory a build writes into.
func stagingDir(output, buildID string) string {
	return filepath.Clean(output) + ".staging-" + buildID
}

// backupDir holds the previous output while the staging directory is promoted.
func backupDir(output string) string {
	return filepath.Clean(output) + ".prev"
}

// beginStaging creates an empty staging directory for buildID.
func beginStaging(output, buildID string) (string, error) {
	dir := stagingDir(output, buildID)
	if err := os.RemoveAll(dir); err != nil {
		return "", &PublishError{Op: "clean staging", Dir: dir, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &PublishError{Op: "create staging", Dir: dir, Err: err}
	}
	slog.Debug("Initialized staging directory", logfields.Path(dir))
	return dir, nil
}

// promote replaces output with staging:
//  1. Remove a stale backup and move the current output (if any) to the backup path.
//  2. Rename staging to output, restoring the backup if that fails.
//  3. Remove the backup unless keepBackup is set.
func promote(staging, output string, keepBackup bool) error {
	if _, err := os.Stat(staging); err != nil {
		return &PublishError{Op: "stat staging", Dir: staging, Err: err}
	}
	prev := backupDir(output)
	if err := os.RemoveAll(prev); err != nil {
		return &PublishError{Op: "remove backup", Dir: prev, Err: err}
	}

	hadOutput := false
	if _, err := os.Stat(output); err == nil {
		if err := os.Rename(output, prev); err != nil {
			return &PublishError{Op: "backup output", Dir: output, Err: err}
		}
		hadOutput = true
	}
	if err := os.Rename(staging, output); err != nil {
		if hadOutput {
			if rerr := os.Rename(prev, output); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(prev), logfields.Error(rerr))
			}
		}
		return &PublishError{Op: "promote staging", Dir: staging, Err: err}
	}
	if hadOutput && !keepBackup {
		if err := os.RemoveAll(prev); err != nil {
			slog.Warn("Failed to remove previous output backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	slog.Info("Promoted staging directory", logfields.Path(output))
	return nil
}

// abortStaging removes a staging directory after a failed build.
func abortStaging(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", logfields.Path(dir), logfields.Error(err))
		return
	}
	slog.Debug("Removed staging directory after abort", logfields.Path(dir))
}

// copyTree copies the regular files under src into dst, preserving relative paths.
// A missing src is not an error.
func copyTree(src, dst string) (int, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	n := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(p, target); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src is walked from the configured static directory.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
