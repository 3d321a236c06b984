package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"

	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
)

var ErrNotDirectory = errors.New("path is not a folder")

type Walker struct {
	fs         afero.Fs
	exclusions map[string]struct{}
}

func NewWalker(fs afero.Fs) *Walker {
	return &Walker{
		fs: fs,
		exclusions: map[string]struct{}{
			".git":         {},
			"node_modules": {},
			".cache":       {},
		},
	}
}

// Walk sends a record for every regular file under req.RootPath and closes
// out when the traversal ends, successfully or not. Unreadable entries below
// the root are logged and skipped; a root that cannot be read is an error.
// It returns the number of records sent.
func (walker *Walker) Walk(ctx context.Context, req ScanRequest, out chan<- domain.FileRecord, progress chan<- ScanProgress) (int64, error) {
	defer close(out)

	logger := logging.FromContext(ctx)
	root, err := walker.resolveRoot(cleanPath(req.RootPath))
	if err != nil {
		return 0, fmt.Errorf("scanning folder `%s`: %w", cleanPath(req.RootPath), err)
	}

	extra := make(map[string]struct{}, len(req.Exclude))
	for _, name := range req.Exclude {
		extra[name] = struct{}{}
	}

	heartbeat := rate.Sometimes{Interval: 2 * time.Second}
	var scanned int64
	walkErr := afero.Walk(walker.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if path != root && isPermissionErr(err) {
				logger.Warn("skipping unreadable path", "path", path, "err", err)
				progressNonBlocking(progress, ScanProgress{Stage: StageWalking, Files: scanned, ErrMessage: err.Error()})
				return nil
			}
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if path != root {
			name := info.Name()
			_, excluded := extra[name]
			if !req.ShowHidden && (isHidden(name) || walker.isExcluded(name)) {
				excluded = true
			}
			if excluded {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		record := domain.FileRecord{
			Path:      path,
			Size:      uint64(info.Size()),
			CreatedAt: info.ModTime(),
		}
		select {
		case out <- record:
		case <-ctx.Done():
			return ctx.Err()
		}

		scanned++
		if scanned%50 == 0 {
			progressNonBlocking(progress, ScanProgress{Stage: StageWalking, Files: scanned, Current: path})
		}
		heartbeat.Do(func() {
			logger.Debug("walking", "files", scanned, "current", path)
		})
		return nil
	})
	if walkErr != nil {
		return scanned, fmt.Errorf("scanning folder `%s`: %w", root, walkErr)
	}
	logger.Info("scanning finished", "root", root, "files", scanned)
	return scanned, nil
}

// resolveRoot returns the folder to traverse. The traversal does not follow
// symlinks, so a linked root is replaced by its target on the OS filesystem
// and rejected elsewhere.
func (walker *Walker) resolveRoot(root string) (string, error) {
	info, err := walker.fs.Stat(root)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}
	lstater, ok := walker.fs.(afero.Lstater)
	if !ok {
		return root, nil
	}
	linfo, _, err := lstater.LstatIfPossible(root)
	if err != nil {
		return "", err
	}
	if linfo.Mode()&fs.ModeSymlink == 0 {
		return root, nil
	}
	if _, isOS := walker.fs.(*afero.OsFs); !isOS {
		return "", ErrNotDirectory
	}
	return filepath.EvalSymlinks(root)
}

func (walker *Walker) isExcluded(name string) bool {
	_, excluded := walker.exclusions[name]
	return excluded
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean
	}
	return abs
}

func isPermissionErr(err error) bool {
	return errors.Is(err, os.ErrPermission)
}
