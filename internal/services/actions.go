package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"

	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
)

var ErrUnsupportedAction = errors.New("unsupported action")

type Applicator struct {
	fs   afero.Fs
	keep domain.KeepPolicy
}

func NewApplicator(fs afero.Fs, keep domain.KeepPolicy) *Applicator {
	if !keep.Valid() {
		keep = domain.KeepShortestPath
	}
	return &Applicator{fs: fs, keep: keep}
}

// Apply orders every group with the keep policy and performs action on all
// members but the first. Per-file failures are recorded on the result and do
// not stop the batch.
func (applicator *Applicator) Apply(ctx context.Context, groups []domain.DuplicateGroup, action Action) (ActionResult, error) {
	start := time.Now()
	result := ActionResult{Type: action.Type}

	switch action.Type {
	case domain.ActionReport, domain.ActionMove:
	case domain.ActionDelete:
		return result, fmt.Errorf("%w: %s is not implemented", ErrUnsupportedAction, action.Type)
	default:
		return result, fmt.Errorf("%w: %q", ErrUnsupportedAction, action.Type)
	}
	if len(groups) == 0 {
		result.Message = "no duplicates found"
		return result, nil
	}

	var err error
	switch action.Type {
	case domain.ActionReport:
		result = applicator.report(ctx, groups)
	case domain.ActionMove:
		result, err = applicator.move(ctx, groups, action.Destination)
	}
	result.Duration = time.Since(start)
	return result, err
}

func (applicator *Applicator) report(ctx context.Context, groups []domain.DuplicateGroup) ActionResult {
	logger := logging.FromContext(ctx)
	result := ActionResult{Type: domain.ActionReport, Groups: len(groups)}
	for _, group := range groups {
		ordered := Reorder(group, applicator.keep)
		kept := ordered.Members[0].Path()
		result.Kept = append(result.Kept, kept)
		logger.Info("duplicate group", "keep", kept, "files", len(ordered.Members), "size", ordered.Size, "digest", ordered.Digest)
		for _, member := range ordered.Members[1:] {
			logger.Info("duplicate to move", "path", member.Path(), "keep", kept)
			result.ReclaimableBytes += member.Sample.Record.Size
			result.SuccessCount++
		}
	}
	result.Message = "report complete"
	return result
}

func (applicator *Applicator) move(ctx context.Context, groups []domain.DuplicateGroup, destination string) (ActionResult, error) {
	logger := logging.FromContext(ctx)
	result := ActionResult{
		Type:   domain.ActionMove,
		Groups: len(groups),
		Moved:  make(map[string]string),
	}
	if destination == "" {
		result.Message = "move failed"
		return result, fmt.Errorf("destination required")
	}
	destination = cleanPath(destination)
	if err := applicator.fs.MkdirAll(destination, 0o755); err != nil {
		result.Message = "move failed"
		return result, fmt.Errorf("creating destination folder `%s`: %w", destination, err)
	}

	for _, group := range groups {
		ordered := Reorder(group, applicator.keep)
		kept := ordered.Members[0].Path()
		result.Kept = append(result.Kept, kept)
		logger.Info("keeping file", "path", kept, "duplicates", len(ordered.Members)-1)
		for _, member := range ordered.Members[1:] {
			if ctx.Err() != nil {
				result.Message = "move cancelled"
				return result, ctx.Err()
			}
			source := member.Path()
			target := filepath.Join(destination, QuarantineName(source))
			if err := applicator.moveFile(source, target); err != nil {
				logger.Error("moving duplicate failed", "path", source, "target", target, "err", err)
				result.FailureCount++
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			logger.Info("moved duplicate", "path", source, "target", target)
			result.Moved[source] = target
			result.ReclaimableBytes += member.Sample.Record.Size
			result.SuccessCount++
		}
	}
	result.Message = "move complete"
	return result, nil
}

// moveFile renames source to target and refuses to overwrite. There is no
// copy fallback, so a file is either moved whole or left where it was.
func (applicator *Applicator) moveFile(source, target string) error {
	exists, err := afero.Exists(applicator.fs, target)
	if err != nil {
		return fmt.Errorf("checking target `%s`: %w", target, err)
	}
	if exists {
		return fmt.Errorf("target exists: %s", target)
	}
	if err := applicator.fs.Rename(source, target); err != nil {
		return fmt.Errorf("moving `%s` to `%s`: %w", source, target, err)
	}
	return nil
}

// QuarantineName is the flat file name a moved duplicate gets: the base64 of
// its absolute path, in the filename-safe alphabet so it never contains a
// path separator.
func QuarantineName(path string) string {
	return base64.URLEncoding.EncodeToString([]byte(cleanPath(path)))
}

// Reorder returns a copy of group whose first member is the one to keep.
func Reorder(group domain.DuplicateGroup, policy domain.KeepPolicy) domain.DuplicateGroup {
	ordered := group
	ordered.Members = slices.Clone(group.Members)
	slices.SortStableFunc(ordered.Members, func(l, r domain.HashedSample) int {
		if policy == domain.KeepOldest {
			if c := l.Sample.Record.CreatedAt.Compare(r.Sample.Record.CreatedAt); c != 0 {
				return c
			}
		}
		return comparePathLength(l.Path(), r.Path())
	})
	return ordered
}

func comparePathLength(l, r string) int {
	ll, rl := utf8.RuneCountInString(l), utf8.RuneCountInString(r)
	switch {
	case ll < rl:
		return -1
	case ll > rl:
		return 1
	default:
		return strings.Compare(l, r)
	}
}
