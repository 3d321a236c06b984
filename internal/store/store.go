package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"dupsweep/internal/services"
)

var ErrRunNotFound = errors.New("run not found")

// Run is one recorded pipeline execution.
type Run struct {
	ID               string
	Root             string
	Action           string
	StartedAt        time.Time
	Duration         time.Duration
	Files            int64
	CandidateGroups  int
	DuplicateGroups  int
	Succeeded        int
	Failed           int
	ReclaimableBytes uint64
	Message          string
}

// DuplicateFile is one member of a recorded duplicate group.
type DuplicateFile struct {
	GroupIndex int
	Digest     string
	Path       string
	Size       uint64
	Kept       bool
	MovedTo    string
}

// Store records runs in a SQLite database.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("pinging database: %w", err), db.Close())
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Join(fmt.Errorf("initializing schema: %w", err), db.Close())
	}
	return &Store{db: db}, nil
}

func (store *Store) Close() error {
	return store.db.Close()
}

// NewRun builds the record of a finished run from its scan and action
// results. action.Kept is indexed like scan.Groups.
func NewRun(started time.Time, scan services.ScanResult, action services.ActionResult) (Run, []DuplicateFile) {
	run := Run{
		ID:               scan.RunID,
		Root:             scan.RootPath,
		Action:           string(action.Type),
		StartedAt:        started,
		Duration:         scan.Duration + action.Duration,
		Files:            scan.Files,
		CandidateGroups:  scan.CandidateGroups,
		DuplicateGroups:  len(scan.Groups),
		Succeeded:        action.SuccessCount,
		Failed:           action.FailureCount,
		ReclaimableBytes: action.ReclaimableBytes,
		Message:          action.Message,
	}

	var files []DuplicateFile
	for i, group := range scan.Groups {
		var kept string
		if i < len(action.Kept) {
			kept = action.Kept[i]
		}
		for _, member := range group.Members {
			files = append(files, DuplicateFile{
				GroupIndex: i,
				Digest:     group.Digest,
				Path:       member.Path(),
				Size:       group.Size,
				Kept:       member.Path() == kept,
				MovedTo:    action.Moved[member.Path()],
			})
		}
	}
	return run, files
}

func (store *Store) RecordRun(ctx context.Context, run Run, files []DuplicateFile) (err error) {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		err = fmt.Errorf("recording run `%s`: %w", run.ID, err)
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, root, action, started_at, duration_ns, files, candidate_groups,
			duplicate_groups, succeeded, failed, reclaimable_bytes, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Root, run.Action, run.StartedAt.UnixNano(), int64(run.Duration), run.Files,
		run.CandidateGroups, run.DuplicateGroups, run.Succeeded, run.Failed,
		int64(run.ReclaimableBytes), run.Message,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO duplicate_files (run_id, group_index, digest, path, size, kept, moved_to)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, file := range files {
		if _, err = stmt.ExecContext(ctx, run.ID, file.GroupIndex, file.Digest, file.Path, int64(file.Size), file.Kept, file.MovedTo); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRuns returns up to limit runs, newest first. A limit below one means
// no limit.
func (store *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := store.db.QueryContext(ctx, `
		SELECT id, root, action, started_at, duration_ns, files, candidate_groups,
			duplicate_groups, succeeded, failed, reclaimable_bytes, message
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (store *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := store.db.QueryRowContext(ctx, `
		SELECT id, root, action, started_at, duration_ns, files, candidate_groups,
			duplicate_groups, succeeded, failed, reclaimable_bytes, message
		FROM runs
		WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

func (store *Store) DuplicateFiles(ctx context.Context, runID string) ([]DuplicateFile, error) {
	rows, err := store.db.QueryContext(ctx, `
		SELECT group_index, digest, path, size, kept, moved_to
		FROM duplicate_files
		WHERE run_id = ?
		ORDER BY group_index, kept DESC, path`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing duplicate files: %w", err)
	}
	defer rows.Close()

	var files []DuplicateFile
	for rows.Next() {
		var file DuplicateFile
		var size int64
		if err := rows.Scan(&file.GroupIndex, &file.Digest, &file.Path, &size, &file.Kept, &file.MovedTo); err != nil {
			return nil, fmt.Errorf("scanning duplicate file: %w", err)
		}
		file.Size = uint64(size)
		files = append(files, file)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started, duration, reclaimable int64
	err := row.Scan(
		&run.ID, &run.Root, &run.Action, &started, &duration, &run.Files,
		&run.CandidateGroups, &run.DuplicateGroups, &run.Succeeded, &run.Failed,
		&reclaimable, &run.Message,
	)
	if err != nil {
		return run, err
	}
	run.StartedAt = time.Unix(0, started)
	run.Duration = time.Duration(duration)
	run.ReclaimableBytes = uint64(reclaimable)
	return run, nil
}
