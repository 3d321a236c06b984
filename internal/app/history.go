package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"dupsweep/internal/store"
)

var ErrNoDatabase = errors.New("no run database configured (set --db)")

// History prints the most recent runs recorded in the database at path, or
// every file of one run when runID is set.
func History(ctx context.Context, path, runID string, limit int, out io.Writer) error {
	if path == "" {
		return ErrNoDatabase
	}
	runs, err := store.Open(path)
	if err != nil {
		return err
	}
	defer runs.Close()

	if runID != "" {
		return printRun(ctx, runs, runID, out)
	}

	list, err := runs.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tROOT\tACTION\tFILES\tGROUPS\tOK\tFAILED\tRECLAIMABLE\tDURATION")
	for _, run := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			run.ID,
			humanize.Time(run.StartedAt),
			run.Root,
			run.Action,
			run.Files,
			run.DuplicateGroups,
			run.Succeeded,
			run.Failed,
			humanize.IBytes(run.ReclaimableBytes),
			run.Duration.Round(time.Millisecond),
		)
	}
	return w.Flush()
}

func printRun(ctx context.Context, runs *store.Store, runID string, out io.Writer) error {
	run, err := runs.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	files, err := runs.DuplicateFiles(ctx, run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run %s  %s  %s  %s\n", run.ID, run.Action, run.Root, run.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "%d groups, %d ok, %d failed, %s reclaimable\n",
		run.DuplicateGroups, run.Succeeded, run.Failed, humanize.IBytes(run.ReclaimableBytes))
	if len(files) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tSTATUS\tSIZE\tPATH\tMOVED TO")
	for _, file := range files {
		status := "dupe"
		switch {
		case file.Kept:
			status = "kept"
		case file.MovedTo != "":
			status = "moved"
		}
		movedTo := file.MovedTo
		if movedTo == "" {
			movedTo = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", file.GroupIndex+1, status, humanize.IBytes(file.Size), file.Path, movedTo)
	}
	return w.Flush()
}
