package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"dupsweep/internal/domain"
	"dupsweep/internal/services"
)

// Notifier prints human-readable run summaries.
type Notifier struct {
	w io.Writer
}

func NewNotifier(w io.Writer) (n Notifier) {
	n.w = w
	return
}

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
	faint = color.New(color.Faint)
)

func (n Notifier) ScanFinished(result services.ScanResult) {
	bold.Fprintf(
		n.w,
		"%s scanned %s: %d files, %d size groups, %d duplicate groups (%s)\n",
		nowStr(),
		result.RootPath,
		result.Files,
		result.CandidateGroups,
		len(result.Groups),
		result.Duration.Round(time.Millisecond),
	)
}

// Groups lists every group with the member that will be kept first.
func (n Notifier) Groups(groups []domain.DuplicateGroup, policy domain.KeepPolicy) {
	for i, group := range groups {
		ordered := services.Reorder(group, policy)
		bold.Fprintf(
			n.w,
			"\ngroup %d/%d (%d files @ %s each)\n",
			i+1,
			len(groups),
			len(ordered.Members),
			humanize.IBytes(ordered.Size),
		)
		green.Fprintf(n.w, "  keep  %s\n", ordered.Members[0].Path())
		for _, member := range ordered.Members[1:] {
			fmt.Fprintf(n.w, "  dupe  %s\n", member.Path())
		}
	}
}

func (n Notifier) ActionFinished(result services.ActionResult) {
	if result.Groups == 0 {
		faint.Fprintf(n.w, "%s %s\n", nowStr(), result.Message)
		return
	}
	verb := "would free"
	if result.Type == domain.ActionMove {
		verb = "freed"
	}
	green.Fprintf(
		n.w,
		"%s %s: %d groups, %d files ok, %s %s\n",
		nowStr(),
		result.Message,
		result.Groups,
		result.SuccessCount,
		verb,
		humanize.IBytes(result.ReclaimableBytes),
	)
	if result.FailureCount == 0 {
		return
	}
	red.Fprintf(n.w, "%s %d files failed\n", nowStr(), result.FailureCount)
	for _, message := range result.Errors {
		red.Fprintf(n.w, "  %s\n", message)
	}
}

func (n Notifier) Failed(err error) {
	red.Fprintf(n.w, "%s error: %v\n", nowStr(), err)
}

func nowStr() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
