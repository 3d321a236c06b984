package services

type Stage string

const (
	StageWalking       Stage = "walking"
	StageDeduplicating Stage = "deduplicating"
	StageCollecting    Stage = "collecting"
	StageDone          Stage = "done"
)

type ScanProgress struct {
	Stage      Stage
	Files      int64
	Candidates int
	Processed  int64
	Groups     int
	Current    string
	ErrMessage string
	Completed  bool
}

type ProgressProvider interface {
	Progress() <-chan ScanProgress
}

func progressNonBlocking(ch chan<- ScanProgress, msg ScanProgress) {
	if ch == nil {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}
