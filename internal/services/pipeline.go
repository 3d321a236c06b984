package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
)

// Pipeline runs one scan end to end: walk and size collection together,
// then content deduplication over the complete candidate list, then result
// collection. Each stage starts only once the previous one has finished.
type Pipeline struct {
	mu       sync.RWMutex
	fs       afero.Fs
	walker   *Walker
	workers  int
	progress chan ScanProgress
}

func NewPipeline(fs afero.Fs, workers int) *Pipeline {
	return &Pipeline{
		fs:      fs,
		walker:  NewWalker(fs),
		workers: workers,
	}
}

func (pipeline *Pipeline) Progress() <-chan ScanProgress {
	pipeline.mu.RLock()
	defer pipeline.mu.RUnlock()
	return pipeline.progress
}

func (pipeline *Pipeline) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	start := time.Now()
	result := ScanResult{
		RunID:    uuid.NewString(),
		RootPath: cleanPath(req.RootPath),
	}
	logger := logging.FromContext(ctx).With("run", result.RunID)
	ctx = logging.Context(ctx, logger)

	progress := make(chan ScanProgress, 64)
	pipeline.setProgress(progress)
	defer close(progress)

	logger.Info("starting scan", "root", result.RootPath, "workers", pipeline.workers)

	records := make(chan domain.FileRecord, 256)
	var candidates []domain.CandidateGroup
	stage, stageCtx := errgroup.WithContext(ctx)
	stage.Go(func() (err error) {
		result.Files, err = pipeline.walker.Walk(stageCtx, req, records, progress)
		return err
	})
	stage.Go(func() error {
		candidates = CollectBySize(stageCtx, records)
		return nil
	})
	if err := stage.Wait(); err != nil {
		result.Duration = time.Since(start)
		progressNonBlocking(progress, ScanProgress{Stage: StageWalking, ErrMessage: err.Error(), Completed: true})
		return result, err
	}
	result.CandidateGroups = len(candidates)
	progressNonBlocking(progress, ScanProgress{
		Stage:      StageDeduplicating,
		Files:      result.Files,
		Candidates: len(candidates),
	})

	dedup := NewDeduplicator(pipeline.fs, pipeline.workers)
	stream := dedup.Run(ctx, candidates, progress)
	groups, err := CollectResults(ctx, stream)
	result.Duration = time.Since(start)
	if err != nil {
		progressNonBlocking(progress, ScanProgress{Stage: StageCollecting, ErrMessage: err.Error(), Completed: true})
		return result, fmt.Errorf("collecting duplicate groups: %w", err)
	}
	result.Groups = groups

	logger.Info("scan complete",
		"files", result.Files,
		"candidate_groups", result.CandidateGroups,
		"duplicate_groups", len(groups),
		"duration", result.Duration,
	)
	progressNonBlocking(progress, ScanProgress{
		Stage:      StageDone,
		Files:      result.Files,
		Candidates: result.CandidateGroups,
		Processed:  dedup.Processed(),
		Groups:     len(groups),
		Completed:  true,
	})
	return result, nil
}

func (pipeline *Pipeline) setProgress(progress chan ScanProgress) {
	pipeline.mu.Lock()
	defer pipeline.mu.Unlock()
	pipeline.progress = progress
}
