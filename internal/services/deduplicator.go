package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"

	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
)

type workKind int

const (
	workRequest workKind = iota
	workTerminate
)

// workMessage is either a candidate group to process or an instruction for
// the receiving worker to exit.
type workMessage struct {
	kind  workKind
	group domain.CandidateGroup
}

type Deduplicator struct {
	sampler   Sampler
	workers   int
	processed atomic.Int64
}

func NewDeduplicator(fs afero.Fs, workers int) *Deduplicator {
	if workers < 1 {
		workers = 1
	}
	return &Deduplicator{sampler: NewSampler(fs), workers: workers}
}

// Processed is the number of candidate groups fully handled so far.
func (dedup *Deduplicator) Processed() int64 {
	return dedup.processed.Load()
}

// Run farms groups out to the worker pool and returns the stream of
// duplicate groups. The stream ends with a single None value, sent only
// after every worker has exited, and is closed after it.
func (dedup *Deduplicator) Run(ctx context.Context, groups []domain.CandidateGroup, progress chan<- ScanProgress) <-chan domain.Option[domain.DuplicateGroup] {
	logger := logging.FromContext(ctx)
	out := make(chan domain.Option[domain.DuplicateGroup], dedup.workers*8)
	work := make(chan workMessage, dedup.workers*8)

	var wg sync.WaitGroup
	for i := 0; i < dedup.workers; i++ {
		wg.Add(1)
		go dedup.worker(logger.With("worker", i), len(groups), work, out, progress, &wg)
	}

	go func() {
		for _, group := range groups {
			work <- workMessage{kind: workRequest, group: group}
		}
		for i := 0; i < dedup.workers; i++ {
			work <- workMessage{kind: workTerminate}
		}
		wg.Wait()
		logger.Debug("all workers exited", "processed", dedup.Processed())
		out <- domain.None[domain.DuplicateGroup]()
		close(out)
	}()

	return out
}

func (dedup *Deduplicator) worker(
	logger *slog.Logger,
	total int,
	work <-chan workMessage,
	out chan<- domain.Option[domain.DuplicateGroup],
	progress chan<- ScanProgress,
	wg *sync.WaitGroup,
) {
	defer wg.Done()
	logger.Debug("started worker")
	for message := range work {
		switch message.kind {
		case workTerminate:
			logger.Debug("worker exiting")
			return
		case workRequest:
			logger.Debug("processing group", "files", len(message.group), "size", message.group.Size())
			for _, group := range dedup.process(logger, message.group) {
				out <- domain.Some(group)
			}
			processed := dedup.processed.Add(1)
			progressNonBlocking(progress, ScanProgress{
				Stage:      StageDeduplicating,
				Candidates: total,
				Processed:  processed,
			})
		}
	}
}

// process samples and hashes every member of a candidate group and returns
// each set of two or more members sharing a digest. Members that cannot be
// read are logged and left out.
func (dedup *Deduplicator) process(logger *slog.Logger, candidates domain.CandidateGroup) []domain.DuplicateGroup {
	byDigest := make(map[string][]domain.HashedSample, len(candidates))
	var order []string
	for _, record := range candidates {
		sample, err := dedup.sampler.Sample(record)
		if err != nil {
			logger.Warn("dropping unreadable file", "path", record.Path, "err", err)
			continue
		}
		hashed := Hash(sample)
		if _, seen := byDigest[hashed.Digest]; !seen {
			order = append(order, hashed.Digest)
		}
		byDigest[hashed.Digest] = append(byDigest[hashed.Digest], hashed)
	}

	var groups []domain.DuplicateGroup
	for _, digest := range order {
		members := byDigest[digest]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, domain.DuplicateGroup{
			Digest:  digest,
			Size:    candidates.Size(),
			Members: members,
		})
	}
	return groups
}
