package services

import (
	"context"
	"slices"

	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
)

// CollectBySize drains records until the channel is closed and returns one
// candidate group per size seen more than once. Files of a unique size are
// dropped here and their content is never read.
func CollectBySize(ctx context.Context, records <-chan domain.FileRecord) []domain.CandidateGroup {
	logger := logging.FromContext(ctx)
	buckets := make(map[uint64][]domain.FileRecord)
	var consumed int
	for record := range records {
		consumed++
		buckets[record.Size] = append(buckets[record.Size], record)
	}

	logger.Info("consumed files, filtering by size", "files", consumed, "sizes", len(buckets))
	groups := make([]domain.CandidateGroup, 0, len(buckets))
	for _, bucket := range buckets {
		if len(bucket) > 1 {
			groups = append(groups, domain.CandidateGroup(bucket))
		}
	}
	// largest first
	slices.SortFunc(groups, func(l, r domain.CandidateGroup) int {
		switch {
		case l.Size() > r.Size():
			return -1
		case l.Size() < r.Size():
			return 1
		default:
			return 0
		}
	})
	logger.Info("found potential duplicate groups", "groups", len(groups), "ignored", len(buckets)-len(groups))
	return groups
}
