package services

import (
	"context"
	"errors"

	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
)

var ErrStreamClosed = errors.New("duplicate stream closed before completion")

// CollectResults gathers duplicate groups in arrival order until the None
// marker. A stream that closes before the marker is an abnormal end: the
// partial list is discarded.
func CollectResults(ctx context.Context, stream <-chan domain.Option[domain.DuplicateGroup]) ([]domain.DuplicateGroup, error) {
	logger := logging.FromContext(ctx)
	var groups []domain.DuplicateGroup
	for {
		message, ok := <-stream
		if !ok {
			logger.Error("duplicate stream closed early", "discarded", len(groups))
			return nil, ErrStreamClosed
		}
		if !message.Exists {
			logger.Info("processing finished", "groups", len(groups))
			return groups, nil
		}
		group := message.Some
		logger.Debug("duplicate group found", "first", group.Members[0].Path(), "files", len(group.Members))
		groups = append(groups, group)
	}
}
