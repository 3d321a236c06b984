package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"dupsweep/internal/domain"
	"dupsweep/internal/logging"
)

func quietContext() context.Context {
	return logging.Context(context.Background(), logging.Discard())
}

func writeFile(t *testing.T, fs afero.Fs, path string, content []byte) domain.FileRecord {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, content, 0o644))
	return domain.FileRecord{Path: path, Size: uint64(len(content)), CreatedAt: time.Now()}
}

// patterned returns size bytes whose value depends on position and seed, so
// different seeds differ everywhere.
func patterned(size int, seed byte) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i%251) ^ seed
	}
	return data
}

func hashedMember(path string, size uint64, createdAt time.Time) domain.HashedSample {
	return domain.HashedSample{
		Sample: domain.Sample{Record: domain.FileRecord{Path: path, Size: size, CreatedAt: createdAt}},
		Digest: "d",
	}
}

func withTail(data []byte, tail string) []byte {
	out := bytes.Clone(data)
	copy(out[len(out)-len(tail):], tail)
	return out
}
