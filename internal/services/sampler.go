package services

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/minio/sha256-simd"
	"github.com/spf13/afero"

	"dupsweep/internal/domain"
)

const (
	SmallFileLimit = 512 * 1024
	ProbeChunkSize = 10 * 1024
	ProbeChunks    = 8
	ProbeSize      = ProbeChunkSize * ProbeChunks
)

// Sampler reads files up to SmallFileLimit whole and only the first
// ProbeSize bytes of anything larger.
type Sampler struct {
	fs afero.Fs
}

func NewSampler(fs afero.Fs) Sampler {
	return Sampler{fs: fs}
}

func (sampler Sampler) Sample(record domain.FileRecord) (sample domain.Sample, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("sampling file `%s`: %w", record.Path, err)
		}
	}()

	sample.Record = record
	if record.Size <= SmallFileLimit {
		sample.Bytes, err = afero.ReadFile(sampler.fs, record.Path)
		return
	}

	var file afero.File
	if file, err = sampler.fs.Open(record.Path); err != nil {
		err = fmt.Errorf("opening file: %w", err)
		return
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	buf := make([]byte, ProbeSize)
	for i := 0; i < ProbeChunks; i++ {
		offset := int64(i * ProbeChunkSize)
		if _, err = file.Seek(offset, io.SeekStart); err != nil {
			err = fmt.Errorf("seeking to chunk %d: %w", i, err)
			return
		}
		if _, err = io.ReadFull(file, buf[offset:offset+ProbeChunkSize]); err != nil {
			err = fmt.Errorf("reading chunk %d: %w", i, err)
			return
		}
	}
	sample.Bytes = buf
	return
}

func Hash(sample domain.Sample) domain.HashedSample {
	sum := sha256.Sum256(sample.Bytes)
	return domain.HashedSample{Sample: sample, Digest: hex.EncodeToString(sum[:])}
}
