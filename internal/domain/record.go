package domain

import "time"

type FileRecord struct {
	Path      string
	Size      uint64
	CreatedAt time.Time
}

// CandidateGroup is a set of files sharing one exact size.
type CandidateGroup []FileRecord

func (group CandidateGroup) Size() uint64 {
	if len(group) == 0 {
		return 0
	}
	return group[0].Size
}

type Sample struct {
	Record FileRecord
	Bytes  []byte
}

// HashedSample pairs a sample with the lowercase hex SHA-256 of its bytes.
type HashedSample struct {
	Sample Sample
	Digest string
}

func (hashed HashedSample) Path() string {
	return hashed.Sample.Record.Path
}

type DuplicateGroup struct {
	Digest  string
	Size    uint64
	Members []HashedSample
}

func (group DuplicateGroup) Paths() []string {
	paths := make([]string, len(group.Members))
	for i := range group.Members {
		paths[i] = group.Members[i].Path()
	}
	return paths
}
