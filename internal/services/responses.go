package services

import (
	"time"

	"dupsweep/internal/domain"
)

type ScanResult struct {
	RunID           string
	RootPath        string
	Files           int64
	CandidateGroups int
	Groups          []domain.DuplicateGroup
	Duration        time.Duration
}

type ActionResult struct {
	Type             domain.ActionType
	Groups           int
	Kept             []string
	Moved            map[string]string
	SuccessCount     int
	FailureCount     int
	ReclaimableBytes uint64
	Duration         time.Duration
	Message          string
	Errors           []string
}
