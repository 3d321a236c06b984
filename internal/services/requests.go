package services

import "dupsweep/internal/domain"

type ScanRequest struct {
	RootPath   string
	ShowHidden bool
	Exclude    []string
}

// Action is what to do with the non-kept members of every duplicate group.
// Destination is only meaningful for domain.ActionMove.
type Action struct {
	Type        domain.ActionType
	Destination string
}
