package ui

import "dupsweep/internal/services"

type scanResultMsg struct {
	result services.ScanResult
	err    error
}

type scanProgressMsg struct {
	progress services.ScanProgress
}

type actionResultMsg struct {
	result services.ActionResult
	err    error
}
