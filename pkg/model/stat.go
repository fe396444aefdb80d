package model

import (
	"time"
)

type StepStats struct {
	Step     string        `json:"step"`
	State    string        `json:"state"`
	Duration time.Duration `json:"duration"`
	ExitCode int32         `json:"exit_code"`
}

type ConversionStats struct {
	Steps []StepStats   `json:"steps"`
	Total time.Duration `json:"total"`
}
