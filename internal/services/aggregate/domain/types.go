// Package domain holds the core data structures and ports of the daily
// aggregation run
package domain

import (
	"time"

	"gridday/internal/core/document"
	"gridday/internal/core/interval"
	"gridday/internal/core/snapshot"
)

// Task status spellings used by the hourly optimization registry
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// HourTask is one registry row: the terminal state of one hourly
// optimization task plus the storage keys of its outputs
type HourTask struct {
	Hour      time.Time // slot start, UTC
	Status    string
	GridKey   string // optimized grid model object key, success only
	ResultKey string // optimization result object key, success only
	ErrText   string
}

// Terminal reports whether the task reached a final state
func (t HourTask) Terminal() bool {
	return t.Status == StatusSuccess || t.Status == StatusFailed
}

// RunFinish is the bookkeeping written when a run ends
type RunFinish struct {
	Status       string
	HoursTotal   int
	HoursSuccess int
	HoursFailed  int
	ElapsedMS    int
	ErrText      string
}

// RunReport is what RunDay hands back to the caller
type RunReport struct {
	RunID     string
	Day       interval.Span
	Version   int
	Hours     []document.HourStatus
	Published []string // object keys of the uploaded artifacts
}

// HourOutcome pairs a slot with its resolved record set and terminal status
type HourOutcome struct {
	Slot       interval.Slot
	Kind       snapshot.OutcomeKind
	Reason     string
	Records    snapshot.HourRecords
	GridData   []byte // raw optimized grid model, success only
	DurationMS int
}
