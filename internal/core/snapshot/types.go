// Package snapshot derives the per-hour critical branch and action group
// records that feed the daily clusterizer. For each one-hour slot it turns
// the reference document plus that hour's optimization inputs into the
// record set representing that hour alone.
package snapshot

import (
	"fmt"

	"gridday/internal/core/interval"
)

// OutcomeKind classifies the terminal state of one hourly task
type OutcomeKind uint8

const (
	// KindNotRequested means no task existed for the hour
	KindNotRequested OutcomeKind = iota
	// KindFailed means the task ran and did not succeed, or its data
	// could not be fetched
	KindFailed
	// KindSuccess means the hour carries usable optimization inputs
	KindSuccess
)

// String returns the registry spelling of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailed:
		return "failed"
	default:
		return "not_requested"
	}
}

// LimitKind discriminates absolute ampere limits from multiplying factors
type LimitKind uint8

const (
	// LimitAbsolute is a flow limit in amperes
	LimitAbsolute LimitKind = iota + 1
	// LimitFactor is a multiplying factor applied to the seasonal rating
	LimitFactor
)

// Limit is a resolved flow limit: exactly one kind, never both
type Limit struct {
	Kind  LimitKind
	Value float64
}

// LimitFields is the raw reference-document pair where an absolute value
// and a factor may coexist; Collapse resolves it preferring the absolute.
type LimitFields struct {
	Absolute *float64
	Factor   *float64
}

// Collapse resolves the pair into a single limit, preferring the absolute
// value over the factor. ok is false when neither field is set.
func (l LimitFields) Collapse() (Limit, bool) {
	if l.Absolute != nil {
		return Limit{Kind: LimitAbsolute, Value: *l.Absolute}, true
	}
	if l.Factor != nil {
		return Limit{Kind: LimitFactor, Value: *l.Factor}, true
	}
	return Limit{}, false
}

// ReferenceElement is one critical branch of the reference structural
// document: its applicability window and default limits for the day.
type ReferenceElement struct {
	ID        string
	Name      string
	Window    string // "<start>/<end>" applicability interval
	OutageID  string // empty when monitored in the base case only
	Permanent LimitFields
	Temporary LimitFields
}

// ReferenceDocument is the externally supplied baseline for the business day
type ReferenceDocument struct {
	Elements []ReferenceElement
}

// MonitoredElement is one critical branch resolved for a single hour
type MonitoredElement struct {
	ID         string
	Name       string
	OutageID   string // empty when no associated outage
	Permanent  Limit
	Temporary  Limit
	Applicable bool // false when the hour's grid resolution excluded it
}

// NetworkAction is a topological remedial action activated for a state
type NetworkAction struct {
	Name     string
	Operator string
}

// RangeAction is a continuously-adjustable device action with its resolved
// discrete position for the state
type RangeAction struct {
	Name     string
	Operator string
	Tap      int
}

// DecisionState is one (contingency outage, optimization instant) pair with
// the remedial actions the optimizer activated for it
type DecisionState struct {
	OutageID string
	Instant  string
	Network  []NetworkAction
	Range    []RangeAction
}

// Key is the stable identity of the state across hours; cluster grouping
// uses it instead of the per-hour generated group id
func (d DecisionState) Key() string { return d.OutageID + "@" + d.Instant }

// activated reports whether the optimizer applied at least one action
func (d DecisionState) activated() bool { return len(d.Network)+len(d.Range) > 0 }

// OptimizationResult is the per-hour remedial action outcome
type OptimizationResult struct {
	States []DecisionState
}

// Inputs carries everything the success path needs for one hour
type Inputs struct {
	Elements []MonitoredElement
	Result   *OptimizationResult
}

// ElementRecord is one critical branch line of the final document. Two
// records are content-equal when every field except Span matches.
type ElementRecord struct {
	ID      string // origin id, possibly suffixed _TATL or _PATL
	Name    string
	Limit   Limit
	GroupID string // referenced ActionGroup id, empty when none
	Span    interval.Span
}

// ContentEqual ignores the time interval
func (r ElementRecord) ContentEqual(o ElementRecord) bool {
	return r.ID == o.ID && r.Name == o.Name && r.Limit == o.Limit && r.GroupID == o.GroupID
}

// ActionDescriptor is a single remedial action inside a group, scoped to
// the group's outage. Tap is set for range actions only.
type ActionDescriptor struct {
	Name     string
	Operator string
	OutageID string
	Tap      *int
}

func (a ActionDescriptor) equal(b ActionDescriptor) bool {
	if a.Name != b.Name || a.Operator != b.Operator || a.OutageID != b.OutageID {
		return false
	}
	if (a.Tap == nil) != (b.Tap == nil) {
		return false
	}
	return a.Tap == nil || *a.Tap == *b.Tap
}

// ActionGroup is the "complex variant" of the regulated vocabulary: the set
// of remedial actions jointly applied for one decision state during one slot.
type ActionGroup struct {
	ID       string
	Name     string
	Operator string // single owning authority, or SharedOperator
	StateKey string
	Span     interval.Span
	Actions  []ActionDescriptor
}

// ContentEqual compares the action set and authority summary, ignoring id
// and time interval. Actions are built in pinned order so a positional
// comparison is a set comparison.
func (g ActionGroup) ContentEqual(o ActionGroup) bool {
	if g.Operator != o.Operator || len(g.Actions) != len(o.Actions) {
		return false
	}
	for i := range g.Actions {
		if !g.Actions[i].equal(o.Actions[i]) {
			return false
		}
	}
	return true
}

// HourRecords is the full record set for one slot, pre-clustering
type HourRecords struct {
	Position int
	Slot     interval.Span
	Elements []ElementRecord
	Groups   []ActionGroup
}

// MissingOptimizationResultError reports a success-path invocation without
// an optimization result. This is a caller contract violation.
type MissingOptimizationResultError struct {
	Slot interval.Span
}

func (e *MissingOptimizationResultError) Error() string {
	return fmt.Sprintf("missing optimization result for slot %s", e.Slot)
}
