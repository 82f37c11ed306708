// Package cluster merges the per-hour record sets of a business day into
// the minimal-count set of wide-interval records. Temporally adjacent,
// content-equal records collapse into one; anything else stays separate.
package cluster

import (
	"fmt"
	"sort"

	"gridday/internal/core/interval"
	"gridday/internal/core/snapshot"
)

// DayRecords is the clustered output covering the full business day
type DayRecords struct {
	Day      interval.Span
	Elements []snapshot.ElementRecord
	Groups   []snapshot.ActionGroup
}

// CoverageError reports a post-clustering gap or overlap for one branch.
// It always indicates an upstream snapshot defect, never bad input.
type CoverageError struct {
	ElementID string
	Detail    string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("cluster coverage violated for %s: %s", e.ElementID, e.Detail)
}

// Clusterize merges the per-slot record sets for all positions of the day.
// Action groups cluster first, keyed by the originating decision state, and
// every merged member's hourly id is rewritten to the cluster's output id
// (the first hour's) before element records cluster in turn.
func Clusterize(day interval.Span, hours []snapshot.HourRecords) (DayRecords, error) {
	ordered := make([]snapshot.HourRecords, len(hours))
	copy(ordered, hours)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	groups, rewrite := clusterGroups(ordered)

	elements := clusterElements(ordered, rewrite)

	out := DayRecords{Day: day, Elements: elements, Groups: groups}
	if err := checkCoverage(day, elements); err != nil {
		return DayRecords{}, err
	}
	return out, nil
}

// clusterGroups scans each state-key family left to right and returns the
// clustered groups plus the hourly-id -> output-id rewrite map
func clusterGroups(hours []snapshot.HourRecords) ([]snapshot.ActionGroup, map[string]string) {
	byKey := map[string][]snapshot.ActionGroup{}
	var keys []string
	for _, hr := range hours {
		for _, g := range hr.Groups {
			if _, seen := byKey[g.StateKey]; !seen {
				keys = append(keys, g.StateKey)
			}
			byKey[g.StateKey] = append(byKey[g.StateKey], g)
		}
	}
	sort.Strings(keys)

	rewrite := map[string]string{}
	var out []snapshot.ActionGroup
	for _, key := range keys {
		family := byKey[key]
		sort.Slice(family, func(i, j int) bool { return family[i].Span.Start.Before(family[j].Span.Start) })

		run := family[0]
		rewrite[run.ID] = run.ID
		for _, g := range family[1:] {
			if g.ContentEqual(run) && g.Span.Start.Equal(run.Span.End) {
				run.Span.End = g.Span.End
				rewrite[g.ID] = run.ID
				continue
			}
			out = append(out, run)
			run = g
			rewrite[run.ID] = run.ID
		}
		out = append(out, run)
	}
	return out, rewrite
}

func clusterElements(hours []snapshot.HourRecords, rewrite map[string]string) []snapshot.ElementRecord {
	byID := map[string][]snapshot.ElementRecord{}
	var ids []string
	for _, hr := range hours {
		for _, r := range hr.Elements {
			if r.GroupID != "" {
				if to, ok := rewrite[r.GroupID]; ok {
					r.GroupID = to
				}
			}
			if _, seen := byID[r.ID]; !seen {
				ids = append(ids, r.ID)
			}
			byID[r.ID] = append(byID[r.ID], r)
		}
	}
	sort.Strings(ids)

	var out []snapshot.ElementRecord
	for _, id := range ids {
		family := byID[id]
		sort.Slice(family, func(i, j int) bool { return family[i].Span.Start.Before(family[j].Span.Start) })

		run := family[0]
		for _, r := range family[1:] {
			if r.ContentEqual(run) && r.Span.Start.Equal(run.Span.End) {
				run.Span.End = r.Span.End
				continue
			}
			out = append(out, run)
			run = r
		}
		out = append(out, run)
	}
	return out
}

// checkCoverage verifies that for every origin branch the permanent-limit
// chain (unsuffixed and _PATL records together) tiles the business day with
// no gaps and no overlaps. The temporary-limit variants ride alongside the
// permanent ones, so only the permanent chain carries the tiling invariant.
func checkCoverage(day interval.Span, elements []snapshot.ElementRecord) error {
	byOrigin := map[string][]snapshot.ElementRecord{}
	for _, r := range elements {
		id := r.ID
		if n := len(id) - len(snapshot.SuffixTemporary); n > 0 && id[n:] == snapshot.SuffixTemporary {
			continue
		}
		if n := len(id) - len(snapshot.SuffixPermanent); n > 0 && id[n:] == snapshot.SuffixPermanent {
			id = id[:n]
		}
		byOrigin[id] = append(byOrigin[id], r)
	}

	for origin, family := range byOrigin {
		sort.Slice(family, func(i, j int) bool { return family[i].Span.Start.Before(family[j].Span.Start) })
		cursor := day.Start
		for _, r := range family {
			switch {
			case r.Span.Start.After(cursor):
				return &CoverageError{ElementID: origin, Detail: fmt.Sprintf(
					"gap %s", interval.NewSpan(cursor, r.Span.Start))}
			case r.Span.Start.Before(cursor):
				return &CoverageError{ElementID: origin, Detail: fmt.Sprintf(
					"overlap at %s", r.Span)}
			}
			cursor = r.Span.End
		}
		if !cursor.Equal(day.End) {
			return &CoverageError{ElementID: origin, Detail: fmt.Sprintf(
				"gap %s", interval.NewSpan(cursor, day.End))}
		}
	}
	return nil
}
