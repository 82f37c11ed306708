package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"gridday/internal/core/interval"
)

const (
	// SuffixTemporary marks the temporary-limit (TATL) variant of a branch
	SuffixTemporary = "_TATL"
	// SuffixPermanent marks the permanent-limit (PATL) variant of a branch
	SuffixPermanent = "_PATL"
	// SharedOperator is the owning-authority sentinel when the actions of a
	// group belong to more than one authority
	SharedOperator = "XX"
	// nameSeparator joins action names into the group name
	nameSeparator = "+"
)

// Fallback produces the record set for a failed or not-requested hour: every
// reference element applicable at the slot start, rewritten to the slot
// interval with its limit collapsed to the permanent value. No action groups
// and no id suffixing.
func Fallback(ref ReferenceDocument, slot interval.Slot) (HourRecords, error) {
	out := HourRecords{Position: slot.Position, Slot: slot.Span}
	for _, el := range ref.Elements {
		ok, err := interval.Within(el.Window, slot.Span.Start)
		if err != nil {
			return HourRecords{}, fmt.Errorf("reference element %s: %w", el.ID, err)
		}
		if !ok {
			continue
		}
		lim, has := el.Permanent.Collapse()
		if !has {
			return HourRecords{}, fmt.Errorf("reference element %s: no permanent limit", el.ID)
		}
		out.Elements = append(out.Elements, ElementRecord{
			ID:    el.ID,
			Name:  el.Name,
			Limit: lim,
			Span:  slot.Span,
		})
	}
	return out, nil
}

// Generate produces the record set for a successful hour. Decision states
// with at least one activated action each receive a deterministic group id;
// branches whose outage state got remedial actions split into a TATL and a
// PATL variant, the PATL one referencing the state's group.
func Generate(in *Inputs, slot interval.Slot) (HourRecords, error) {
	if in == nil || in.Result == nil {
		return HourRecords{}, &MissingOptimizationResultError{Slot: slot.Span}
	}

	out := HourRecords{Position: slot.Position, Slot: slot.Span}

	groups, byOutage := buildGroups(in.Result, slot.Span)
	out.Groups = groups

	for _, el := range in.Elements {
		if !el.Applicable {
			continue
		}
		g, acted := byOutage[el.OutageID]
		if el.OutageID == "" || !acted {
			out.Elements = append(out.Elements, ElementRecord{
				ID:    el.ID,
				Name:  el.Name,
				Limit: el.Permanent,
				Span:  slot.Span,
			})
			continue
		}
		out.Elements = append(out.Elements,
			ElementRecord{
				ID:    el.ID + SuffixTemporary,
				Name:  el.Name,
				Limit: el.Temporary,
				Span:  slot.Span,
			},
			ElementRecord{
				ID:      el.ID + SuffixPermanent,
				Name:    el.Name,
				Limit:   el.Permanent,
				GroupID: g.ID,
				Span:    slot.Span,
			},
		)
	}

	// every emitted group must be referenced by a PATL record; states whose
	// outage bound no element, or that lost the first-state race for their
	// outage, would otherwise leave orphan groups in the document
	referenced := make(map[string]bool, len(out.Elements))
	for _, el := range out.Elements {
		if el.GroupID != "" {
			referenced[el.GroupID] = true
		}
	}
	kept := out.Groups[:0]
	for _, g := range out.Groups {
		if referenced[g.ID] {
			kept = append(kept, g)
		}
	}
	out.Groups = kept
	return out, nil
}

// buildGroups assembles one ActionGroup per remedial-action-bearing decision
// state. States are enumerated in pinned (outage id, instant) order so the
// per-hour sequence counter is reproducible; the group id combines the slot's
// UTC start hour with that counter, which keeps ids unique across the whole
// day even when a wall-clock hour repeats.
func buildGroups(res *OptimizationResult, slot interval.Span) ([]ActionGroup, map[string]ActionGroup) {
	states := make([]DecisionState, 0, len(res.States))
	for _, st := range res.States {
		if st.activated() {
			states = append(states, st)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].OutageID != states[j].OutageID {
			return states[i].OutageID < states[j].OutageID
		}
		return states[i].Instant < states[j].Instant
	})

	groups := make([]ActionGroup, 0, len(states))
	byOutage := make(map[string]ActionGroup, len(states))
	for i, st := range states {
		g := ActionGroup{
			ID:       fmt.Sprintf("%02d_%02d", slot.Start.UTC().Hour(), i+1),
			StateKey: st.Key(),
			Span:     slot,
		}

		names := make([]string, 0, len(st.Network)+len(st.Range))
		for _, a := range st.Network {
			names = append(names, a.Name)
			g.Actions = append(g.Actions, ActionDescriptor{
				Name:     a.Name,
				Operator: a.Operator,
				OutageID: st.OutageID,
			})
		}
		for _, a := range st.Range {
			tap := a.Tap
			names = append(names, a.Name)
			g.Actions = append(g.Actions, ActionDescriptor{
				Name:     a.Name,
				Operator: a.Operator,
				OutageID: st.OutageID,
				Tap:      &tap,
			})
		}
		g.Name = strings.Join(names, nameSeparator)
		g.Operator = commonOperator(g.Actions)

		groups = append(groups, g)
		// several instants can share an outage; branches bind to the first
		// state in pinned order
		if _, seen := byOutage[st.OutageID]; !seen {
			byOutage[st.OutageID] = g
		}
	}
	return groups, byOutage
}

func commonOperator(actions []ActionDescriptor) string {
	op := ""
	for i, a := range actions {
		if i == 0 {
			op = a.Operator
			continue
		}
		if a.Operator != op {
			return SharedOperator
		}
	}
	return op
}
