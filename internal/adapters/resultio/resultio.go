// Package resultio decodes the externally produced JSON inputs of one
// aggregation run: the reference structural document, the per-hour grid
// model content and the per-hour optimization result.
package resultio

import (
	"encoding/json"

	"gridday/internal/core/interval"
	"gridday/internal/core/snapshot"
	perr "gridday/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// wire shapes

type refDoc struct {
	Elements []refElement `json:"elements" validate:"required,min=1,dive"`
}

type refElement struct {
	ID         string   `json:"id" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	Window     string   `json:"window" validate:"required"`
	Outage     string   `json:"outage"`
	PermanentA *float64 `json:"permanentA"`
	PermanentF *float64 `json:"permanentF"`
	TemporaryA *float64 `json:"temporaryA"`
	TemporaryF *float64 `json:"temporaryF"`
}

type gridModelDoc struct {
	CaseID   string   `json:"caseId"`
	Elements []string `json:"elements" validate:"required"`
}

type resultDoc struct {
	States []resultState `json:"states" validate:"dive"`
}

type resultState struct {
	Outage  string `json:"outage" validate:"required"`
	Instant string `json:"instant" validate:"required"`
	Network []struct {
		Name     string `json:"name" validate:"required"`
		Operator string `json:"operator" validate:"required"`
	} `json:"networkActions" validate:"dive"`
	Range []struct {
		Name     string `json:"name" validate:"required"`
		Operator string `json:"operator" validate:"required"`
		Tap      int    `json:"tap"`
	} `json:"rangeActions" validate:"dive"`
}

// ParseReference decodes and validates the reference structural document
func ParseReference(data []byte) (snapshot.ReferenceDocument, error) {
	var doc refDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return snapshot.ReferenceDocument{}, perr.Wrap(err, perr.ErrorCodeValidation, "reference document: decode")
	}
	if err := validate.Struct(doc); err != nil {
		return snapshot.ReferenceDocument{}, perr.Wrap(err, perr.ErrorCodeValidation, "reference document: validate")
	}

	out := snapshot.ReferenceDocument{Elements: make([]snapshot.ReferenceElement, 0, len(doc.Elements))}
	for _, el := range doc.Elements {
		if el.PermanentA == nil && el.PermanentF == nil {
			return snapshot.ReferenceDocument{}, perr.WithField(
				perr.Validationf("reference element %s: no permanent limit", el.ID), "permanentA")
		}
		out.Elements = append(out.Elements, snapshot.ReferenceElement{
			ID:        el.ID,
			Name:      el.Name,
			Window:    el.Window,
			OutageID:  el.Outage,
			Permanent: snapshot.LimitFields{Absolute: el.PermanentA, Factor: el.PermanentF},
			Temporary: snapshot.LimitFields{Absolute: el.TemporaryA, Factor: el.TemporaryF},
		})
	}
	return out, nil
}

// GridModel is the resolved per-hour grid content: which critical branches
// the hour's case actually carries
type GridModel struct {
	CaseID  string
	present map[string]bool
}

// Has reports whether the element is part of the hour's grid case
func (m *GridModel) Has(id string) bool {
	return m != nil && m.present[id]
}

// ParseGridModel decodes the per-hour grid content listing
func ParseGridModel(data []byte) (*GridModel, error) {
	var doc gridModelDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "grid model: decode")
	}
	if err := validate.Struct(doc); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "grid model: validate")
	}
	m := &GridModel{CaseID: doc.CaseID, present: make(map[string]bool, len(doc.Elements))}
	for _, id := range doc.Elements {
		m.present[id] = true
	}
	return m, nil
}

// ParseResult decodes the per-hour optimization result
func ParseResult(data []byte) (*snapshot.OptimizationResult, error) {
	var doc resultDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "optimization result: decode")
	}
	if err := validate.Struct(doc); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "optimization result: validate")
	}

	out := &snapshot.OptimizationResult{States: make([]snapshot.DecisionState, 0, len(doc.States))}
	for _, st := range doc.States {
		ds := snapshot.DecisionState{OutageID: st.Outage, Instant: st.Instant}
		for _, a := range st.Network {
			ds.Network = append(ds.Network, snapshot.NetworkAction{Name: a.Name, Operator: a.Operator})
		}
		for _, a := range st.Range {
			ds.Range = append(ds.Range, snapshot.RangeAction{Name: a.Name, Operator: a.Operator, Tap: a.Tap})
		}
		out.States = append(out.States, ds)
	}
	return out, nil
}

// ResolveInputs projects the reference document onto one slot using the
// hour's grid model, producing the monitored element list the success path
// consumes. An element is applicable when its reference window covers the
// slot start and the grid case carries it.
func ResolveInputs(
	ref snapshot.ReferenceDocument,
	model *GridModel,
	res *snapshot.OptimizationResult,
	slot interval.Slot,
) (*snapshot.Inputs, error) {
	in := &snapshot.Inputs{Result: res}
	for _, el := range ref.Elements {
		within, err := interval.Within(el.Window, slot.Span.Start)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeValidation, "reference element %s: window", el.ID)
		}
		perm, ok := el.Permanent.Collapse()
		if !ok {
			return nil, perr.Validationf("reference element %s: no permanent limit", el.ID)
		}
		temp, ok := el.Temporary.Collapse()
		if !ok {
			// branches without a temporary rating hold the permanent one
			temp = perm
		}
		in.Elements = append(in.Elements, snapshot.MonitoredElement{
			ID:         el.ID,
			Name:       el.Name,
			OutageID:   el.OutageID,
			Permanent:  perm,
			Temporary:  temp,
			Applicable: within && model.Has(el.ID),
		})
	}
	return in, nil
}
