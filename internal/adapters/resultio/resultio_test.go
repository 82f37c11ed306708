package resultio

import (
	"testing"
	"time"

	"gridday/internal/core/interval"
	"gridday/internal/core/snapshot"
	perr "gridday/internal/platform/errors"
)

const refJSON = `{
  "elements": [
    {"id": "CB1", "name": "line FR-BE", "window": "2023-07-30T22:00:00Z/2023-07-31T22:00:00Z",
     "outage": "CO1", "permanentA": 1500, "temporaryA": 1800},
    {"id": "CB2", "name": "line FR-DE", "window": "2023-07-30T22:00:00Z/2023-07-31T10:00:00Z",
     "permanentF": 1.1}
  ]
}`

func mustSlot(t *testing.T, start string) interval.Slot {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("parse start: %v", err)
	}
	return interval.Slot{Position: 1, Span: interval.NewSpan(ts, ts.Add(time.Hour))}
}

func TestParseReference(t *testing.T) {
	ref, err := ParseReference([]byte(refJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ref.Elements) != 2 {
		t.Fatalf("elements = %d", len(ref.Elements))
	}
	if ref.Elements[0].OutageID != "CO1" || ref.Elements[1].OutageID != "" {
		t.Fatalf("outage mapping wrong")
	}
	if ref.Elements[0].Permanent.Absolute == nil || *ref.Elements[0].Permanent.Absolute != 1500 {
		t.Fatalf("permanentA lost")
	}
}

func TestParseReferenceRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"no elements":   `{"elements": []}`,
		"missing id":    `{"elements": [{"name": "x", "window": "a/b", "permanentA": 1}]}`,
		"no permanent":  `{"elements": [{"id": "CB1", "name": "x", "window": "a/b", "temporaryA": 1}]}`,
	}
	for name, in := range cases {
		if _, err := ParseReference([]byte(in)); !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("%s: want validation error, got %v", name, err)
		}
	}
}

func TestParseGridModel(t *testing.T) {
	m, err := ParseGridModel([]byte(`{"caseId": "20230731_1230", "elements": ["CB1"]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !m.Has("CB1") || m.Has("CB2") {
		t.Fatalf("presence set wrong")
	}
	if _, err := ParseGridModel([]byte(`{}`)); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("missing elements should fail validation, got %v", err)
	}
}

func TestParseResult(t *testing.T) {
	res, err := ParseResult([]byte(`{
	  "states": [
	    {"outage": "CO1", "instant": "curative",
	     "networkActions": [{"name": "open line A", "operator": "TSO1"}],
	     "rangeActions": [{"name": "pst B", "operator": "TSO1", "tap": -4}]}
	  ]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.States) != 1 {
		t.Fatalf("states = %d", len(res.States))
	}
	st := res.States[0]
	if st.Key() != "CO1@curative" {
		t.Fatalf("key = %q", st.Key())
	}
	if len(st.Network) != 1 || len(st.Range) != 1 || st.Range[0].Tap != -4 {
		t.Fatalf("actions lost: %+v", st)
	}

	if _, err := ParseResult([]byte(`{"states": [{"instant": "curative"}]}`)); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("missing outage should fail validation, got %v", err)
	}
}

func TestResolveInputs(t *testing.T) {
	ref, err := ParseReference([]byte(refJSON))
	if err != nil {
		t.Fatalf("parse ref: %v", err)
	}
	model, err := ParseGridModel([]byte(`{"elements": ["CB1", "CB2"]}`))
	if err != nil {
		t.Fatalf("parse model: %v", err)
	}

	// 12:00Z is outside CB2's window (ends 10:00Z)
	slot := mustSlot(t, "2023-07-31T12:00:00Z")
	in, err := ResolveInputs(ref, model, &snapshot.OptimizationResult{}, slot)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(in.Elements) != 2 {
		t.Fatalf("elements = %d", len(in.Elements))
	}
	if !in.Elements[0].Applicable {
		t.Fatalf("CB1 should be applicable")
	}
	if in.Elements[1].Applicable {
		t.Fatalf("CB2 window ended, should not be applicable")
	}

	// temporary falls back to permanent when the reference has none
	if in.Elements[1].Temporary != in.Elements[1].Permanent {
		t.Fatalf("temporary fallback: %+v", in.Elements[1])
	}
	if in.Elements[0].Temporary != (snapshot.Limit{Kind: snapshot.LimitAbsolute, Value: 1800}) {
		t.Fatalf("temporary = %+v", in.Elements[0].Temporary)
	}

	// element absent from the grid case is not applicable
	model2, _ := ParseGridModel([]byte(`{"elements": ["CB2"]}`))
	in2, err := ResolveInputs(ref, model2, nil, mustSlot(t, "2023-07-31T08:00:00Z"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if in2.Elements[0].Applicable || !in2.Elements[1].Applicable {
		t.Fatalf("grid case presence not honored: %+v", in2.Elements)
	}
}
