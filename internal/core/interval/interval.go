// Package interval implements business day time spans and hourly slot
// positioning. A business day is anchored to the reference time zone and
// spans 23, 24 or 25 hours depending on clock changes; slot counts are
// derived purely from dividing the span by one hour, so no explicit DST
// branching lives here.
package interval

import (
	"fmt"
	"time"
)

// ReferenceZone is the fixed time zone business days are anchored to.
const ReferenceZone = "Europe/Paris"

// SpanSeparator joins the start and end instants of an interval string.
const SpanSeparator = "/"

// instantLayout is the wire format for interval boundary instants.
const instantLayout = time.RFC3339

// Span is a half-open [Start, End) interval over absolute instants.
// Both boundaries are normalized to UTC so spans compare with ==.
type Span struct {
	Start time.Time
	End   time.Time
}

// NewSpan normalizes both instants to UTC
func NewSpan(start, end time.Time) Span {
	return Span{Start: start.UTC(), End: end.UTC()}
}

// String renders the span as "<start>/<end>" in RFC3339 UTC
func (s Span) String() string {
	return s.Start.UTC().Format(instantLayout) + SpanSeparator + s.End.UTC().Format(instantLayout)
}

// Contains reports whether t falls inside [Start, End)
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Duration returns End - Start
func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }

// Midpoint returns the instant halfway through the span
func (s Span) Midpoint() time.Time {
	return s.Start.Add(s.Duration() / 2)
}

// IsZero reports whether the span is unset
func (s Span) IsZero() bool { return s.Start.IsZero() && s.End.IsZero() }

// MalformedIntervalError reports an interval string or span that cannot be
// positioned: unparseable boundaries, end before start, or a span that does
// not divide into whole hours.
type MalformedIntervalError struct {
	Input  string
	Reason string
}

func (e *MalformedIntervalError) Error() string {
	return fmt.Sprintf("malformed interval %q: %s", e.Input, e.Reason)
}

// InstantNotFoundError reports an instant outside every slot of a span.
type InstantNotFoundError struct {
	Instant time.Time
	Span    Span
}

func (e *InstantNotFoundError) Error() string {
	return fmt.Sprintf("instant %s not inside %s", e.Instant.UTC().Format(instantLayout), e.Span)
}

// ParseSpan parses a "<start>/<end>" interval string
func ParseSpan(in string) (Span, error) {
	var startRaw, endRaw string
	for i := 0; i < len(in); i++ {
		// the separator also appears nowhere inside RFC3339 instants
		if in[i] == '/' {
			startRaw, endRaw = in[:i], in[i+1:]
			break
		}
	}
	if startRaw == "" || endRaw == "" {
		return Span{}, &MalformedIntervalError{Input: in, Reason: "want <start>/<end>"}
	}
	start, err := time.Parse(instantLayout, startRaw)
	if err != nil {
		return Span{}, &MalformedIntervalError{Input: in, Reason: "bad start instant"}
	}
	end, err := time.Parse(instantLayout, endRaw)
	if err != nil {
		return Span{}, &MalformedIntervalError{Input: in, Reason: "bad end instant"}
	}
	if !end.After(start) {
		return Span{}, &MalformedIntervalError{Input: in, Reason: "end not after start"}
	}
	return NewSpan(start, end), nil
}

// Within reports whether t falls inside the "<start>/<end>" interval string
func Within(in string, t time.Time) (bool, error) {
	s, err := ParseSpan(in)
	if err != nil {
		return false, err
	}
	return s.Contains(t), nil
}
