package interval

import (
	"sync"
	"time"
)

// Slot is one hour-long sub-interval of a business day, identified by a
// 1-based position. Slots are contiguous and their union equals the day.
type Slot struct {
	Position int
	Span     Span
}

var (
	zoneOnce sync.Once
	zoneLoc  *time.Location
	zoneErr  error
)

func referenceLocation() (*time.Location, error) {
	zoneOnce.Do(func() {
		zoneLoc, zoneErr = time.LoadLocation(ReferenceZone)
	})
	return zoneLoc, zoneErr
}

// BusinessDay returns the absolute span of the calendar date (year, month,
// day taken from d) in the reference zone: local midnight to the next local
// midnight. Clock-change dates yield 23h or 25h spans.
func BusinessDay(d time.Time) (Span, error) {
	loc, err := referenceLocation()
	if err != nil {
		return Span{}, err
	}
	y, m, day := d.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, loc)
	end := time.Date(y, m, day+1, 0, 0, 0, 0, loc)
	return NewSpan(start, end), nil
}

// Positions divides a span into its ordered one-hour slots. The span must
// be evenly divisible into whole hours.
func Positions(s Span) ([]Slot, error) {
	d := s.Duration()
	if d <= 0 || d%time.Hour != 0 {
		return nil, &MalformedIntervalError{Input: s.String(), Reason: "not divisible into whole hours"}
	}
	n := int(d / time.Hour)
	slots := make([]Slot, n)
	for i := 0; i < n; i++ {
		slots[i] = Slot{
			Position: i + 1,
			Span:     NewSpan(s.Start.Add(time.Duration(i)*time.Hour), s.Start.Add(time.Duration(i+1)*time.Hour)),
		}
	}
	return slots, nil
}

// Locate returns the 1-based position of the slot containing t
func Locate(s Span, t time.Time) (int, error) {
	if !s.Contains(t) {
		return 0, &InstantNotFoundError{Instant: t, Span: s}
	}
	if s.Duration()%time.Hour != 0 {
		return 0, &MalformedIntervalError{Input: s.String(), Reason: "not divisible into whole hours"}
	}
	return int(t.Sub(s.Start)/time.Hour) + 1, nil
}

// WallClock returns t in the reference zone, for filename generation
func WallClock(t time.Time) (time.Time, error) {
	loc, err := referenceLocation()
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}
