package document

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
	"time"

	"gridday/internal/core/interval"
)

// Metadata indicator names. Day-scoped rows use the business-day interval
// as their timestamp; hour-scoped rows use the slot interval.
const (
	IndicatorRequestTime   = "REQUEST_RECEIVED"
	IndicatorResponseTime  = "RESPONSE_SENT"
	IndicatorOverallStatus = "OVERALL_STATUS"
	IndicatorHourStatus    = "HOUR_STATUS"
	IndicatorComputationMS = "COMPUTATION_TIME_MS"
)

// metadataDelimiter separates the fixed columns of the rendered table
const metadataDelimiter = ';'

// MetadataRow is one (indicator, timestamp, value) cell of the summary table
type MetadataRow struct {
	Indicator string
	Timestamp string
	Value     string
}

// RunInfo summarizes one business-day run for the metadata table
type RunInfo struct {
	Day        interval.Span
	RequestAt  time.Time
	ResponseAt time.Time
	Status     string
	Hours      []HourInfo
}

// HourInfo is the per-hour computation summary
type HourInfo struct {
	Span       interval.Span
	Status     string
	DurationMS int
}

// BuildMetadata flattens a run summary into sorted metadata rows
func BuildMetadata(run RunInfo) []MetadataRow {
	rows := []MetadataRow{
		{IndicatorRequestTime, run.Day.String(), run.RequestAt.UTC().Format(timeLayout)},
		{IndicatorResponseTime, run.Day.String(), run.ResponseAt.UTC().Format(timeLayout)},
		{IndicatorOverallStatus, run.Day.String(), run.Status},
	}
	for _, h := range run.Hours {
		rows = append(rows,
			MetadataRow{IndicatorHourStatus, h.Span.String(), h.Status},
			MetadataRow{IndicatorComputationMS, h.Span.String(), strconv.Itoa(h.DurationMS)},
		)
	}
	sortMetadata(rows)
	return rows
}

func sortMetadata(rows []MetadataRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Indicator != rows[j].Indicator {
			return rows[i].Indicator < rows[j].Indicator
		}
		return rows[i].Timestamp < rows[j].Timestamp
	})
}

// RenderMetadata writes the rows as a fixed-column delimited table with a
// header line. Rows are re-sorted so the rendering never depends on caller
// order.
func RenderMetadata(rows []MetadataRow) ([]byte, error) {
	sorted := make([]MetadataRow, len(rows))
	copy(sorted, rows)
	sortMetadata(sorted)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = metadataDelimiter
	if err := w.Write([]string{"INDICATOR", "TIMESTAMP", "VALUE"}); err != nil {
		return nil, err
	}
	for _, r := range sorted {
		if err := w.Write([]string{r.Indicator, r.Timestamp, r.Value}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
