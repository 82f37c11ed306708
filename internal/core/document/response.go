package document

import (
	"encoding/xml"
	"time"

	"gridday/internal/core/interval"
	"gridday/internal/core/naming"
	"gridday/internal/core/snapshot"
)

// Response error constants for failed hours. The code and level are fixed
// by the exchange format; the reason narrows the cause.
const (
	errorCode  = "B18"
	errorLevel = "A02"

	// ReasonOptimizationFailed is the default reason for a failed hour
	ReasonOptimizationFailed = "optimisation task failed"
)

// HourStatus is one hour's terminal state from the response document's
// point of view
type HourStatus struct {
	Span   interval.Span
	Kind   snapshot.OutcomeKind
	Reason string // optional override for failed hours
}

// ResponseDocument enumerates, per hour, either an error descriptor or the
// references to the day's output artifacts
type ResponseDocument struct {
	XMLName    xml.Name `xml:"ResponseDocument"`
	ID         string   `xml:"documentIdentification"`
	Version    int      `xml:"documentVersion"`
	SenderID   string   `xml:"senderIdentification"`
	ReceiverID string   `xml:"receiverIdentification"`
	CreatedAt  string   `xml:"creationDateTime"`
	Day        string   `xml:"responseDay"`

	Items []ResponseItem `xml:"responseItems>responseItem"`
}

// ResponseItem covers one hour
type ResponseItem struct {
	TimeInterval string           `xml:"timeInterval"`
	Error        *ErrorDescriptor `xml:"error,omitempty"`
	Files        []FileReference  `xml:"files>file,omitempty"`
}

// ErrorDescriptor describes why an hour produced no result
type ErrorDescriptor struct {
	Code   string `xml:"code"`
	Level  string `xml:"level"`
	Reason string `xml:"reason"`
}

// FileReference points at a produced artifact by constructed name, not by
// content
type FileReference struct {
	Kind string `xml:"kind,attr"`
	Name string `xml:",chardata"`
}

// BuildResponse assembles the response document. Hours whose outcome is
// "not requested" are omitted entirely rather than reported as errors; this
// filtering is deliberate, the recipient only acknowledges hours it asked
// for.
func BuildResponse(date time.Time, version int, createdAt time.Time, hours []HourStatus) *ResponseDocument {
	doc := &ResponseDocument{
		ID:         naming.ResponseID(date, version),
		Version:    version,
		SenderID:   naming.SenderID,
		ReceiverID: naming.ReceiverID,
		CreatedAt:  createdAt.UTC().Format(timeLayout),
		Day:        date.Format("2006-01-02"),
	}
	for _, h := range hours {
		switch h.Kind {
		case snapshot.KindNotRequested:
			continue
		case snapshot.KindFailed:
			reason := h.Reason
			if reason == "" {
				reason = ReasonOptimizationFailed
			}
			doc.Items = append(doc.Items, ResponseItem{
				TimeInterval: h.Span.String(),
				Error:        &ErrorDescriptor{Code: errorCode, Level: errorLevel, Reason: reason},
			})
		case snapshot.KindSuccess:
			doc.Items = append(doc.Items, ResponseItem{
				TimeInterval: h.Span.String(),
				Files: []FileReference{
					{Kind: "constraints", Name: naming.FileName(date, naming.ArtifactConstraints, version)},
					{Kind: "models", Name: naming.FileName(date, naming.ArtifactModels, version)},
					{Kind: "report", Name: naming.FileName(date, naming.ArtifactReport, version)},
				},
			})
		}
	}
	return doc
}

// Bytes renders the response document as indented XML
func (d *ResponseDocument) Bytes() ([]byte, error) {
	return marshalXML(d)
}
