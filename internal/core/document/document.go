// Package document wraps the clustered day's record set into the structured
// output documents: the constraint document itself, the per-hour response
// document, and the delimited run-metadata table. All output is deterministic
// for identical inputs; the creation timestamp is an explicit input, never
// read from the wall clock here.
package document

import (
	"encoding/xml"
	"sort"
	"strconv"
	"time"

	"gridday/internal/core/cluster"
	"gridday/internal/core/interval"
	"gridday/internal/core/naming"
	"gridday/internal/core/snapshot"
)

// timeLayout is the header timestamp format
const timeLayout = time.RFC3339

// ConstraintDocument is the clustered daily document in its regulated shape
type ConstraintDocument struct {
	XMLName    xml.Name `xml:"ConstraintDocument"`
	ID         string   `xml:"documentIdentification"`
	Version    int      `xml:"documentVersion"`
	SenderID   string   `xml:"senderIdentification"`
	ReceiverID string   `xml:"receiverIdentification"`
	CreatedAt  string   `xml:"creationDateTime"`
	Domain     string   `xml:"domain"`
	Day        string   `xml:"constraintDay"`
	Interval   string   `xml:"constraintTimeInterval"`

	Branches []CriticalBranch `xml:"criticalBranches>criticalBranch"`
	Variants []ComplexVariant `xml:"complexVariants>complexVariant"`
}

// CriticalBranch is one clustered critical element record. Exactly one of
// ImaxA and ImaxFactor is set.
type CriticalBranch struct {
	ID           string `xml:"id,attr"`
	Name         string `xml:"name"`
	TimeInterval string `xml:"timeInterval"`
	ImaxA        string `xml:"imaxA,omitempty"`
	ImaxFactor   string `xml:"imaxFactor,omitempty"`
	VariantID    string `xml:"complexVariantId,omitempty"`
}

// ComplexVariant is one clustered action group
type ComplexVariant struct {
	ID           string   `xml:"id,attr"`
	Name         string   `xml:"name"`
	TsoOrigin    string   `xml:"tsoOrigin"`
	TimeInterval string   `xml:"timeInterval"`
	Actions      []Action `xml:"actionsSet>action"`
}

// Action is a single remedial action of a variant
type Action struct {
	Name        string `xml:"name"`
	Operator    string `xml:"operator"`
	AfterOutage string `xml:"afterOutageId"`
	PstTap      *int   `xml:"pstTap,omitempty"`
}

// Assemble builds the constraint document from the clustered day records.
// date is the business-day calendar date; branches sort by (id, interval
// start) and variants by id so the rendered bytes are reproducible.
func Assemble(date time.Time, span interval.Span, version int, createdAt time.Time, recs cluster.DayRecords) *ConstraintDocument {
	doc := &ConstraintDocument{
		ID:         naming.DocumentID(date, version),
		Version:    version,
		SenderID:   naming.SenderID,
		ReceiverID: naming.ReceiverID,
		CreatedAt:  createdAt.UTC().Format(timeLayout),
		Domain:     naming.DomainID,
		Day:        date.Format("2006-01-02"),
		Interval:   span.String(),
	}

	branches := make([]snapshot.ElementRecord, len(recs.Elements))
	copy(branches, recs.Elements)
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].ID != branches[j].ID {
			return branches[i].ID < branches[j].ID
		}
		return branches[i].Span.Start.Before(branches[j].Span.Start)
	})
	for _, r := range branches {
		a, f := formatLimit(r.Limit)
		doc.Branches = append(doc.Branches, CriticalBranch{
			ID:           r.ID,
			Name:         r.Name,
			TimeInterval: r.Span.String(),
			ImaxA:        a,
			ImaxFactor:   f,
			VariantID:    r.GroupID,
		})
	}

	variants := make([]snapshot.ActionGroup, len(recs.Groups))
	copy(variants, recs.Groups)
	sort.Slice(variants, func(i, j int) bool { return variants[i].ID < variants[j].ID })
	for _, g := range variants {
		cv := ComplexVariant{
			ID:           g.ID,
			Name:         g.Name,
			TsoOrigin:    g.Operator,
			TimeInterval: g.Span.String(),
		}
		for _, a := range g.Actions {
			act := Action{Name: a.Name, Operator: a.Operator, AfterOutage: a.OutageID}
			if a.Tap != nil {
				tap := *a.Tap
				act.PstTap = &tap
			}
			cv.Actions = append(cv.Actions, act)
		}
		doc.Variants = append(doc.Variants, cv)
	}
	return doc
}

// Bytes renders the document as indented XML with the standard header
func (d *ConstraintDocument) Bytes() ([]byte, error) {
	return marshalXML(d)
}

func marshalXML(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// formatLimit renders the limit value with the shortest exact decimal form
func formatLimit(l snapshot.Limit) (imaxA, imaxFactor string) {
	v := strconv.FormatFloat(l.Value, 'f', -1, 64)
	if l.Kind == snapshot.LimitFactor {
		return "", v
	}
	return v, ""
}
