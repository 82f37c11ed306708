// Package naming holds the pure filename and identifier rules for the daily
// artifacts. The patterns are regulated and must stay bit-exact; nothing in
// here touches the filesystem.
package naming

import (
	"fmt"
	"time"
)

// Fixed party identities embedded in every artifact name and document header.
const (
	// SenderID identifies the coordination center producing the documents
	SenderID = "22XGRIDOPS-RSC-S"
	// ReceiverID identifies the capacity allocation platform receiving them
	ReceiverID = "17XTSO-CAPA---07"
	// Process tags the daily flow-based process in artifact names
	Process = "DAY-FB"
	// DomainID is the bidding zone domain stamped in document headers
	DomainID = "10YDOM-REGION-1V"
)

// dupHourSentinel replaces the tens digit of the duplicated wall-clock hour
// on a 25-hour day, disambiguating it from the earlier occurrence.
const dupHourSentinel = 'B'

// Artifact enumerates the daily artifact kinds
type Artifact uint8

const (
	// ArtifactConstraints is the clustered daily constraint document
	ArtifactConstraints Artifact = iota + 1
	// ArtifactResponse is the per-hour response document
	ArtifactResponse
	// ArtifactMetadata is the delimited run-metadata table
	ArtifactMetadata
	// ArtifactReport is the computation report bundle
	ArtifactReport
	// ArtifactModels is the optimized grid model bundle
	ArtifactModels
)

// Code returns the regulated type code of the artifact
func (a Artifact) Code() string {
	switch a {
	case ArtifactConstraints:
		return "303"
	case ArtifactResponse:
		return "305"
	case ArtifactMetadata:
		return "341"
	case ArtifactReport:
		return "304"
	case ArtifactModels:
		return "299"
	}
	return "000"
}

// Ext returns the file extension of the artifact
func (a Artifact) Ext() string {
	switch a {
	case ArtifactConstraints, ArtifactResponse:
		return "xml"
	case ArtifactMetadata:
		return "csv"
	case ArtifactReport, ArtifactModels:
		return "zip"
	}
	return "bin"
}

// FileName renders the daily artifact filename:
//
//	<sender>_<receiver>_<process>-<code>_<yyyyMMdd>-F<code>-<vv>.<ext>
func FileName(day time.Time, kind Artifact, version int) string {
	return fmt.Sprintf("%s_%s_%s-%s_%s-F%s-%02d.%s",
		SenderID, ReceiverID, Process, kind.Code(),
		day.Format("20060102"), kind.Code(), version, kind.Ext())
}

// DocumentID is the deterministic document identifier for the day's
// constraint document at the given version
func DocumentID(day time.Time, version int) string {
	return fmt.Sprintf("%s-%s-F303-%02d", SenderID, day.Format("20060102"), version)
}

// ResponseID is the deterministic identifier of the response document
func ResponseID(day time.Time, version int) string {
	return fmt.Sprintf("%s-%s-F305-%02d", SenderID, day.Format("20060102"), version)
}

// GridModelName renders the hourly optimized grid model filename:
//
//	<yyyyMMdd>_<HH>30_2D<dow>_UX<vv>.uct
//
// local is the slot's wall-clock start in the reference zone; dow is its ISO
// day of week. When duplicate is true (second occurrence of a repeated
// wall-clock hour on a 25-hour day) the tens digit of HH becomes the
// sentinel character.
func GridModelName(local time.Time, duplicate bool, version int) string {
	hh := local.Format("15")
	if duplicate {
		hh = string(dupHourSentinel) + hh[1:]
	}
	return fmt.Sprintf("%s_%s30_2D%d_UX%02d.uct",
		local.Format("20060102"), hh, isoWeekday(local), version)
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
