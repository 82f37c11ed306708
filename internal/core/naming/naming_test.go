package naming

import (
	"strings"
	"testing"
	"time"
)

var day = time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC)

func TestFileName_ConstraintsAndResponseDifferOnlyInCodeAndExt(t *testing.T) {
	doc := FileName(day, ArtifactConstraints, 1)
	res := FileName(day, ArtifactResponse, 1)

	if doc == res {
		t.Fatalf("names must differ")
	}
	if swapped := strings.ReplaceAll(doc, "303", "305"); swapped != res {
		t.Fatalf("doc=%q res=%q differ beyond type code and extension", doc, res)
	}
}

func TestFileName_Shape(t *testing.T) {
	got := FileName(day, ArtifactConstraints, 1)
	want := "22XGRIDOPS-RSC-S_17XTSO-CAPA---07_DAY-FB-303_20230731-F303-01.xml"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := FileName(day, ArtifactMetadata, 3); !strings.HasSuffix(got, "-F341-03.csv") {
		t.Fatalf("metadata name = %q", got)
	}
}

func TestFileName_VersionChangesOnlyTwoDigitSuffix(t *testing.T) {
	v1 := FileName(day, ArtifactConstraints, 1)
	v2 := FileName(day, ArtifactConstraints, 12)

	if strings.ReplaceAll(v1, "-01.xml", "-12.xml") != v2 {
		t.Fatalf("v1=%q v2=%q differ beyond the version suffix", v1, v2)
	}
}

func TestGridModelName(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	// 2023-07-31 is a Monday
	local := time.Date(2023, 7, 31, 14, 0, 0, 0, loc)
	if got, want := GridModelName(local, false, 1), "20230731_1430_2D1_UX01.uct"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGridModelName_DuplicateHourSentinel(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	// 2023-10-29 is the 25-hour day; 02:00 occurs twice
	local := time.Date(2023, 10, 29, 2, 0, 0, 0, loc)
	first := GridModelName(local, false, 1)
	second := GridModelName(local, true, 1)

	if first == second {
		t.Fatalf("duplicate hour not disambiguated")
	}
	if strings.ReplaceAll(second, "B2", "02") != first {
		t.Fatalf("first=%q second=%q differ beyond the sentinel substitution", first, second)
	}
}

func TestDocumentIDs(t *testing.T) {
	if got := DocumentID(day, 1); got != "22XGRIDOPS-RSC-S-20230731-F303-01" {
		t.Fatalf("document id = %q", got)
	}
	if DocumentID(day, 1) == ResponseID(day, 1) {
		t.Fatalf("document and response ids must differ")
	}
}
