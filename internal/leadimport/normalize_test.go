package leadimport

import (
	"errors"
	"testing"
)

func TestNormalizeRowSkipsRowsWithoutName(t *testing.T) {
	_, err := NormalizeRow(map[string]string{
		"Mobile": "9000000001",
		"Group":  "MPC",
	})
	if !errors.Is(err, ErrRowSkipped) {
		t.Fatalf("expected ErrRowSkipped, got %v", err)
	}
}

func TestNormalizeRowRejectsRowsWithoutAnyPhone(t *testing.T) {
	_, err := NormalizeRow(map[string]string{
		"Student Name": "Bob",
		"District":     "Kakinada",
	})
	if !errors.Is(err, ErrMissingPhone) {
		t.Fatalf("expected ErrMissingPhone, got %v", err)
	}
}

func TestNormalizeRowFatherContactFillsBothPhones(t *testing.T) {
	lead, err := NormalizeRow(map[string]string{
		"Student Name":   "Alice",
		"Father Contact": "9000000002",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.FatherPhone != "9000000002" {
		t.Fatalf("expected father phone 9000000002, got %q", lead.FatherPhone)
	}
	if lead.Phone != "9000000002" {
		t.Fatalf("expected phone cross-filled from father phone, got %q", lead.Phone)
	}
}

func TestNormalizeRowRoutesUnknownColumnsToDynamicFields(t *testing.T) {
	lead, err := NormalizeRow(map[string]string{
		"Student Name":    "Alice",
		"Mobile":          "9000000001",
		"WhatsApp Number": "9000000003",
		"Caste":           "OC",
		"Empty Custom":    "   ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lead.DynamicFields["WhatsApp Number"]; got != "9000000003" {
		t.Fatalf("expected WhatsApp Number preserved, got %q", got)
	}
	if got := lead.DynamicFields["Caste"]; got != "OC" {
		t.Fatalf("expected Caste preserved, got %q", got)
	}
	if _, ok := lead.DynamicFields["Empty Custom"]; ok {
		t.Fatalf("expected blank unknown values to be dropped")
	}
}

func TestNormalizeRowStudentGroupVariants(t *testing.T) {
	cases := map[string]string{
		"MPC":   "Inter-MPC",
		"mpc":   "Inter-MPC",
		"BiPC":  "Inter-BiPC",
		"SSC":   "10th",
		"Inter": "Inter",
		"":      "Not Specified",
		"CBSE":  "CBSE",
	}
	for raw, want := range cases {
		row := map[string]string{
			"Student Name": "Alice",
			"Mobile":       "9000000001",
		}
		if raw != "" {
			row["Group"] = raw
		}
		lead, err := NormalizeRow(row)
		if err != nil {
			t.Fatalf("unexpected error for group %q: %v", raw, err)
		}
		if lead.StudentGroup != want {
			t.Fatalf("expected group %q to normalize to %q, got %q", raw, want, lead.StudentGroup)
		}
	}
}

func TestNormalizeRowStripsGeoSuffixes(t *testing.T) {
	lead, err := NormalizeRow(map[string]string{
		"Student Name": "Alice",
		"Mobile":       "9000000001",
		"District":     "Kakinada Dist",
		"Mandal":       "Pithapuram Mandal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.District != "Kakinada" {
		t.Fatalf("expected district Kakinada, got %q", lead.District)
	}
	if lead.Mandal != "Pithapuram" {
		t.Fatalf("expected mandal Pithapuram, got %q", lead.Mandal)
	}
}

func TestNormalizeRowVillageFallsBackToMandal(t *testing.T) {
	lead, err := NormalizeRow(map[string]string{
		"Student Name": "Alice",
		"Mobile":       "9000000001",
		"Village":      "Anakapalle",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Mandal != "Anakapalle" {
		t.Fatalf("expected mandal to fall back to village, got %q", lead.Mandal)
	}
	if lead.Village != "Anakapalle" {
		t.Fatalf("expected village retained, got %q", lead.Village)
	}
}

func TestNormalizeRowGender(t *testing.T) {
	cases := map[string]string{
		"M":      "Male",
		"male":   "Male",
		"F":      "Female",
		"female": "Female",
		"Other":  "Other",
		"x":      "x",
	}
	for raw, want := range cases {
		lead, err := NormalizeRow(map[string]string{
			"Student Name": "Alice",
			"Mobile":       "9000000001",
			"Sex":          raw,
		})
		if err != nil {
			t.Fatalf("unexpected error for gender %q: %v", raw, err)
		}
		if lead.Gender != want {
			t.Fatalf("expected gender %q to normalize to %q, got %q", raw, want, lead.Gender)
		}
	}
}

func TestNormalizeRowRankParsing(t *testing.T) {
	lead, err := NormalizeRow(map[string]string{
		"Student Name": "Alice",
		"Mobile":       "9000000001",
		"EAMCET Rank":  "1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Rank == nil || *lead.Rank != 1234 {
		t.Fatalf("expected rank 1234, got %v", lead.Rank)
	}

	lead, err = NormalizeRow(map[string]string{
		"Student Name": "Alice",
		"Mobile":       "9000000001",
		"EAMCET Rank":  "12K",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Rank != nil {
		t.Fatalf("expected non-numeric rank to stay unset, got %v", *lead.Rank)
	}
	if got := lead.DynamicFields["Rank"]; got != "12K" {
		t.Fatalf("expected raw rank preserved in dynamic fields, got %q", got)
	}
}

func TestNormalizeRowAcademicYearDefault(t *testing.T) {
	cases := map[string]int{
		"2026":    2026,
		"":        defaultAcademicYear,
		"abc":     defaultAcademicYear,
		"1900":    defaultAcademicYear,
		" 2024  ": 2024,
	}
	for raw, want := range cases {
		row := map[string]string{
			"Student Name": "Alice",
			"Mobile":       "9000000001",
		}
		if raw != "" {
			row["Academic Year"] = raw
		}
		lead, err := NormalizeRow(row)
		if err != nil {
			t.Fatalf("unexpected error for year %q: %v", raw, err)
		}
		if lead.AcademicYear != want {
			t.Fatalf("expected year %q to normalize to %d, got %d", raw, want, lead.AcademicYear)
		}
	}
}

func TestStripGeoSuffix(t *testing.T) {
	cases := map[string]string{
		"Kakinada Dist":     "Kakinada",
		"Kakinada Dist.":    "Kakinada",
		"Kakinada District": "Kakinada",
		"Kakinada DT":       "Kakinada",
		"Pithapuram Mandal": "Pithapuram",
		"Anakapalle":        "Anakapalle",
		"Distillery":        "Distillery",
	}
	for raw, want := range cases {
		if got := StripGeoSuffix(raw); got != want {
			t.Fatalf("expected StripGeoSuffix(%q) = %q, got %q", raw, want, got)
		}
	}
}
