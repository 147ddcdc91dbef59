package leadimport

import (
	"context"
	"testing"

	"github.com/admitra/leadflow/internal/domain"
)

func TestNeedsManualUpdateFullyReconciledLead(t *testing.T) {
	lookup, err := BuildGeoLookup(context.Background(), andhraMasterData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lead := domain.Lead{
		State:    "Andhra Pradesh",
		District: "Kakinada",
		Mandal:   "Pithapuram",
	}
	if lookup.NeedsManualUpdate(&lead) {
		t.Fatalf("expected fully reconciled lead to not need manual update")
	}
}

func TestNeedsManualUpdateFuzzyMatchesMisspellings(t *testing.T) {
	lookup, err := BuildGeoLookup(context.Background(), andhraMasterData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lead := domain.Lead{
		State:    "Andra Pradesh",
		District: "Visakapatnam",
		Mandal:   "Anakapale",
	}
	if lookup.NeedsManualUpdate(&lead) {
		t.Fatalf("expected close misspellings to reconcile via fuzzy match")
	}
}

func TestNeedsManualUpdateSuffixedDistrictStillMatches(t *testing.T) {
	lookup, err := BuildGeoLookup(context.Background(), andhraMasterData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Suffix stripping happens at normalization; a residual suffix in the
	// value must still resolve through the stripped master key.
	lead := domain.Lead{
		State:    "Andhra Pradesh",
		District: "Kakinada Dist",
		Mandal:   "Pithapuram",
	}
	if lookup.NeedsManualUpdate(&lead) {
		t.Fatalf("expected suffixed district to reconcile")
	}

	// A suffix on top of a misspelling resolves via fuzzy match on the
	// stripped value.
	misspelled := domain.Lead{
		State:    "Andhra Pradesh",
		District: "Kakinda Dist",
		Mandal:   "Pithapuram Mandal",
	}
	if lookup.NeedsManualUpdate(&misspelled) {
		t.Fatalf("expected misspelled suffixed district to reconcile")
	}
}

func TestNeedsManualUpdateFailsPerStage(t *testing.T) {
	lookup, err := BuildGeoLookup(context.Background(), andhraMasterData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []domain.Lead{
		{State: "", District: "Kakinada", Mandal: "Pithapuram"},
		{State: "Karnataka", District: "Kakinada", Mandal: "Pithapuram"},
		{State: "Andhra Pradesh", District: "Nowhere", Mandal: "Pithapuram"},
		{State: "Andhra Pradesh", District: "Kakinada", Mandal: "Nowhere"},
		// Mandal exists but under a different district.
		{State: "Andhra Pradesh", District: "Kakinada", Mandal: "Anakapalle"},
		// District exists but under a different state.
		{State: "Telangana", District: "Kakinada", Mandal: "Pithapuram"},
	}
	for i, lead := range cases {
		if !lookup.NeedsManualUpdate(&lead) {
			t.Fatalf("case %d: expected lead %+v to need manual update", i, lead)
		}
	}
}

func TestAnnotateInstitutionRecordsUnknownNames(t *testing.T) {
	lookup, err := BuildGeoLookup(context.Background(), andhraMasterData())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lead := domain.Lead{SchoolOrCollegeName: "Unknown High School"}
	lookup.AnnotateInstitution(&lead)
	if got := lead.DynamicFields[unmatchedInstitutionField]; got != "Unknown High School" {
		t.Fatalf("expected unmatched institution recorded, got %q", got)
	}

	known := domain.Lead{SchoolOrCollegeName: "zphs pithapuram"}
	lookup.AnnotateInstitution(&known)
	if _, ok := known.DynamicFields[unmatchedInstitutionField]; ok {
		t.Fatalf("expected known institution (case-insensitive) to not be flagged")
	}

	empty := domain.Lead{}
	lookup.AnnotateInstitution(&empty)
	if len(empty.DynamicFields) != 0 {
		t.Fatalf("expected no annotation for empty institution name")
	}
}

func TestBuildGeoLookupPropagatesRepositoryErrors(t *testing.T) {
	_, err := BuildGeoLookup(context.Background(), &stubMasterDataRepository{err: errStubFailure})
	if err == nil {
		t.Fatalf("expected master data error to propagate")
	}
}
