package leadimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/admitra/leadflow/internal/domain"
	"github.com/admitra/leadflow/internal/repository"
	"github.com/admitra/leadflow/pkg/fuzzy"

	"github.com/google/uuid"
)

// geoMatchThreshold is the similarity a fuzzy geography match must strictly
// exceed during reconciliation.
const geoMatchThreshold = 0.80

// unmatchedInstitutionField is the dynamic-fields key recording a
// school/college name absent from master data. Institution mismatches never
// set the needs-manual-update flag; they are follow-up material only.
const unmatchedInstitutionField = "Unmatched School/College"

type geoScope struct {
	byKey map[string]uuid.UUID
	names []string
}

func newGeoScope() *geoScope {
	return &geoScope{byKey: make(map[string]uuid.UUID)}
}

// register indexes a master name under its folded raw form and its folded
// suffix-stripped form so both resolve. Names are appended in insertion
// order, which follows master-data primary keys, keeping fuzzy tie-breaks
// stable.
func (s *geoScope) register(name string, id uuid.UUID) {
	key := foldGeoKey(name)
	if key == "" {
		return
	}
	if _, exists := s.byKey[key]; !exists {
		s.byKey[key] = id
		s.names = append(s.names, name)
	}
	stripped := foldGeoKey(StripGeoSuffix(name))
	if stripped != "" && stripped != key {
		if _, exists := s.byKey[stripped]; !exists {
			s.byKey[stripped] = id
		}
	}
}

// resolve finds the entry for value by exact folded lookup, then with its
// geography suffix stripped, then by fuzzy match against the registered
// names.
func (s *geoScope) resolve(value string) (uuid.UUID, bool) {
	key := foldGeoKey(value)
	if key == "" {
		return uuid.Nil, false
	}
	if id, ok := s.byKey[key]; ok {
		return id, true
	}
	stripped := StripGeoSuffix(value)
	if strippedKey := foldGeoKey(stripped); strippedKey != key {
		if id, ok := s.byKey[strippedKey]; ok {
			return id, true
		}
	}
	match, ok := fuzzy.FindBestMatch(stripped, s.names, geoMatchThreshold)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := s.byKey[foldGeoKey(match)]
	return id, ok
}

// GeoLookup holds the per-job, read-only master-data index used to decide
// whether a lead's geography reconciles.
type GeoLookup struct {
	states            *geoScope
	districtsByState  map[uuid.UUID]*geoScope
	mandalsByDistrict map[uuid.UUID]*geoScope
	institutions      map[string]struct{}
}

// BuildGeoLookup loads all active master data into lookup maps. It is called
// once per import job; the result is treated as read-only afterwards.
func BuildGeoLookup(ctx context.Context, masterData repository.MasterDataRepository) (*GeoLookup, error) {
	lookup := &GeoLookup{
		states:            newGeoScope(),
		districtsByState:  make(map[uuid.UUID]*geoScope),
		mandalsByDistrict: make(map[uuid.UUID]*geoScope),
		institutions:      make(map[string]struct{}),
	}

	states, err := masterData.ListStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load states: %w", err)
	}
	for _, state := range states {
		lookup.states.register(state.Name, state.ID)
	}

	districts, err := masterData.ListDistricts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load districts: %w", err)
	}
	for _, district := range districts {
		scope, ok := lookup.districtsByState[district.StateID]
		if !ok {
			scope = newGeoScope()
			lookup.districtsByState[district.StateID] = scope
		}
		scope.register(district.Name, district.ID)
	}

	mandals, err := masterData.ListMandals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load mandals: %w", err)
	}
	for _, mandal := range mandals {
		scope, ok := lookup.mandalsByDistrict[mandal.DistrictID]
		if !ok {
			scope = newGeoScope()
			lookup.mandalsByDistrict[mandal.DistrictID] = scope
		}
		scope.register(mandal.Name, mandal.ID)
	}

	schools, err := masterData.ListSchools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schools: %w", err)
	}
	for _, school := range schools {
		lookup.institutions[foldGeoKey(school.Name)] = struct{}{}
	}

	colleges, err := masterData.ListColleges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load colleges: %w", err)
	}
	for _, college := range colleges {
		lookup.institutions[foldGeoKey(college.Name)] = struct{}{}
	}

	return lookup, nil
}

// NeedsManualUpdate resolves state → district → mandal in order and reports
// true when any stage fails to reconcile. A missing state always needs
// manual review. The check is pure with respect to the lookup snapshot.
func (l *GeoLookup) NeedsManualUpdate(lead *domain.Lead) bool {
	stateID, ok := l.states.resolve(lead.State)
	if !ok {
		return true
	}

	districts, ok := l.districtsByState[stateID]
	if !ok {
		return true
	}
	districtID, ok := districts.resolve(lead.District)
	if !ok {
		return true
	}

	mandals, ok := l.mandalsByDistrict[districtID]
	if !ok {
		return true
	}
	if _, ok := mandals.resolve(lead.Mandal); !ok {
		return true
	}

	return false
}

// AnnotateInstitution records an unknown school/college into the lead's
// dynamic fields without affecting the manual-update flag.
func (l *GeoLookup) AnnotateInstitution(lead *domain.Lead) {
	name := strings.TrimSpace(lead.SchoolOrCollegeName)
	if name == "" {
		return
	}
	if _, ok := l.institutions[foldGeoKey(name)]; !ok {
		lead.SetDynamicField(unmatchedInstitutionField, name)
	}
}

func foldGeoKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
