package domain

import "github.com/google/uuid"

// State is a top-level gazetteer entry.
type State struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// District belongs to exactly one state.
type District struct {
	ID       uuid.UUID `json:"id"`
	StateID  uuid.UUID `json:"state_id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// Mandal belongs to exactly one district.
type Mandal struct {
	ID         uuid.UUID `json:"id"`
	DistrictID uuid.UUID `json:"district_id"`
	Name       string    `json:"name"`
	IsActive   bool      `json:"is_active"`
}

// School is a master-data school name used for reconciliation follow-up.
type School struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

// College is a master-data college name used for reconciliation follow-up.
type College struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}
