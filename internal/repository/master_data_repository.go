package repository

import (
	"context"
	"fmt"

	"github.com/admitra/leadflow/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type masterDataRepository struct {
	pool *pgxpool.Pool
}

// NewMasterDataRepository wires a read-only gazetteer repository.
func NewMasterDataRepository(pool *pgxpool.Pool) MasterDataRepository {
	return &masterDataRepository{pool: pool}
}

func (r *masterDataRepository) ListStates(ctx context.Context) ([]domain.State, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("master data repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, is_active FROM states WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	states := []domain.State{}
	for rows.Next() {
		var state domain.State
		if err := rows.Scan(&state.ID, &state.Name, &state.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate states: %w", err)
	}
	return states, nil
}

func (r *masterDataRepository) ListDistricts(ctx context.Context) ([]domain.District, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("master data repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, state_id, name, is_active FROM districts WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	defer rows.Close()

	districts := []domain.District{}
	for rows.Next() {
		var district domain.District
		if err := rows.Scan(&district.ID, &district.StateID, &district.Name, &district.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		districts = append(districts, district)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate districts: %w", err)
	}
	return districts, nil
}

func (r *masterDataRepository) ListMandals(ctx context.Context) ([]domain.Mandal, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("master data repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, district_id, name, is_active FROM mandals WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list mandals: %w", err)
	}
	defer rows.Close()

	mandals := []domain.Mandal{}
	for rows.Next() {
		var mandal domain.Mandal
		if err := rows.Scan(&mandal.ID, &mandal.DistrictID, &mandal.Name, &mandal.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan mandal: %w", err)
		}
		mandals = append(mandals, mandal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mandals: %w", err)
	}
	return mandals, nil
}

func (r *masterDataRepository) ListSchools(ctx context.Context) ([]domain.School, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("master data repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, is_active FROM schools WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	defer rows.Close()

	schools := []domain.School{}
	for rows.Next() {
		var school domain.School
		if err := rows.Scan(&school.ID, &school.Name, &school.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, school)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schools: %w", err)
	}
	return schools, nil
}

func (r *masterDataRepository) ListColleges(ctx context.Context) ([]domain.College, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("master data repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, name, is_active FROM colleges WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list colleges: %w", err)
	}
	defer rows.Close()

	colleges := []domain.College{}
	for rows.Next() {
		var college domain.College
		if err := rows.Scan(&college.ID, &college.Name, &college.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan college: %w", err)
		}
		colleges = append(colleges, college)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate colleges: %w", err)
	}
	return colleges, nil
}
