package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/admitra/leadflow/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicatePhone indicates a lead with the same phone already exists.
var ErrDuplicatePhone = errors.New("lead with this phone already exists")

// phoneUniqueIndex is the unique index backing the duplicate-phone guarantee;
// see migrations/002_create_leads.up.sql.
const phoneUniqueIndex = "idx_leads_phone"

// isDuplicatePhone reports whether err is a unique violation on the phone
// index. Other unique violations (the enquiry_number constraint) are not
// duplicate phones and must surface as-is.
func isDuplicatePhone(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == phoneUniqueIndex
}

type leadRepository struct {
	pool *pgxpool.Pool
}

// NewLeadRepository wires a lead repository backed by pgxpool.
func NewLeadRepository(pool *pgxpool.Pool) LeadRepository {
	return &leadRepository{pool: pool}
}

func (r *leadRepository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	if r.pool == nil {
		return domain.Lead{}, fmt.Errorf("lead repository not initialized")
	}

	var dynamicJSON []byte
	if len(lead.DynamicFields) > 0 {
		encoded, err := json.Marshal(lead.DynamicFields)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("failed to marshal dynamic fields: %w", err)
		}
		dynamicJSON = encoded
	}

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO leads (
			enquiry_number, hall_ticket_number, name, phone, email,
			father_name, father_phone, mother_name, course_interested,
			village, district, mandal, state, gender, rank,
			inter_college, quota, application_status, lead_status,
			source, notes, academic_year, student_group,
			school_or_college_name, dynamic_fields,
			needs_manual_update, upload_batch_id, uploaded_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		) RETURNING id, created_at`,
		lead.EnquiryNumber,
		lead.HallTicketNumber,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.FatherName,
		lead.FatherPhone,
		lead.MotherName,
		lead.CourseInterested,
		lead.Village,
		lead.District,
		lead.Mandal,
		lead.State,
		lead.Gender,
		lead.Rank,
		lead.InterCollege,
		lead.Quota,
		lead.ApplicationStatus,
		lead.LeadStatus,
		lead.Source,
		lead.Notes,
		lead.AcademicYear,
		lead.StudentGroup,
		lead.SchoolOrCollegeName,
		dynamicJSON,
		lead.NeedsManualUpdate,
		lead.UploadBatchID,
		lead.UploadedBy,
	).Scan(&lead.ID, &lead.CreatedAt)
	if err != nil {
		if isDuplicatePhone(err) {
			return domain.Lead{}, fmt.Errorf("%w: %s", ErrDuplicatePhone, lead.Phone)
		}
		return domain.Lead{}, fmt.Errorf("failed to create lead: %w", err)
	}

	return lead, nil
}

func (r *leadRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("lead repository not initialized")
	}

	var exists bool
	err := r.pool.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM leads WHERE phone = $1)`,
		phone,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check phone: %w", err)
	}
	return exists, nil
}

func (r *leadRepository) MaxEnquirySequence(ctx context.Context, prefix string) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("lead repository not initialized")
	}

	var number string
	err := r.pool.QueryRow(
		ctx,
		`SELECT enquiry_number
		 FROM leads
		 WHERE enquiry_number LIKE $1 || '%'
		 ORDER BY length(enquiry_number) DESC, enquiry_number DESC
		 LIMIT 1`,
		prefix,
	).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query last enquiry number: %w", err)
	}

	sequence, parseErr := domain.ParseEnquirySequence(number, prefix)
	if parseErr != nil {
		return 0, parseErr
	}
	return sequence, nil
}
