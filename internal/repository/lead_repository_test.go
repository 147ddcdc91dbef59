package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsDuplicatePhoneMatchesPhoneIndexViolationOnly(t *testing.T) {
	phoneViolation := &pgconn.PgError{Code: "23505", ConstraintName: phoneUniqueIndex}
	if !isDuplicatePhone(phoneViolation) {
		t.Fatalf("expected phone index violation to map to duplicate phone")
	}

	wrapped := fmt.Errorf("insert failed: %w", phoneViolation)
	if !isDuplicatePhone(wrapped) {
		t.Fatalf("expected wrapped phone index violation to map to duplicate phone")
	}

	enquiryViolation := &pgconn.PgError{Code: "23505", ConstraintName: "leads_enquiry_number_key"}
	if isDuplicatePhone(enquiryViolation) {
		t.Fatalf("expected enquiry number violation to not map to duplicate phone")
	}

	otherError := &pgconn.PgError{Code: "23503", ConstraintName: phoneUniqueIndex}
	if isDuplicatePhone(otherError) {
		t.Fatalf("expected non-unique-violation code to not map to duplicate phone")
	}

	if isDuplicatePhone(errors.New("connection reset")) {
		t.Fatalf("expected plain error to not map to duplicate phone")
	}
}
