package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is the canonical, normalized form of one imported row. The fixed
// fields below are the canonical lead schema; anything the canonicalizer
// does not recognize lands in DynamicFields instead of being dropped.
type Lead struct {
	ID                  uuid.UUID         `json:"id"`
	EnquiryNumber       string            `json:"enquiry_number"`
	HallTicketNumber    string            `json:"hall_ticket_number,omitempty"`
	Name                string            `json:"name"`
	Phone               string            `json:"phone"`
	Email               string            `json:"email,omitempty"`
	FatherName          string            `json:"father_name,omitempty"`
	FatherPhone         string            `json:"father_phone"`
	MotherName          string            `json:"mother_name,omitempty"`
	CourseInterested    string            `json:"course_interested,omitempty"`
	Village             string            `json:"village,omitempty"`
	District            string            `json:"district,omitempty"`
	Mandal              string            `json:"mandal,omitempty"`
	State               string            `json:"state,omitempty"`
	Gender              string            `json:"gender,omitempty"`
	Rank                *int64            `json:"rank,omitempty"`
	InterCollege        string            `json:"inter_college,omitempty"`
	Quota               string            `json:"quota,omitempty"`
	ApplicationStatus   string            `json:"application_status,omitempty"`
	LeadStatus          string            `json:"lead_status,omitempty"`
	Source              string            `json:"source,omitempty"`
	Notes               string            `json:"notes,omitempty"`
	AcademicYear        int               `json:"academic_year"`
	StudentGroup        string            `json:"student_group,omitempty"`
	SchoolOrCollegeName string            `json:"school_or_college_name,omitempty"`
	DynamicFields       map[string]string `json:"dynamic_fields,omitempty"`

	NeedsManualUpdate bool      `json:"needs_manual_update"`
	UploadBatchID     uuid.UUID `json:"upload_batch_id"`
	UploadedBy        string    `json:"uploaded_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// CanonicalFields lists every fixed lead attribute the import pipeline
// normalizes toward, in the order the alias table is built.
var CanonicalFields = []string{
	"hallTicketNumber",
	"name",
	"phone",
	"email",
	"fatherName",
	"fatherPhone",
	"motherName",
	"courseInterested",
	"village",
	"district",
	"mandal",
	"state",
	"gender",
	"rank",
	"interCollege",
	"quota",
	"applicationStatus",
	"leadStatus",
	"source",
	"notes",
	"academicYear",
	"studentGroup",
	"schoolOrCollegeName",
}

// SetDynamicField lazily allocates the overflow bag.
func (l *Lead) SetDynamicField(key, value string) {
	if l.DynamicFields == nil {
		l.DynamicFields = make(map[string]string)
	}
	l.DynamicFields[key] = value
}
