package leadimport

import (
	"errors"
	"strconv"
	"strings"

	"github.com/admitra/leadflow/internal/domain"
)

// defaultAcademicYear is used when a row carries no parseable academic year.
const defaultAcademicYear = 2025

const notSpecifiedGroup = "Not Specified"

var (
	// ErrRowSkipped marks a row with no name at all; skipped rows are not
	// counted as processed and not recorded as errors.
	ErrRowSkipped = errors.New("row has no name")

	// ErrMissingPhone marks a row with neither phone nor father phone; these
	// rows are counted and recorded as validation errors.
	ErrMissingPhone = errors.New("row has neither phone nor father phone")
)

// geoSuffixes are stripped (case-insensitively) from district and mandal
// values, once for storage and once more when matching against master data.
var geoSuffixes = []string{
	" district",
	" dist.",
	" dist",
	" dt.",
	" dt",
	" mandalam",
	" mandal",
}

// studentGroupVariants maps lowercase free-text spellings to canonical
// student groups. Bare "inter" stays ambiguous on purpose; downstream manual
// review decides the stream.
var studentGroupVariants = map[string]string{
	"10":           "10th",
	"10th":         "10th",
	"10th class":   "10th",
	"x":            "10th",
	"ssc":          "10th",
	"tenth":        "10th",
	"class 10":     "10th",
	"mpc":          "Inter-MPC",
	"inter mpc":    "Inter-MPC",
	"inter-mpc":    "Inter-MPC",
	"intermpc":     "Inter-MPC",
	"bipc":         "Inter-BiPC",
	"inter bipc":   "Inter-BiPC",
	"inter-bipc":   "Inter-BiPC",
	"mec":          "Inter-MEC",
	"inter mec":    "Inter-MEC",
	"cec":          "Inter-CEC",
	"inter cec":    "Inter-CEC",
	"hec":          "Inter-HEC",
	"inter hec":    "Inter-HEC",
	"inter":        "Inter",
	"intermediate": "Inter",
	"poly":         "Polytechnic",
	"polytechnic":  "Polytechnic",
	"diploma":      "Polytechnic",
}

// NormalizeRow turns one raw header→value row into a canonical lead
// candidate. The returned lead still lacks its enquiry number, batch id and
// reconciliation flag; the caller fills those at write time.
func NormalizeRow(raw map[string]string) (domain.Lead, error) {
	fields := make(map[string]string, len(raw))
	var lead domain.Lead

	for header, value := range raw {
		canonical, known := CanonicalizeHeader(header)
		value = strings.TrimSpace(value)
		if !known {
			if canonical != "" && value != "" {
				lead.SetDynamicField(canonical, value)
			}
			continue
		}
		if value == "" {
			continue
		}
		fields[canonical] = value
	}

	lead.Name = fields["name"]
	if lead.Name == "" {
		return domain.Lead{}, ErrRowSkipped
	}

	lead.HallTicketNumber = fields["hallTicketNumber"]
	lead.Phone = fields["phone"]
	lead.Email = fields["email"]
	lead.FatherName = fields["fatherName"]
	lead.FatherPhone = fields["fatherPhone"]
	lead.MotherName = fields["motherName"]
	lead.CourseInterested = fields["courseInterested"]
	lead.Village = fields["village"]
	lead.State = fields["state"]
	lead.InterCollege = fields["interCollege"]
	lead.Quota = fields["quota"]
	lead.ApplicationStatus = fields["applicationStatus"]
	lead.LeadStatus = fields["leadStatus"]
	lead.Source = fields["source"]
	lead.Notes = fields["notes"]
	lead.SchoolOrCollegeName = fields["schoolOrCollegeName"]

	lead.Mandal = fields["mandal"]
	if lead.Mandal == "" {
		lead.Mandal = lead.Village
	}
	lead.District = StripGeoSuffix(fields["district"])
	lead.Mandal = StripGeoSuffix(lead.Mandal)

	lead.Gender = normalizeGender(fields["gender"])

	if rawRank, ok := fields["rank"]; ok {
		if rank, err := strconv.ParseInt(rawRank, 10, 64); err == nil {
			lead.Rank = &rank
		} else {
			// Non-numeric ranks are preserved rather than failing the row.
			lead.SetDynamicField("Rank", rawRank)
		}
	}

	lead.AcademicYear = normalizeAcademicYear(fields["academicYear"])
	lead.StudentGroup = normalizeStudentGroup(fields["studentGroup"])

	if lead.Phone == "" && lead.FatherPhone == "" {
		return domain.Lead{}, ErrMissingPhone
	}
	// The persistence schema requires both numbers.
	if lead.Phone == "" {
		lead.Phone = lead.FatherPhone
	}
	if lead.FatherPhone == "" {
		lead.FatherPhone = lead.Phone
	}

	return lead, nil
}

// StripGeoSuffix removes a trailing district/mandal style suffix.
func StripGeoSuffix(value string) string {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(value)
	for _, suffix := range geoSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(value[:len(value)-len(suffix)])
		}
	}
	return value
}

func normalizeGender(value string) string {
	if value == "" {
		return ""
	}
	switch strings.ToLower(value[:1]) {
	case "m":
		return "Male"
	case "f":
		return "Female"
	case "o":
		return "Other"
	default:
		return value
	}
}

func normalizeAcademicYear(value string) int {
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || year < 2000 || year > 2100 {
		return defaultAcademicYear
	}
	return year
}

func normalizeStudentGroup(value string) string {
	if value == "" {
		return notSpecifiedGroup
	}
	if canonical, ok := studentGroupVariants[strings.ToLower(value)]; ok {
		return canonical
	}
	return value
}
