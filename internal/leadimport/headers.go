package leadimport

import (
	"strings"

	"github.com/admitra/leadflow/internal/domain"
)

// headerAliases maps canonical lead fields to the header spellings seen in
// uploaded spreadsheets. Lookup is case and punctuation insensitive; every
// canonical field also maps to itself.
var headerAliases = map[string][]string{
	"hallTicketNumber": {"hall ticket", "hall ticket no", "hall ticket number", "hallticket", "ht no", "htno"},
	"name":             {"student name", "candidate name", "name of the student", "name of student", "full name"},
	"phone":            {"mobile", "mobile no", "mobile number", "phone no", "phone number", "contact", "contact no", "contact number", "student phone", "student mobile"},
	"email":            {"email id", "e mail", "mail", "mail id"},
	"fatherName":       {"father name", "fathers name", "father's name", "parent name"},
	"fatherPhone": {
		"father phone", "father phone no", "father mobile", "father mobile no",
		"father contact", "father contact no", "father contact number",
		"fathers phone", "father's phone", "fathers mobile", "father's mobile",
		"parent phone", "parent mobile", "parent contact",
	},
	"motherName":          {"mother name", "mothers name", "mother's name"},
	"courseInterested":    {"course", "course interested", "interested course", "course name", "program", "programme"},
	"village":             {"village name", "village/city", "city/village", "city"},
	"district":            {"district name", "dist", "dist name"},
	"mandal":              {"mandal name", "mandalam", "tehsil", "block"},
	"state":               {"state name"},
	"gender":              {"sex"},
	"rank":                {"eamcet rank", "merit rank", "rank obtained"},
	"interCollege":        {"inter college", "intermediate college", "previous college", "college studied"},
	"quota":               {"category", "reservation", "quota category"},
	"applicationStatus":   {"application status", "app status"},
	"leadStatus":          {"lead status", "status"},
	"source":              {"lead source", "source of lead"},
	"notes":               {"remarks", "comments", "comment", "note"},
	"academicYear":        {"academic year", "admission year", "year", "ay"},
	"studentGroup":        {"group", "student group", "stream", "class", "standard", "course group"},
	"schoolOrCollegeName": {"school", "college", "school name", "college name", "school/college", "school or college", "institution", "institution name"},
}

var headerLookup = buildHeaderLookup()

func buildHeaderLookup() map[string]string {
	lookup := make(map[string]string)
	for _, field := range domain.CanonicalFields {
		lookup[normalizeHeaderKey(field)] = field
	}
	for field, aliases := range headerAliases {
		for _, alias := range aliases {
			lookup[normalizeHeaderKey(alias)] = field
		}
	}
	return lookup
}

// CanonicalizeHeader maps a raw column header to its canonical lead field.
// Unrecognized headers are returned trimmed and unchanged with ok=false so
// their values can be routed into the dynamic-fields bag instead of dropped.
func CanonicalizeHeader(raw string) (string, bool) {
	key := normalizeHeaderKey(raw)
	if key == "" {
		return strings.TrimSpace(raw), false
	}
	if field, ok := headerLookup[key]; ok {
		return field, true
	}
	return strings.TrimSpace(raw), false
}

// normalizeHeaderKey lowercases and strips everything non-alphanumeric so
// "Father's Phone", "father phone" and "FATHER-PHONE" collide.
func normalizeHeaderKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
