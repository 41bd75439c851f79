package attendance

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/attendo/core"
)

// ParsedAttendance is the structure extracted from a free-form attendance message.
// Unrecognized fields are null; an empty Exceptions list means everyone was present.
type ParsedAttendance struct {
	Date       null.String `json:"date" validate:"required,isodate"`
	Session    null.String `json:"session" validate:"required,session"`
	Section    null.String `json:"section" validate:"required,section"`
	Exceptions []Exception `json:"exceptions" validate:"dive"`
}

// Exception marks a single student as not (fully) present.
// RegisterNumber is kept as the literal digit run: it is a lookup key, not a number.
type Exception struct {
	RegisterNumber string `json:"register_number" validate:"required,regno"`
	Status         Status `json:"status" validate:"required,exception_status"`
}

const isoDateLayout = "2006-01-02"

var (
	// <day> <month word> <year>, separated by spaces, dots, dashes or slashes
	dateRegex    = regexp.MustCompile(`\b(\d{1,2})[ \t./-]+([A-Za-z]{3,})[ \t./-]+(\d{4})\b`)
	sessionRegex = regexp.MustCompile(`(?i)morning|afternoon`)
	sectionRegex = regexp.MustCompile(`(?i)\b(?:AD|Section)[\s-]*([AB])\b`)

	months = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// Parse extracts a ParsedAttendance from raw attendance text.
// It never fails: whatever cannot be recognized is left null (or empty).
// Parse holds no state and is safe for concurrent use.
func Parse(text string) ParsedAttendance {
	parsed := ParsedAttendance{
		Date:       null.StringFromPtr(parseDate(text)),
		Session:    null.StringFromPtr(parseSession(text)),
		Section:    null.StringFromPtr(parseSection(text)),
		Exceptions: make([]Exception, 0),
	}

	var sc Scanner
	for _, line := range strings.Split(text, "\n") {
		if exc, ok := sc.Feed(line); ok {
			parsed.Exceptions = append(parsed.Exceptions, exc)
		}
	}
	return parsed
}

// parseDate returns the ISO form of the first day/month/year triple in text.
// Only the first triple is considered: an invalid one yields nil.
func parseDate(text string) *string {
	m := dateRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	iso, ok := toISODate(m[1], m[2], m[3])
	if !ok {
		return nil
	}
	return &iso
}

func toISODate(dayStr, monthStr, yearStr string) (string, bool) {
	month, ok := months[strings.ToLower(monthStr[:3])]
	if !ok {
		return "", false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return "", false
	}

	// time.Date normalizes overflows (31 Feb -> 3 Mar): reject those
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != month || date.Year() != year {
		return "", false
	}
	return date.Format(isoDateLayout), true
}

// startsWithDate reports whether line begins with a valid calendar date.
func startsWithDate(line string) bool {
	loc := dateRegex.FindStringSubmatchIndex(line)
	if loc == nil || loc[0] != 0 {
		return false
	}
	_, ok := toISODate(line[loc[2]:loc[3]], line[loc[4]:loc[5]], line[loc[6]:loc[7]])
	return ok
}

func parseSession(text string) *string {
	m := sessionRegex.FindString(text)
	if m == "" {
		return nil
	}
	session := SessionMorning
	if strings.EqualFold(m, string(SessionAfternoon)) {
		session = SessionAfternoon
	}
	s := string(session)
	return &s
}

func parseSection(text string) *string {
	m := sectionRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	s := strings.ToUpper(m[1])
	return &s
}

// Check reports the required fields that were not recognized.
// Missing exceptions are not an error: they mean full attendance.
func (pa ParsedAttendance) Check() error {
	var flds []core.FieldError
	if !pa.Date.Valid {
		flds = append(flds, core.FieldError{Field: "date", Error: ErrDateNotFound.Error()})
	}
	if !pa.Session.Valid {
		flds = append(flds, core.FieldError{Field: "session", Error: ErrSessionNotFound.Error()})
	}
	if !pa.Section.Valid {
		flds = append(flds, core.FieldError{Field: "section", Error: ErrSectionNotFound.Error()})
	}
	if flds == nil {
		return nil
	}
	return core.NewValidationError(nil, flds...)
}

// Complete reports whether date, session and section were all recognized.
func (pa ParsedAttendance) Complete() bool {
	return pa.Date.Valid && pa.Session.Valid && pa.Section.Valid
}
