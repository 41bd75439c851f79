package attendance

import (
	"strings"
	"time"

	"github.com/trezcool/attendo/core"
)

type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
	StatusOD      Status = "OD"
	StatusLate    Status = "Late"
)

// Attended reports whether the status counts as attended for percentages.
// OD students were away on institutional business and count as present.
func (s Status) Attended() bool {
	return s == StatusPresent || s == StatusOD || s == StatusLate
}

type Session string

const (
	SessionMorning   Session = "Morning"
	SessionAfternoon Session = "Afternoon"
)

var (
	Sessions = []Session{SessionMorning, SessionAfternoon}
	Sections = []string{"A", "B"}
	// ExceptionStatuses are the only statuses the parser emits.
	ExceptionStatuses = []Status{StatusAbsent, StatusOD, StatusLate}
)

type Student struct {
	ID             string    `json:"id" db:"id"`
	RegisterNumber string    `json:"register_number" db:"register_number"`
	FullName       string    `json:"full_name" db:"full_name"`
	Section        string    `json:"section" db:"section"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Record is the status of one student for one session of one day.
// (StudentID, Date, Session) is unique.
type Record struct {
	StudentID string    `json:"student_id" db:"student_id"`
	Date      string    `json:"date" db:"date"` // YYYY-MM-DD
	Session   Session   `json:"session" db:"session"`
	Status    Status    `json:"status" db:"status"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// RecordView is a Record joined with its Student.
type RecordView struct {
	Date           string  `json:"date" db:"date"`
	Session        Session `json:"session" db:"session"`
	RegisterNumber string  `json:"register_number" db:"register_number"`
	FullName       string  `json:"full_name" db:"full_name"`
	Section        string  `json:"section" db:"section"`
	Status         Status  `json:"status" db:"status"`
}

// NewStudent contains information needed to add a Student to a roster.
type NewStudent struct {
	RegisterNumber string `json:"register_number" validate:"required,regno"`
	FullName       string `json:"full_name" validate:"required"`
	Section        string `json:"section" validate:"required,section"`
}

func (ns *NewStudent) Clean() {
	ns.RegisterNumber = core.CleanString(ns.RegisterNumber)
	ns.FullName = core.CleanString(ns.FullName)
	ns.Section = strings.ToUpper(core.CleanString(ns.Section))
}

type StudentFilter struct {
	Section         string   `query:"section"`
	RegisterNumbers []string `query:"register_number"`
}

type RecordFilter struct {
	Date    string `query:"date"`
	Section string `query:"section"`
	Session string `query:"session"`
	// Search does a case-insensitive match on the student's register number or name.
	Search string `query:"search"`
}

func (rf *RecordFilter) Clean() {
	rf.Date = core.CleanString(rf.Date)
	rf.Section = strings.ToUpper(core.CleanString(rf.Section))
	if rf.Section == "ALL" {
		rf.Section = ""
	}
	rf.Session = core.CleanString(rf.Session)
	rf.Search = core.CleanString(rf.Search)
}

func (rf *RecordFilter) IsEmpty() bool {
	return rf.Date == "" && rf.Section == "" && rf.Session == "" && rf.Search == ""
}

// MarkResult summarizes a saved attendance.
type MarkResult struct {
	Date    string `json:"date"`
	Session string `json:"session"`
	Section string `json:"section"`
	Count   int    `json:"count"`
	Absent  int    `json:"absent"`
	OD      int    `json:"od"`
	Late    int    `json:"late"`
	// Unmatched lists register numbers that are not in the section's roster.
	Unmatched []string `json:"unmatched"`
}

type StudentStats struct {
	RegisterNumber string  `json:"register_number"`
	FullName       string  `json:"full_name"`
	Section        string  `json:"section"`
	Total          int     `json:"total"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	OD             int     `json:"od"`
	Late           int     `json:"late"`
	Percentage     float64 `json:"percentage"`
}
