package attendance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core"
)

var (
	// errors
	ErrDateNotFound    = errors.New("could not find date: expected format 'DD Mon YYYY'")
	ErrSessionNotFound = errors.New("could not find session: expected 'Morning' or 'Afternoon'")
	ErrSectionNotFound = errors.New("could not find section: expected 'AD-A', 'AD-B' or 'Section A/B'")
	ErrEmptyRoster     = errors.New("no student records found for section")
	ErrInvalidOrdering = errors.New("invalid ordering field")

	orderingFields = map[string]bool{
		"date": true, "session": true, "register_number": true, "full_name": true, "section": true, "status": true,
	}
	defaultOrdering = []core.DBOrdering{
		{Field: "date", Ascending: false},
		{Field: "session", Ascending: true},
		{Field: "register_number", Ascending: true},
	}

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// QueryStudents applies AND operation on the non-empty StudentFilter fields.
		QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
		// UpsertStudents creates or updates students by RegisterNumber.
		UpsertStudents(ctx context.Context, students []Student) ([]Student, error)
		// UpsertRecords creates or updates records by (StudentID, Date, Session), all or none.
		UpsertRecords(ctx context.Context, records []Record) (int, error)
		// QueryRecords applies AND operation on the non-empty RecordFilter fields.
		QueryRecords(ctx context.Context, filter *RecordFilter, ordering []core.DBOrdering) ([]RecordView, error)
	}

	Service interface {
		Mark(ctx context.Context, pa ParsedAttendance) (MarkResult, error)
		Query(ctx context.Context, filter *RecordFilter, ordering []core.DBOrdering) ([]RecordView, error)
		Stats(ctx context.Context, filter *RecordFilter) ([]StudentStats, error)
		ImportStudents(ctx context.Context, students []NewStudent) ([]Student, error)
		Students(ctx context.Context, filter StudentFilter) ([]Student, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{repo: repo, logger: logger}
}

// Mark saves the attendance of every student in the section's roster.
// Students default to Present and are overridden by exceptions (last listed wins).
// Saving the same attendance again re-asserts the same statuses.
func (svc *service) Mark(ctx context.Context, pa ParsedAttendance) (MarkResult, error) {
	if err := pa.Check(); err != nil {
		return MarkResult{}, err
	}
	date, session, section := pa.Date.String, pa.Session.String, pa.Section.String

	roster, err := svc.repo.QueryStudents(ctx, StudentFilter{Section: section})
	if err != nil {
		return MarkResult{}, errors.Wrap(err, "querying roster")
	}
	if len(roster) == 0 {
		return MarkResult{}, core.NewValidationError(
			ErrEmptyRoster,
			core.FieldError{Field: "section", Error: fmt.Sprintf("no student records found for Section %s", section)},
		)
	}

	statuses := make(map[string]Status, len(pa.Exceptions))
	for _, exc := range pa.Exceptions {
		statuses[exc.RegisterNumber] = exc.Status
	}

	res := MarkResult{Date: date, Session: session, Section: section, Unmatched: []string{}}
	now := nowFunc().UTC()
	inRoster := make(map[string]bool, len(roster))
	records := make([]Record, 0, len(roster))
	for _, st := range roster {
		inRoster[st.RegisterNumber] = true
		status, ok := statuses[st.RegisterNumber]
		if !ok {
			status = StatusPresent
		}
		switch status {
		case StatusAbsent:
			res.Absent++
		case StatusOD:
			res.OD++
		case StatusLate:
			res.Late++
		}
		records = append(records, Record{
			StudentID: st.ID,
			Date:      date,
			Session:   Session(session),
			Status:    status,
			UpdatedAt: now,
		})
	}

	seen := make(map[string]bool)
	for _, exc := range pa.Exceptions {
		if !inRoster[exc.RegisterNumber] && !seen[exc.RegisterNumber] {
			seen[exc.RegisterNumber] = true
			res.Unmatched = append(res.Unmatched, exc.RegisterNumber)
		}
	}
	if len(res.Unmatched) > 0 {
		svc.logger.Warn(
			fmt.Sprintf("register numbers not found in Section %s roster", section),
			map[string]interface{}{"date": date, "session": session, "unmatched": res.Unmatched},
		)
	}

	cnt, err := svc.repo.UpsertRecords(ctx, records)
	if err != nil {
		return MarkResult{}, errors.Wrap(err, "upserting records")
	}
	res.Count = cnt
	return res, nil
}

func (svc *service) Query(ctx context.Context, filter *RecordFilter, ordering []core.DBOrdering) ([]RecordView, error) {
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	for _, ord := range ordering {
		if !orderingFields[ord.Field] {
			return nil, core.NewValidationError(
				ErrInvalidOrdering,
				core.FieldError{Field: "ordering", Error: fmt.Sprintf("cannot order by %q", ord.Field)},
			)
		}
	}
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryRecords(ctx, filter, ordering)
}

// Stats computes per-student attendance over the filtered records.
// OD and Late count as attended.
func (svc *service) Stats(ctx context.Context, filter *RecordFilter) ([]StudentStats, error) {
	records, err := svc.Query(ctx, filter, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying records")
	}

	byRegNo := make(map[string]*StudentStats)
	for _, rec := range records {
		st, ok := byRegNo[rec.RegisterNumber]
		if !ok {
			st = &StudentStats{RegisterNumber: rec.RegisterNumber, FullName: rec.FullName, Section: rec.Section}
			byRegNo[rec.RegisterNumber] = st
		}
		st.Total++
		switch rec.Status {
		case StatusPresent:
			st.Present++
		case StatusAbsent:
			st.Absent++
		case StatusOD:
			st.OD++
		case StatusLate:
			st.Late++
		}
	}

	stats := make([]StudentStats, 0, len(byRegNo))
	for _, st := range byRegNo {
		attended := st.Present + st.OD + st.Late
		st.Percentage = math.Round(float64(attended)*10000/float64(st.Total)) / 100
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Section != stats[j].Section {
			return stats[i].Section < stats[j].Section
		}
		return RegisterNumberLess(stats[i].RegisterNumber, stats[j].RegisterNumber)
	})
	return stats, nil
}

// RegisterNumberLess orders digit strings numerically without converting them.
// Repositories sort register numbers with it, or with its SQL equivalent.
func RegisterNumberLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (svc *service) ImportStudents(ctx context.Context, students []NewStudent) ([]Student, error) {
	now := nowFunc().UTC()
	sts := make([]Student, 0, len(students))
	for _, ns := range students {
		ns.Clean()
		sts = append(sts, Student{
			RegisterNumber: ns.RegisterNumber,
			FullName:       ns.FullName,
			Section:        ns.Section,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	saved, err := svc.repo.UpsertStudents(ctx, sts)
	if err != nil {
		return nil, errors.Wrap(err, "upserting students")
	}
	return saved, nil
}

func (svc *service) Students(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter)
}
