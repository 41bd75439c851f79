package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core"
	"github.com/trezcool/attendo/core/attendance"
)

type attendanceRepository struct {
	students *studentTable
	records  *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{students: db.student, records: db.attendance}
}

func (repo *attendanceRepository) QueryStudents(_ context.Context, filter attendance.StudentFilter) ([]attendance.Student, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()

	regNos := make(map[string]bool, len(filter.RegisterNumbers))
	for _, rn := range filter.RegisterNumbers {
		regNos[rn] = true
	}

	students := make([]attendance.Student, 0)
	for _, st := range repo.students.table {
		if filter.Section != "" && st.Section != filter.Section {
			continue
		}
		if len(regNos) > 0 && !regNos[st.RegisterNumber] {
			continue
		}
		students = append(students, *st)
	}
	sort.Slice(students, func(i, j int) bool {
		return attendance.RegisterNumberLess(students[i].RegisterNumber, students[j].RegisterNumber)
	})
	return students, nil
}

func (repo *attendanceRepository) UpsertStudents(_ context.Context, students []attendance.Student) ([]attendance.Student, error) {
	repo.students.Lock()
	defer repo.students.Unlock()

	byRegNo := make(map[string]*attendance.Student, len(repo.students.table))
	for _, st := range repo.students.table {
		byRegNo[st.RegisterNumber] = st
	}

	saved := make([]attendance.Student, 0, len(students))
	for _, st := range students {
		if existing, ok := byRegNo[st.RegisterNumber]; ok {
			existing.FullName = st.FullName
			existing.Section = st.Section
			existing.UpdatedAt = st.UpdatedAt
			saved = append(saved, *existing)
			continue
		}
		st := st
		st.ID = uuid.New().String()
		repo.students.table[st.ID] = &st
		byRegNo[st.RegisterNumber] = &st
		saved = append(saved, st)
	}
	return saved, nil
}

func (repo *attendanceRepository) UpsertRecords(_ context.Context, records []attendance.Record) (int, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()
	repo.records.Lock()
	defer repo.records.Unlock()

	// check everything first: all or none
	for _, rec := range records {
		if _, ok := repo.students.table[rec.StudentID]; !ok {
			return 0, errors.Errorf("student %q does not exist", rec.StudentID)
		}
	}
	for _, rec := range records {
		rec := rec
		repo.records.table[recordKey{studentID: rec.StudentID, date: rec.Date, session: rec.Session}] = &rec
	}
	return len(records), nil
}

func (repo *attendanceRepository) QueryRecords(
	_ context.Context,
	filter *attendance.RecordFilter,
	ordering []core.DBOrdering,
) ([]attendance.RecordView, error) {
	repo.students.RLock()
	defer repo.students.RUnlock()
	repo.records.RLock()
	defer repo.records.RUnlock()

	if filter == nil {
		filter = &attendance.RecordFilter{}
	}
	search := strings.ToLower(filter.Search)

	views := make([]attendance.RecordView, 0)
	for _, rec := range repo.records.table {
		st := repo.students.table[rec.StudentID]
		if st == nil {
			continue
		}
		if filter.Date != "" && rec.Date != filter.Date {
			continue
		}
		if filter.Section != "" && st.Section != filter.Section {
			continue
		}
		if filter.Session != "" && string(rec.Session) != filter.Session {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(st.RegisterNumber), search) &&
			!strings.Contains(strings.ToLower(st.FullName), search) {
			continue
		}
		views = append(views, attendance.RecordView{
			Date:           rec.Date,
			Session:        rec.Session,
			RegisterNumber: st.RegisterNumber,
			FullName:       st.FullName,
			Section:        st.Section,
			Status:         rec.Status,
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		for _, ord := range ordering {
			a, b := recordField(views[i], ord.Field), recordField(views[j], ord.Field)
			if a == b {
				continue
			}
			less := a < b
			if ord.Field == "register_number" {
				less = attendance.RegisterNumberLess(a, b)
			}
			return less == ord.Ascending
		}
		return false
	})
	return views, nil
}

func recordField(rv attendance.RecordView, field string) string {
	switch field {
	case "date":
		return rv.Date
	case "session":
		return string(rv.Session)
	case "register_number":
		return rv.RegisterNumber
	case "full_name":
		return rv.FullName
	case "section":
		return rv.Section
	case "status":
		return string(rv.Status)
	}
	return ""
}
