package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/attendo/core"
	"github.com/trezcool/attendo/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) QueryStudents(ctx context.Context, filter attendance.StudentFilter) ([]attendance.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Section != "" {
		args = append(args, filter.Section)
		where = append(where, "section = $1")
	}
	if len(filter.RegisterNumbers) > 0 {
		args = append(args, pq.Array(filter.RegisterNumbers))
		where = append(where, "register_number = ANY($"+strconv.Itoa(len(args))+")")
	}

	q := `SELECT id, register_number, full_name, section, created_at, updated_at FROM students`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY length(register_number), register_number`

	students := make([]attendance.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

func (repo *attendanceRepository) UpsertStudents(ctx context.Context, students []attendance.Student) ([]attendance.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO students (id, register_number, full_name, section, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (register_number) DO UPDATE
		SET full_name = EXCLUDED.full_name, section = EXCLUDED.section, updated_at = EXCLUDED.updated_at
		RETURNING id, register_number, full_name, section, created_at, updated_at`

	saved := make([]attendance.Student, 0, len(students))
	for _, st := range students {
		var s attendance.Student
		err = tx.GetContext(ctx, &s, q,
			uuid.New().String(), st.RegisterNumber, st.FullName, st.Section, st.CreatedAt, st.UpdatedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "upserting student %s", st.RegisterNumber)
		}
		saved = append(saved, s)
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return saved, nil
}

func (repo *attendanceRepository) UpsertRecords(ctx context.Context, records []attendance.Record) (int, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO attendance (student_id, date, session, status, updated_at)
		VALUES (:student_id, :date, :session, :status, :updated_at)
		ON CONFLICT (student_id, date, session) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return 0, errors.Wrap(err, "preparing statement")
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx, rec); err != nil {
			return 0, errors.Wrapf(err, "upserting record of student %s", rec.StudentID)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing transaction")
	}
	return len(records), nil
}

func (repo *attendanceRepository) QueryRecords(
	ctx context.Context,
	filter *attendance.RecordFilter,
	ordering []core.DBOrdering,
) ([]attendance.RecordView, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Date != "" {
			args = append(args, filter.Date)
			where = append(where, "a.date = $"+strconv.Itoa(len(args)))
		}
		if filter.Section != "" {
			args = append(args, filter.Section)
			where = append(where, "s.section = $"+strconv.Itoa(len(args)))
		}
		if filter.Session != "" {
			args = append(args, filter.Session)
			where = append(where, "a.session = $"+strconv.Itoa(len(args)))
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			where = append(where, "(s.register_number ILIKE $"+strconv.Itoa(len(args))+" OR s.full_name ILIKE $"+strconv.Itoa(len(args))+")")
		}
	}

	q := `SELECT to_char(a.date, 'YYYY-MM-DD') AS date, a.session, s.register_number, s.full_name, s.section, a.status
		FROM attendance a JOIN students s ON s.id = a.student_id`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	if len(ordering) > 0 {
		orderBy := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			if !ord.Valid() {
				return nil, errors.Errorf("invalid ordering field %q", ord.Field)
			}
			if ord.Field == "register_number" {
				// digit strings: shorter ones first, same as attendance.RegisterNumberLess
				length := core.DBOrdering{Field: "length(s.register_number)", Ascending: ord.Ascending}
				orderBy = append(orderBy, length.String(), core.DBOrdering{Field: "s.register_number", Ascending: ord.Ascending}.String())
				continue
			}
			orderBy = append(orderBy, ord.String())
		}
		q += ` ORDER BY ` + strings.Join(orderBy, ", ")
	}

	views := make([]attendance.RecordView, 0)
	if err := repo.db.SelectContext(ctx, &views, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting records")
	}
	return views, nil
}
