package attendance_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/attendo/core"
	"github.com/trezcool/attendo/core/attendance"
	"github.com/trezcool/attendo/storage/database/inmem"
	"github.com/trezcool/attendo/tests"
)

func setup(t *testing.T) (attendance.Service, attendance.Repository, *testutil.Logger) {
	repo := inmemdb.NewAttendanceRepository(inmemdb.Open())
	logger := testutil.NewLogger()
	testutil.CreateStudents(t, repo, "A", "5", 3) // 501, 502, 503
	testutil.CreateStudents(t, repo, "B", "6", 2) // 601, 602
	return attendance.NewService(repo, logger), repo, logger
}

func parsed(date, session, section string, excs ...attendance.Exception) attendance.ParsedAttendance {
	pa := attendance.ParsedAttendance{Exceptions: excs}
	if date != "" {
		pa.Date = null.StringFrom(date)
	}
	if session != "" {
		pa.Session = null.StringFrom(session)
	}
	if section != "" {
		pa.Section = null.StringFrom(section)
	}
	if pa.Exceptions == nil {
		pa.Exceptions = []attendance.Exception{}
	}
	return pa
}

func statuses(views []attendance.RecordView) map[string]attendance.Status {
	m := make(map[string]attendance.Status, len(views))
	for _, v := range views {
		m[v.Date+" "+string(v.Session)+" "+v.RegisterNumber] = v.Status
	}
	return m
}

func TestService_Mark(t *testing.T) {
	svc, _, logger := setup(t)
	ctx := context.Background()

	res, err := svc.Mark(ctx, parsed("2026-01-31", "Morning", "A",
		attendance.Exception{RegisterNumber: "501", Status: attendance.StatusAbsent},
		attendance.Exception{RegisterNumber: "502", Status: attendance.StatusOD},
		attendance.Exception{RegisterNumber: "999", Status: attendance.StatusAbsent},
		attendance.Exception{RegisterNumber: "502", Status: attendance.StatusLate},
		attendance.Exception{RegisterNumber: "999", Status: attendance.StatusLate},
	))
	require.NoError(t, err)
	assert.Equal(t, attendance.MarkResult{
		Date:      "2026-01-31",
		Session:   "Morning",
		Section:   "A",
		Count:     3,
		Absent:    1,
		Late:      1,
		Unmatched: []string{"999"},
	}, res)

	warnings := logger.Entries("warn")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Msg, "Section A")

	views, err := svc.Query(ctx, &attendance.RecordFilter{Date: "2026-01-31"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]attendance.Status{
		"2026-01-31 Morning 501": attendance.StatusAbsent,
		"2026-01-31 Morning 502": attendance.StatusLate,
		"2026-01-31 Morning 503": attendance.StatusPresent,
	}, statuses(views))
}

func TestService_Mark_resave(t *testing.T) {
	svc, _, logger := setup(t)
	ctx := context.Background()

	_, err := svc.Mark(ctx, parsed("2026-01-31", "Morning", "B",
		attendance.Exception{RegisterNumber: "601", Status: attendance.StatusAbsent},
	))
	require.NoError(t, err)

	// corrected after review: 601 was on duty
	res, err := svc.Mark(ctx, parsed("2026-01-31", "Morning", "B",
		attendance.Exception{RegisterNumber: "601", Status: attendance.StatusOD},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 1, res.OD)
	assert.Empty(t, res.Unmatched)
	assert.Empty(t, logger.Entries("warn"))

	views, err := svc.Query(ctx, &attendance.RecordFilter{Section: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]attendance.Status{
		"2026-01-31 Morning 601": attendance.StatusOD,
		"2026-01-31 Morning 602": attendance.StatusPresent,
	}, statuses(views))
}

func TestService_Mark_errors(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		pa         attendance.ParsedAttendance
		wantFields map[string]string
	}{
		{
			name: "nothing recognized",
			pa:   parsed("", "", ""),
			wantFields: map[string]string{
				"date":    attendance.ErrDateNotFound.Error(),
				"session": attendance.ErrSessionNotFound.Error(),
				"section": attendance.ErrSectionNotFound.Error(),
			},
		},
		{
			name:       "missing session",
			pa:         parsed("2026-01-31", "", "A"),
			wantFields: map[string]string{"session": attendance.ErrSessionNotFound.Error()},
		},
		{
			name:       "empty roster",
			pa:         parsed("2026-01-31", "Morning", "C"),
			wantFields: map[string]string{"section": "no student records found for Section C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Mark(ctx, tt.pa)
			vErr, ok := core.AsValidationError(err)
			require.True(t, ok, "Mark() error = %v, want a validation error", err)
			assert.Equal(t, tt.wantFields, vErr.FieldMap())
		})
	}

	views, err := repo.QueryRecords(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, views, "nothing must be saved on error")
}

func TestService_Query(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Mark(ctx, parsed("2026-01-30", "Afternoon", "A"))
	require.NoError(t, err)
	_, err = svc.Mark(ctx, parsed("2026-01-31", "Morning", "B",
		attendance.Exception{RegisterNumber: "602", Status: attendance.StatusAbsent},
	))
	require.NoError(t, err)

	t.Run("default ordering", func(t *testing.T) {
		views, err := svc.Query(ctx, nil, nil)
		require.NoError(t, err)
		got := make([]string, 0, len(views))
		for _, v := range views {
			got = append(got, v.Date+" "+v.RegisterNumber)
		}
		assert.Equal(t, []string{
			"2026-01-31 601", "2026-01-31 602",
			"2026-01-30 501", "2026-01-30 502", "2026-01-30 503",
		}, got)
	})

	t.Run("section=ALL", func(t *testing.T) {
		views, err := svc.Query(ctx, &attendance.RecordFilter{Section: "ALL"}, nil)
		require.NoError(t, err)
		assert.Len(t, views, 5)
	})

	t.Run("search", func(t *testing.T) {
		views, err := svc.Query(ctx, &attendance.RecordFilter{Search: "student b 2"}, nil)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, attendance.RecordView{
			Date:           "2026-01-31",
			Session:        attendance.SessionMorning,
			RegisterNumber: "602",
			FullName:       "Student B 2",
			Section:        "B",
			Status:         attendance.StatusAbsent,
		}, views[0])
	})

	t.Run("custom ordering", func(t *testing.T) {
		views, err := svc.Query(ctx, &attendance.RecordFilter{Section: "A"}, []core.DBOrdering{{Field: "register_number"}})
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Equal(t, "503", views[0].RegisterNumber)
	})

	t.Run("invalid ordering", func(t *testing.T) {
		_, err := svc.Query(ctx, nil, []core.DBOrdering{{Field: "password"}})
		vErr, ok := core.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"ordering": `cannot order by "password"`}, vErr.FieldMap())
	})
}

func TestService_Stats(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	marks := []attendance.ParsedAttendance{
		parsed("2026-01-31", "Morning", "A",
			attendance.Exception{RegisterNumber: "501", Status: attendance.StatusAbsent},
			attendance.Exception{RegisterNumber: "502", Status: attendance.StatusOD},
		),
		parsed("2026-01-31", "Afternoon", "A",
			attendance.Exception{RegisterNumber: "501", Status: attendance.StatusAbsent},
			attendance.Exception{RegisterNumber: "503", Status: attendance.StatusLate},
		),
		parsed("2026-02-01", "Morning", "A",
			attendance.Exception{RegisterNumber: "501", Status: attendance.StatusAbsent},
		),
		parsed("2026-01-31", "Morning", "B"),
	}
	for _, pa := range marks {
		_, err := svc.Mark(ctx, pa)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []attendance.StudentStats{
		{RegisterNumber: "501", FullName: "Student A 1", Section: "A", Total: 3, Absent: 3, Percentage: 0},
		{RegisterNumber: "502", FullName: "Student A 2", Section: "A", Total: 3, Present: 2, OD: 1, Percentage: 100},
		{RegisterNumber: "503", FullName: "Student A 3", Section: "A", Total: 3, Present: 2, Late: 1, Percentage: 100},
		{RegisterNumber: "601", FullName: "Student B 1", Section: "B", Total: 1, Present: 1, Percentage: 100},
		{RegisterNumber: "602", FullName: "Student B 2", Section: "B", Total: 1, Present: 1, Percentage: 100},
	}, stats)

	stats, err = svc.Stats(ctx, &attendance.RecordFilter{Date: "2026-01-31", Section: "A"})
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, 0.0, stats[0].Percentage)
	assert.Equal(t, 2, stats[0].Total)

	// percentages are rounded to 2 decimals
	_, err = svc.Mark(ctx, parsed("2026-02-01", "Afternoon", "A",
		attendance.Exception{RegisterNumber: "502", Status: attendance.StatusAbsent},
		attendance.Exception{RegisterNumber: "501", Status: attendance.StatusOD},
	))
	require.NoError(t, err)
	stats, err = svc.Stats(ctx, &attendance.RecordFilter{Section: "A"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, stats[0].Percentage)
	assert.Equal(t, 75.0, stats[1].Percentage)

	_, err = svc.Mark(ctx, parsed("2026-02-02", "Morning", "A",
		attendance.Exception{RegisterNumber: "501", Status: attendance.StatusAbsent},
	))
	require.NoError(t, err)
	stats, err = svc.Stats(ctx, &attendance.RecordFilter{Section: "A"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, stats[0].Percentage)
	assert.Equal(t, 80.0, stats[1].Percentage)
}

func TestService_ImportStudents(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	saved, err := svc.ImportStudents(ctx, []attendance.NewStudent{
		{RegisterNumber: " 501 ", FullName: "Arun Kumar", Section: "a"},
		{RegisterNumber: "701", FullName: "Priya", Section: "B"},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Arun Kumar", saved[0].FullName)
	assert.NotEmpty(t, saved[1].ID)

	roster, err := svc.Students(ctx, attendance.StudentFilter{Section: "A"})
	require.NoError(t, err)
	assert.Len(t, roster, 3)
	assert.Equal(t, "Arun Kumar", roster[0].FullName)

	roster, err = svc.Students(ctx, attendance.StudentFilter{RegisterNumbers: []string{"701", "602"}})
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "602", roster[0].RegisterNumber)
	assert.Equal(t, "701", roster[1].RegisterNumber)
}

func TestService_registerNumberOrder(t *testing.T) {
	svc := attendance.NewService(inmemdb.NewAttendanceRepository(inmemdb.Open()), testutil.NewLogger())
	ctx := context.Background()

	_, err := svc.ImportStudents(ctx, []attendance.NewStudent{
		{RegisterNumber: "100", FullName: "Arun", Section: "A"},
		{RegisterNumber: "59", FullName: "Kumar", Section: "A"},
		{RegisterNumber: "7", FullName: "Priya", Section: "A"},
	})
	require.NoError(t, err)
	_, err = svc.Mark(ctx, parsed("2026-01-31", "Morning", "A"))
	require.NoError(t, err)

	want := []string{"7", "59", "100"}

	roster, err := svc.Students(ctx, attendance.StudentFilter{})
	require.NoError(t, err)
	got := make([]string, 0, len(roster))
	for _, st := range roster {
		got = append(got, st.RegisterNumber)
	}
	assert.Equal(t, want, got)

	tests := []struct {
		name      string
		ascending bool
		want      []string
	}{
		{name: "ascending", ascending: true, want: want},
		{name: "descending", want: []string{"100", "59", "7"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			views, err := svc.Query(ctx, nil, []core.DBOrdering{{Field: "register_number", Ascending: tc.ascending}})
			require.NoError(t, err)
			got := make([]string, 0, len(views))
			for _, v := range views {
				got = append(got, v.RegisterNumber)
			}
			assert.Equal(t, tc.want, got)
		})
	}

	stats, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	got = got[:0]
	for _, st := range stats {
		got = append(got, st.RegisterNumber)
	}
	assert.Equal(t, want, got)
}
