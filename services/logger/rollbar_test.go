package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/attendo/core/attendance"
	"github.com/trezcool/attendo/core/user"
)

func Test_newReport(t *testing.T) {
	errDB := errors.New("db down")
	operator := user.User{ID: "u1", Username: "priya", Name: "Priya Raman"}

	tests := []struct {
		name       string
		args       []interface{}
		wantErr    error
		wantExtras map[string]interface{}
		wantPerson *rollbar.Person
	}{
		{
			name:       "message only",
			wantExtras: map[string]interface{}{},
		},
		{
			name:       "first error wins",
			args:       []interface{}{errDB, errors.New("ignored")},
			wantErr:    errDB,
			wantExtras: map[string]interface{}{},
		},
		{
			name:       "operator",
			args:       []interface{}{operator, &user.User{ID: "u2", Username: "ravi"}},
			wantExtras: map[string]interface{}{"operator": "Priya Raman"},
			wantPerson: &rollbar.Person{Id: "u1", Username: "priya"},
		},
		{
			name:       "anonymous user",
			args:       []interface{}{user.User{}},
			wantExtras: map[string]interface{}{},
		},
		{
			name: "parsed attendance",
			args: []interface{}{attendance.ParsedAttendance{
				Date:       null.StringFrom("2026-01-31"),
				Session:    null.StringFrom("Morning"),
				Section:    null.StringFrom("A"),
				Exceptions: []attendance.Exception{{RegisterNumber: "59", Status: attendance.StatusAbsent}},
			}},
			wantExtras: map[string]interface{}{"date": "2026-01-31", "session": "Morning", "section": "A", "exceptions": 1},
		},
		{
			name: "mark result and map",
			args: []interface{}{
				attendance.MarkResult{Date: "2026-01-31", Session: "Afternoon", Section: "B", Unmatched: []string{"999"}},
				map[string]interface{}{"count": 40},
			},
			wantExtras: map[string]interface{}{
				"date": "2026-01-31", "session": "Afternoon", "section": "B", "unmatched": []string{"999"}, "count": 40,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newReport("msg", tc.args)
			assert.Equal(t, "msg", r.msg)
			assert.Equal(t, tc.wantErr, r.err)
			assert.Equal(t, tc.wantExtras, r.extras)
			assert.Equal(t, tc.wantPerson, r.person)
		})
	}
}
