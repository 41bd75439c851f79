package attendance

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/attendo/core"
)

var exportRecords = []RecordView{
	{Date: "2026-01-31", Session: SessionMorning, RegisterNumber: "59", FullName: "Mouleeswaran", Section: "B", Status: StatusAbsent},
	{Date: "2026-01-31", Session: SessionMorning, RegisterNumber: "60", FullName: "Rao, Priya", Section: "B", Status: StatusPresent},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportRecords))

	want := "Date,Session,Register No,Name,Section,Status\n" +
		"2026-01-31,Morning,59,Mouleeswaran,B,Absent\n" +
		"2026-01-31,Morning,60,\"Rao, Priya\",B,Present\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Date,Session,Register No,Name,Section,Status\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportRecords))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Attendance"}, f.GetSheetList())
	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Date", "Session", "Register No", "Name", "Section", "Status"},
		{"2026-01-31", "Morning", "59", "Mouleeswaran", "B", "Absent"},
		{"2026-01-31", "Morning", "60", "Rao, Priya", "B", "Present"},
	}, rows)
}

func TestParseStudentsCSV(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []NewStudent
		wantErr error
	}{
		{name: "empty", data: "", wantErr: ErrRosterHeader},
		{name: "missing column", data: "register_number,full_name\n59,Arun\n", wantErr: ErrRosterHeader},
		{
			name: "canonical header",
			data: "register_number,full_name,section\n59,Mouleeswaran,b\n87, Arun ,B\n",
			want: []NewStudent{
				{RegisterNumber: "59", FullName: "Mouleeswaran", Section: "B"},
				{RegisterNumber: "87", FullName: "Arun", Section: "B"},
			},
		},
		{
			name: "export header, any column order",
			data: "Section,Name,Register No\nA,Kumar,12\n",
			want: []NewStudent{{RegisterNumber: "12", FullName: "Kumar", Section: "A"}},
		},
		{name: "header only", data: "register_number,full_name,section\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStudentsCSV(strings.NewReader(tt.data))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStudentsCSV_malformed(t *testing.T) {
	_, err := ParseStudentsCSV(strings.NewReader("register_number,full_name,section\n59,Arun\n"))
	vErr, ok := core.AsValidationError(err)
	require.True(t, ok, "want a validation error, got %v", err)
	assert.Contains(t, vErr.Error(), "reading row")
}
