package inmemdb

import (
	"sync"

	"github.com/trezcool/attendo/core/attendance"
	"github.com/trezcool/attendo/core/user"
)

type (
	DB struct {
		user       *userTable
		student    *studentTable
		attendance *attendanceTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*attendance.Student // by ID
	}

	recordKey struct {
		studentID string
		date      string
		session   attendance.Session
	}

	attendanceTable struct {
		sync.RWMutex
		table map[recordKey]*attendance.Record
	}
)

// Open returns an empty in-memory database, used by tests and local runs without postgres.
func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		student:    &studentTable{table: make(map[string]*attendance.Student)},
		attendance: &attendanceTable{table: make(map[recordKey]*attendance.Record)},
	}
}
