package core

import "regexp"

var orderingFieldRegex = regexp.MustCompile(`^[a-z_]+$`)

type DBOrdering struct {
	Field     string
	Ascending bool
}

// Valid reports whether Field is safe to be interpolated in an ORDER BY clause.
func (ord DBOrdering) Valid() bool {
	return orderingFieldRegex.MatchString(ord.Field)
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
