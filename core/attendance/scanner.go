package attendance

import "strings"

// Category is the line scanner state: the status of the block being read.
type Category int

const (
	CategoryNone Category = iota
	CategoryAbsent
	CategoryOD
	CategoryLate
)

func (c Category) String() string {
	switch c {
	case CategoryAbsent:
		return "Absent"
	case CategoryOD:
		return "OD"
	case CategoryLate:
		return "Late"
	default:
		return "None"
	}
}

// Status returns the exception status recorded under the category.
func (c Category) Status() (Status, bool) {
	switch c {
	case CategoryAbsent:
		return StatusAbsent, true
	case CategoryOD:
		return StatusOD, true
	case CategoryLate:
		return StatusLate, true
	}
	return "", false
}

// LineKind classifies a single line of attendance text.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeader
	LineReset
	LineDate
	LineEntry
)

// headers are matched case-insensitively, as substrings, in order; the first match wins.
// Entry lines whose names hold a keyword ("7.Vinod") are read as headers too.
var headers = []struct {
	category Category
	keywords []string // lower-cased
}{
	{CategoryAbsent, []string{"absent"}},
	{CategoryOD, []string{"od", "on duty"}},
	{CategoryLate, []string{"late"}},
}

// resetMarkers close the current block. Matched case-sensitively, unlike headers.
var resetMarkers = []string{"Present", "Total"}

// ClassifyLine returns the kind of line and, for header lines, the category it opens.
func ClassifyLine(line string) (LineKind, Category) {
	line = strings.TrimSpace(line)
	if line == "" {
		return LineBlank, CategoryNone
	}
	lower := strings.ToLower(line)
	for _, h := range headers {
		for _, kw := range h.keywords {
			if strings.Contains(lower, kw) {
				return LineHeader, h.category
			}
		}
	}
	for _, marker := range resetMarkers {
		if strings.Contains(line, marker) {
			return LineReset, CategoryNone
		}
	}
	if startsWithDate(line) {
		return LineDate, CategoryNone
	}
	return LineEntry, CategoryNone
}

// Scanner reads attendance text line by line and emits exceptions found under
// category headers. The zero value is ready to use, in CategoryNone.
type Scanner struct {
	state Category
}

// State returns the active category.
func (sc *Scanner) State() Category {
	return sc.state
}

// Feed advances the scanner by one line. It returns an exception when the line is
// an entry, starting with a register number, inside an active category block.
func (sc *Scanner) Feed(line string) (Exception, bool) {
	kind, category := ClassifyLine(line)
	switch kind {
	case LineHeader:
		sc.state = category
	case LineReset:
		sc.state = CategoryNone
	case LineEntry:
		status, ok := sc.state.Status()
		if !ok {
			return Exception{}, false
		}
		if regNo := leadingDigits(strings.TrimSpace(line)); regNo != "" {
			return Exception{RegisterNumber: regNo, Status: status}, true
		}
	}
	return Exception{}, false
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
