// Package merger flattens a backend result document into test case rows,
// optionally compared against a counterpart backend's document.
package merger

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/izzyreal/reportviewer/internal/protocol"
)

type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusSkipped Status = "SKIPPED"
)

func (s Status) IsProblem() bool {
	return s == StatusFail || s == StatusSkipped
}

type Row struct {
	SuiteName    string            `json:"suite_name"`
	SuiteDisplay string            `json:"suite_display"`
	TestCase     protocol.TestCase `json:"test_case"`
	Status       Status            `json:"status"`
	Time         *float64          `json:"time"`
	Delta        *float64          `json:"delta"`
}

type Filter string

const FilterAll Filter = "all"

func ParseFilter(raw string) (Filter, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", "ALL":
		return FilterAll, nil
	case string(StatusPass):
		return Filter(StatusPass), nil
	case string(StatusFail):
		return Filter(StatusFail), nil
	case string(StatusSkipped):
		return Filter(StatusSkipped), nil
	default:
		return "", fmt.Errorf("unknown filter %q", raw)
	}
}

func (f Filter) Match(s Status) bool {
	return f == "" || f == FilterAll || Status(f) == s
}

type Column string

const (
	ColumnNone   Column = ""
	ColumnSuite  Column = "suite"
	ColumnTest   Column = "test"
	ColumnStatus Column = "status"
	ColumnTime   Column = "time"
	ColumnDelta  Column = "delta"
)

type Sort struct {
	Column     Column `json:"column,omitempty"`
	Descending bool   `json:"descending,omitempty"`
}

func ParseSort(column, order string) (Sort, error) {
	var s Sort
	switch c := Column(strings.ToLower(strings.TrimSpace(column))); c {
	case ColumnNone, ColumnSuite, ColumnTest, ColumnStatus, ColumnTime, ColumnDelta:
		s.Column = c
	default:
		return Sort{}, fmt.Errorf("unknown sort column %q", column)
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "asc":
	case "desc":
		s.Descending = true
	default:
		return Sort{}, fmt.Errorf("unknown sort order %q", order)
	}
	return s, nil
}

// ComputeRows is pure: identical inputs always yield the same sequence.
// Suites are visited in name order and test cases in document order.
func ComputeRows(primary, counterpart *protocol.BackendResultDocument, filter Filter, order Sort) []Row {
	rows := Flatten(primary, counterpart)
	rows = FilterRows(rows, filter)
	SortRows(rows, order)
	return rows
}

func Flatten(primary, counterpart *protocol.BackendResultDocument) []Row {
	if primary == nil || len(primary.Results) == 0 {
		return []Row{}
	}
	suites := make([]string, 0, len(primary.Results))
	for name := range primary.Results {
		suites = append(suites, name)
	}
	sort.Strings(suites)

	rows := make([]Row, 0)
	for _, suite := range suites {
		for _, tc := range primary.Results[suite].TestCases {
			rows = append(rows, Row{
				SuiteName:    suite,
				SuiteDisplay: SuiteDisplay(suite),
				TestCase:     tc,
				Status:       Classify(tc),
				Time:         copyFloat(tc.Time),
				Delta:        delta(tc, suite, counterpart),
			})
		}
	}
	return rows
}

// Classify checks skipped before failure; a case should never carry both.
func Classify(tc protocol.TestCase) Status {
	switch {
	case tc.Skipped != nil:
		return StatusSkipped
	case tc.Failure != nil || tc.Error != nil:
		return StatusFail
	default:
		return StatusPass
	}
}

func SuiteDisplay(suite string) string {
	if i := strings.LastIndex(suite, "."); i >= 0 {
		return suite[i+1:]
	}
	return suite
}

func FilterRows(rows []Row, filter Filter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if filter.Match(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// SortRows sorts in place and stably. A missing time or delta sorts as +Inf:
// last when ascending, first when descending.
func SortRows(rows []Row, order Sort) {
	if order.Column == ColumnNone {
		return
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		c := compareColumn(a, b, order.Column)
		if order.Descending {
			return -c
		}
		return c
	})
}

type Tally struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func Count(rows []Row) Tally {
	t := Tally{Total: len(rows)}
	for _, r := range rows {
		switch r.Status {
		case StatusPass:
			t.Passed++
		case StatusFail:
			t.Failed++
		case StatusSkipped:
			t.Skipped++
		}
	}
	return t
}

func compareColumn(a, b Row, col Column) int {
	switch col {
	case ColumnSuite:
		return strings.Compare(a.SuiteDisplay, b.SuiteDisplay)
	case ColumnTest:
		return strings.Compare(a.TestCase.Name, b.TestCase.Name)
	case ColumnStatus:
		return cmp.Compare(statusRank(a.Status), statusRank(b.Status))
	case ColumnTime:
		return cmp.Compare(orInf(a.Time), orInf(b.Time))
	case ColumnDelta:
		return cmp.Compare(orInf(a.Delta), orInf(b.Delta))
	default:
		return 0
	}
}

func statusRank(s Status) int {
	switch s {
	case StatusFail:
		return 0
	case StatusSkipped:
		return 1
	default:
		return 2
	}
}

func orInf(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return math.Inf(1)
	}
	return *v
}

func delta(tc protocol.TestCase, suite string, counterpart *protocol.BackendResultDocument) *float64 {
	if counterpart == nil || tc.Time == nil {
		return nil
	}
	other, ok := counterpart.Results[suite]
	if !ok {
		return nil
	}
	for _, oc := range other.TestCases {
		if oc.Name != tc.Name {
			continue
		}
		if oc.Time == nil {
			return nil
		}
		d := *tc.Time - *oc.Time
		return &d
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
