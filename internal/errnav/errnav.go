// Package errnav steps through the failed and skipped rows of a result view.
package errnav

import "github.com/izzyreal/reportviewer/internal/merger"

type Navigator struct {
	rows  []merger.Row
	index int
}

func New(rows []merger.Row) *Navigator {
	n := &Navigator{}
	n.Reset(rows)
	return n
}

// Reset rebuilds the problem subsequence and drops the current selection.
func (n *Navigator) Reset(rows []merger.Row) {
	n.rows = n.rows[:0]
	for _, r := range rows {
		if r.Status.IsProblem() {
			n.rows = append(n.rows, r)
		}
	}
	n.index = -1
}

func (n *Navigator) Len() int { return len(n.rows) }

// Index is -1 when nothing is selected.
func (n *Navigator) Index() int { return n.index }

func (n *Navigator) Current() (merger.Row, bool) {
	if n.index < 0 || n.index >= len(n.rows) {
		return merger.Row{}, false
	}
	return n.rows[n.index], true
}

// Focus selects the matching row, or clears the selection when none matches.
func (n *Navigator) Focus(suiteName, testName string) int {
	n.index = -1
	for i, r := range n.rows {
		if r.SuiteName == suiteName && r.TestCase.Name == testName {
			n.index = i
			break
		}
	}
	return n.index
}

// Step moves by count rows, forward when positive and backward when negative,
// wrapping at both ends. With no selection the first move lands on the first
// row (forward) or the last row (backward).
func (n *Navigator) Step(count int) int {
	size := len(n.rows)
	if size == 0 || count == 0 {
		return n.index
	}
	if n.index < 0 {
		if count > 0 {
			n.index, count = 0, count-1
		} else {
			n.index, count = size-1, count+1
		}
	}
	n.index = ((n.index+count%size)%size + size) % size
	return n.index
}
