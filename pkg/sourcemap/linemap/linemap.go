// Package linemap converts byte offsets within a source string to
// zero-based (line, column) positions.
package linemap

import "regexp"

// lineTerminator matches a run up to and including a line terminator
// (CRLF, CR, or LF), or a final run with no terminator at end of input.
var lineTerminator = regexp.MustCompile(`.*?(\r\n|\r|\n)|.+$`)

// Table holds, for entry i, the byte offset one past the end of line i.
// table[-1] is implicitly 0 (handled by Lookup).
type Table []int

// Build scans input and records the running byte offset after each
// line terminator (or after the final partial line at end of input).
func Build(input string) Table {
	var table Table
	for _, loc := range lineTerminator.FindAllStringIndex(input, -1) {
		table = append(table, loc[1])
	}
	return table
}

// Lookup finds the smallest index l such that table[l] > pos, and
// returns the zero-based (line, column) for pos within that line.
func Lookup(table Table, pos int) (line, column int) {
	prev := 0
	for i, end := range table {
		if end > pos {
			return i, pos - prev
		}
		prev = end
	}
	// pos lies beyond every recorded line (e.g. just after a trailing
	// newline, or past EOF): report it on the line after the last
	// recorded one, with the column counted from that line's end.
	if len(table) == 0 {
		return 0, pos
	}
	return len(table), pos - table[len(table)-1]
}
