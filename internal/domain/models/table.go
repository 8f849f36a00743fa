package models

import (
	"math"
	"strconv"
	"strings"
)

// Field is one named cell of a record, either text or a Value.
type Field struct {
	Name   string `json:"name"`
	Value  Value  `json:"value"`
	Text   string `json:"text,omitempty"`
	IsText bool   `json:"is_text,omitempty"`
}

// TextField builds a text cell. Empty text displays as N/A.
func TextField(name, text string) Field {
	if text == "" {
		text = NotAvailable
	}
	return Field{Name: name, Text: text, IsText: true}
}

// NumField builds a numeric cell.
func NumField(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Display renders the cell for humans.
func (f Field) Display() string {
	if f.IsText {
		return f.Text
	}
	n, ok := f.Value.Float64()
	if !ok {
		return NotAvailable
	}
	return FormatNumber(n)
}

// FormatNumber prints large magnitudes with thousands separators and small ones with four decimals.
func FormatNumber(n float64) string {
	if math.Abs(n) < 1000 {
		return strconv.FormatFloat(n, 'f', 4, 64)
	}
	s := strconv.FormatFloat(math.Abs(n), 'f', 0, 64)
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	out := strings.Join(append([]string{s}, groups...), ",")
	if n < 0 {
		out = "-" + out
	}
	return out
}

// Table is a row per ticker view of one ratio group.
type Table struct {
	Group   Group     `json:"group"`
	Title   string    `json:"title"`
	Columns []string  `json:"columns"`
	Rows    [][]Field `json:"rows"`
}

// NewTable lays records out under the group's heading.
func NewTable[R Record](group Group, records []R) Table {
	var zero R
	header := zero.Fields()
	t := Table{
		Group:   group,
		Title:   group.Title(),
		Columns: make([]string, len(header)),
		Rows:    make([][]Field, 0, len(records)),
	}
	for i, f := range header {
		t.Columns[i] = f.Name
	}
	for _, r := range records {
		t.Rows = append(t.Rows, r.Fields())
	}
	return t
}
