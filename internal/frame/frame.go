package frame

import (
	"fmt"
	"strings"
)

// Frame is a small ordered table: named columns (duplicates allowed), an
// optional label per row and a grid of values.
type Frame struct {
	// IndexName names the label column when the frame is written out
	IndexName string
	Columns   []string
	// Labels is either nil (unlabelled rows) or has one entry per row
	Labels []string
	Rows   [][]Value
}

// New creates an empty frame with the given columns
func New(columns ...string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Labelled reports whether rows carry labels
func (f *Frame) Labelled() bool {
	return f.Labels != nil
}

// Append adds a row. The row is padded with missing values or truncated to
// the column count.
func (f *Frame) Append(label string, row []Value) {
	fitted := make([]Value, len(f.Columns))
	copy(fitted, row)
	f.Rows = append(f.Rows, fitted)
	if f.Labels != nil || label != "" {
		for len(f.Labels) < len(f.Rows)-1 {
			f.Labels = append(f.Labels, "")
		}
		f.Labels = append(f.Labels, label)
	}
}

// Label returns the label of row i, or "" for unlabelled frames
func (f *Frame) Label(i int) string {
	if f.Labels == nil || i >= len(f.Labels) {
		return ""
	}
	return f.Labels[i]
}

// Clone returns a deep copy
func (f *Frame) Clone() *Frame {
	out := &Frame{
		IndexName: f.IndexName,
		Columns:   append([]string(nil), f.Columns...),
		Rows:      make([][]Value, len(f.Rows)),
	}
	if f.Labels != nil {
		out.Labels = append([]string(nil), f.Labels...)
	}
	for i, r := range f.Rows {
		out.Rows[i] = append([]Value(nil), r...)
	}
	return out
}

// ColumnIndex returns the position of the first column named name, or -1
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the first column named name
func (f *Frame) Column(name string) ([]Value, bool) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]Value, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[idx]
	}
	return out, true
}

// Get returns the value at row i in the first column named name
func (f *Frame) Get(i int, name string) Value {
	idx := f.ColumnIndex(name)
	if idx < 0 || i < 0 || i >= len(f.Rows) {
		return NA()
	}
	return f.Rows[i][idx]
}

// Row returns the first row labelled label
func (f *Frame) Row(label string) ([]Value, bool) {
	for i := range f.Rows {
		if f.Label(i) == label {
			return append([]Value(nil), f.Rows[i]...), true
		}
	}
	return nil, false
}

// Without returns a copy with every row labelled label removed
func (f *Frame) Without(label string) *Frame {
	out := &Frame{IndexName: f.IndexName, Columns: append([]string(nil), f.Columns...)}
	if f.Labels != nil {
		out.Labels = []string{}
	}
	for i, r := range f.Rows {
		if f.Label(i) == label {
			continue
		}
		out.Rows = append(out.Rows, append([]Value(nil), r...))
		if f.Labels != nil {
			out.Labels = append(out.Labels, f.Labels[i])
		}
	}
	return out
}

// SetColumn sets every row of column name to v, adding the column if absent
func (f *Frame) SetColumn(name string, v Value) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		f.Columns = append(f.Columns, name)
		for i := range f.Rows {
			f.Rows[i] = append(f.Rows[i], v)
		}
		return
	}
	for i := range f.Rows {
		f.Rows[i][idx] = v
	}
}

// Map applies fn to every cell of the first column named name
func (f *Frame) Map(name string, fn func(Value) Value) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return
	}
	for i := range f.Rows {
		f.Rows[i][idx] = fn(f.Rows[i][idx])
	}
}

// MapAll applies fn to every cell
func (f *Frame) MapAll(fn func(Value) Value) {
	for i := range f.Rows {
		for j := range f.Rows[i] {
			f.Rows[i][j] = fn(f.Rows[i][j])
		}
	}
}

// LowerColumns lower-cases every column name in place
func (f *Frame) LowerColumns() {
	for i, c := range f.Columns {
		f.Columns[i] = strings.ToLower(c)
	}
}

// Suffix appends s to every column name in place
func (f *Frame) Suffix(s string) {
	for i, c := range f.Columns {
		f.Columns[i] = c + s
	}
}

// Max returns the per-column maximum over numeric cells. A column with no
// numeric cell yields Missing.
func (f *Frame) Max() []Value {
	out := make([]Value, len(f.Columns))
	for j := range f.Columns {
		for _, r := range f.Rows {
			n, ok := r[j].Float()
			if !ok {
				continue
			}
			if cur, seen := out[j].Float(); !seen || n > cur {
				out[j] = Num(n)
			}
		}
	}
	return out
}

// Select returns a copy holding only the columns for which keep is true
func (f *Frame) Select(keep func(string) bool) *Frame {
	var idx []int
	for i, c := range f.Columns {
		if keep(c) {
			idx = append(idx, i)
		}
	}
	return f.pick(idx)
}

// Project returns a copy whose columns are exactly cols. Each column takes
// the first matching column of f; names f lacks are filled with Missing and
// returned in absent.
func (f *Frame) Project(cols []string) (out *Frame, absent []string) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = f.ColumnIndex(c)
		if idx[i] < 0 {
			absent = append(absent, c)
		}
	}
	out = &Frame{IndexName: f.IndexName, Columns: append([]string(nil), cols...)}
	if f.Labels != nil {
		out.Labels = append([]string(nil), f.Labels...)
	}
	out.Rows = make([][]Value, len(f.Rows))
	for i, r := range f.Rows {
		row := make([]Value, len(cols))
		for j, k := range idx {
			if k >= 0 {
				row[j] = r[k]
			}
		}
		out.Rows[i] = row
	}
	return out, absent
}

func (f *Frame) pick(idx []int) *Frame {
	out := &Frame{IndexName: f.IndexName, Columns: make([]string, len(idx))}
	for j, k := range idx {
		out.Columns[j] = f.Columns[k]
	}
	if f.Labels != nil {
		out.Labels = append([]string(nil), f.Labels...)
	}
	out.Rows = make([][]Value, len(f.Rows))
	for i, r := range f.Rows {
		row := make([]Value, len(idx))
		for j, k := range idx {
			row[j] = r[k]
		}
		out.Rows[i] = row
	}
	return out
}

// Reverse returns a copy with rows in reverse order
func (f *Frame) Reverse() *Frame {
	out := f.Clone()
	for i, j := 0, len(out.Rows)-1; i < j; i, j = i+1, j-1 {
		out.Rows[i], out.Rows[j] = out.Rows[j], out.Rows[i]
		if out.Labels != nil {
			out.Labels[i], out.Labels[j] = out.Labels[j], out.Labels[i]
		}
	}
	return out
}

// Join concatenates b's columns onto a, aligning rows by label. Rows only b
// has are appended after a's rows; cells a row lacks are Missing.
func Join(a, b *Frame) *Frame {
	out := &Frame{
		IndexName: a.IndexName,
		Columns:   append(append([]string(nil), a.Columns...), b.Columns...),
		Labels:    []string{},
	}
	width := len(a.Columns)
	pos := make(map[string]int, len(a.Rows))
	for i, r := range a.Rows {
		row := make([]Value, len(out.Columns))
		copy(row, r)
		label := a.Label(i)
		if _, dup := pos[label]; !dup {
			pos[label] = i
		}
		out.Rows = append(out.Rows, row)
		out.Labels = append(out.Labels, label)
	}
	used := make(map[int]bool)
	for i, r := range b.Rows {
		label := b.Label(i)
		if k, ok := pos[label]; ok && !used[k] {
			used[k] = true
			copy(out.Rows[k][width:], r)
			continue
		}
		row := make([]Value, len(out.Columns))
		copy(row[width:], r)
		out.Rows = append(out.Rows, row)
		out.Labels = append(out.Labels, label)
	}
	return out
}

// Beside concatenates b's columns onto a row by row. Both frames must have
// the same number of rows; a's labels are kept.
func Beside(a, b *Frame) (*Frame, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("row count mismatch: %d vs %d", a.Len(), b.Len())
	}
	out := &Frame{
		IndexName: a.IndexName,
		Columns:   append(append([]string(nil), a.Columns...), b.Columns...),
		Rows:      make([][]Value, a.Len()),
	}
	if a.Labels != nil {
		out.Labels = append([]string(nil), a.Labels...)
	}
	for i := range a.Rows {
		out.Rows[i] = append(append([]Value(nil), a.Rows[i]...), b.Rows[i]...)
	}
	return out, nil
}

// Stack concatenates frames row-wise. All frames must share one column list.
// Labels are kept when every frame is labelled.
func Stack(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New(), nil
	}
	out := &Frame{
		IndexName: frames[0].IndexName,
		Columns:   append([]string(nil), frames[0].Columns...),
	}
	labelled := true
	for _, f := range frames {
		labelled = labelled && f.Labelled()
	}
	if labelled {
		out.Labels = []string{}
	}
	for n, f := range frames {
		if !sameColumns(out.Columns, f.Columns) {
			return nil, fmt.Errorf("frame %d: columns differ from first frame", n)
		}
		for i, r := range f.Rows {
			out.Rows = append(out.Rows, append([]Value(nil), r...))
			if labelled {
				out.Labels = append(out.Labels, f.Label(i))
			}
		}
	}
	return out, nil
}

// Dedup returns names with repeats removed, first occurrence wins
func Dedup(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
