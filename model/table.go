package model

import (
	"fmt"
	"strings"
)

// Table represents a table with cells organized in rows. Cells covered by a
// row span from an earlier row are not stored, as in HTML.
type Table struct {
	StyleID   string
	Rows      []Row
	ColWidths []float64 // points, from the table grid when known
}

// Row is a table row.
type Row struct {
	Cells    []Cell
	IsHeader bool // repeated as header row
}

// Cell represents a table cell
type Cell struct {
	Blocks   []Block
	RowSpan  int
	ColSpan  int
	IsHeader bool
}

func (t *Table) Type() BlockType { return BlockTypeTable }

func (t *Table) Text() string {
	var sb strings.Builder
	for i, row := range t.Rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		for j, cell := range row.Cells {
			if j > 0 {
				sb.WriteString("\t")
			}
			sb.WriteString(strings.ReplaceAll(BlocksText(cell.Blocks), "\n", " "))
		}
	}
	return sb.String()
}

// NewTable creates a new table with given dimensions, each cell holding an
// empty paragraph.
func NewTable(rows, cols int) *Table {
	table := &Table{
		Rows: make([]Row, rows),
	}
	for i := 0; i < rows; i++ {
		table.Rows[i].Cells = make([]Cell, cols)
		for j := 0; j < cols; j++ {
			table.Rows[i].Cells[j] = Cell{
				Blocks:  []Block{&Paragraph{}},
				RowSpan: 1,
				ColSpan: 1,
			}
		}
	}
	return table
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of grid columns, taking spans into account.
func (t *Table) ColCount() int {
	cols := len(t.ColWidths)
	for _, row := range t.Placements() {
		for _, pl := range row {
			if end := pl.Col + pl.Span; end > cols {
				cols = end
			}
		}
	}
	return cols
}

// GetCell returns the cell at the given row and cell index (0-indexed)
func (t *Table) GetCell(row, idx int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if idx < 0 || idx >= len(t.Rows[row].Cells) {
		return nil
	}
	return &t.Rows[row].Cells[idx]
}

// SetCell sets the cell at the given position
func (t *Table) SetCell(row, idx int, cell Cell) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of bounds", row)
	}
	if idx < 0 || idx >= len(t.Rows[row].Cells) {
		return fmt.Errorf("cell index %d out of bounds", idx)
	}
	t.Rows[row].Cells[idx] = cell
	return nil
}

// Placement locates a cell, or the continuation of a row-spanning cell, on
// the table grid.
type Placement struct {
	Col          int
	Span         int
	Cell         *Cell // nil for continuations
	Continuation bool
	Last         bool // last row covered by a continuation
}

type carry struct {
	remaining int
	span      int
}

// Placements lays out every row on the column grid. Rows that are covered by
// a row span from above receive continuation placements at the covered
// columns, which is how WordprocessingML stores vertical merges.
func (t *Table) Placements() [][]Placement {
	out := make([][]Placement, len(t.Rows))
	var carries []carry

	for r := range t.Rows {
		row := &t.Rows[r]
		var line []Placement
		col, ci := 0, 0
		for {
			if col < len(carries) && carries[col].remaining > 0 {
				c := &carries[col]
				c.remaining--
				line = append(line, Placement{Col: col, Span: c.span, Continuation: true, Last: c.remaining == 0})
				col += c.span
				continue
			}
			if ci >= len(row.Cells) {
				if !carriesAfter(carries, col) {
					break
				}
				col++
				continue
			}
			cell := &row.Cells[ci]
			span := max(cell.ColSpan, 1)
			line = append(line, Placement{Col: col, Span: span, Cell: cell})
			if cell.RowSpan > 1 {
				for len(carries) <= col {
					carries = append(carries, carry{})
				}
				carries[col] = carry{remaining: cell.RowSpan - 1, span: span}
			}
			ci++
			col += span
		}
		out[r] = line
	}
	return out
}

func carriesAfter(carries []carry, col int) bool {
	for i := col; i < len(carries); i++ {
		if carries[i].remaining > 0 {
			return true
		}
	}
	return false
}
