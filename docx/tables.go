package docx

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/rybkakrzy/importer-sub001/model"
)

// parsedCell is a cell as stored in the XML, before vertical merges are
// folded into row spans.
type parsedCell struct {
	cell         model.Cell
	col          int
	restart      bool
	continuation bool
}

// readTable reads a w:tbl.
func (st *readState) readTable(ctx *partCtx, tbl *etree.Element, depth int) (*model.Table, error) {
	if err := st.reader.limits.CheckDepth("docx.Read", depth); err != nil {
		return nil, err
	}

	table := &model.Table{}
	if el := findChild(tbl, "tblPr"); el != nil {
		var props tablePropsXML
		if err := decodeElement(el, &props); err == nil {
			table.StyleID = st.resolveStyle(ctx, props.Style.Val, model.StyleTable)
		}
	}
	if el := findChild(tbl, "tblGrid"); el != nil {
		var grid tableGridXML
		if err := decodeElement(el, &grid); err == nil {
			table.ColWidths = parseTableGrid(grid)
		}
	}

	var rows [][]parsedCell
	var headers []bool
	for _, tr := range tableRows(tbl) {
		cells, header, err := st.readRow(ctx, tr, depth)
		if err != nil {
			return nil, err
		}
		rows = append(rows, cells)
		headers = append(headers, header)
	}

	processVerticalMerges(rows)

	for i, cells := range rows {
		row := model.Row{IsHeader: headers[i]}
		for _, pc := range cells {
			if pc.continuation {
				continue
			}
			pc.cell.IsHeader = headers[i]
			row.Cells = append(row.Cells, pc.cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// tableRows returns the rows of a table, looking through content controls.
func tableRows(tbl *etree.Element) []*etree.Element {
	var rows []*etree.Element
	for _, el := range tbl.ChildElements() {
		switch wTag(el) {
		case "tr":
			rows = append(rows, el)
		case "sdt":
			if content := findChild(el, "sdtContent"); content != nil {
				rows = append(rows, tableRows(content)...)
			}
		case "customXml":
			rows = append(rows, tableRows(el)...)
		}
	}
	return rows
}

// parseTableGrid extracts column widths from the table grid.
func parseTableGrid(grid tableGridXML) []float64 {
	if len(grid.Cols) == 0 {
		return nil
	}
	widths := make([]float64, len(grid.Cols))
	for i, col := range grid.Cols {
		widths[i] = parseTwips(col.W)
	}
	return widths
}

// readRow reads the cells of a w:tr.
func (st *readState) readRow(ctx *partCtx, tr *etree.Element, depth int) ([]parsedCell, bool, error) {
	var header bool
	if el := findChild(tr, "trPr"); el != nil {
		var props rowPropsXML
		if err := decodeElement(el, &props); err == nil {
			header = toggle(props.Header).On()
		}
	}

	var cells []parsedCell
	col := 0
	var walk func(parent *etree.Element) error
	walk = func(parent *etree.Element) error {
		for _, el := range parent.ChildElements() {
			switch wTag(el) {
			case "tc":
				pc, err := st.readCell(ctx, el, depth)
				if err != nil {
					return err
				}
				pc.col = col
				col += pc.cell.ColSpan
				cells = append(cells, pc)
			case "sdt":
				if content := findChild(el, "sdtContent"); content != nil {
					if err := walk(content); err != nil {
						return err
					}
				}
			case "customXml":
				if err := walk(el); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(tr); err != nil {
		return nil, false, err
	}
	return cells, header, nil
}

// readCell reads a w:tc.
func (st *readState) readCell(ctx *partCtx, tc *etree.Element, depth int) (parsedCell, error) {
	pc := parsedCell{cell: model.Cell{ColSpan: 1, RowSpan: 1}}

	if el := findChild(tc, "tcPr"); el != nil {
		var props cellPropsXML
		if err := decodeElement(el, &props); err == nil {
			if span, err := strconv.Atoi(props.GridSpan.Val); err == nil && span > 0 {
				pc.cell.ColSpan = span
			}
			if props.VMerge.XMLName.Local != "" {
				if props.VMerge.Val == "restart" {
					pc.restart = true
				} else {
					// empty val means continue
					pc.continuation = true
				}
			}
		}
	}

	blocks, err := st.readBlocks(ctx, tc, depth+1)
	if err != nil {
		return pc, err
	}
	pc.cell.Blocks = blocks
	return pc, nil
}

// processVerticalMerges calculates row spans for vertically merged cells.
// A continuation without a matching restart above becomes a normal cell.
func processVerticalMerges(rows [][]parsedCell) {
	origins := make(map[int]*parsedCell) // grid column -> cell that started the merge

	for r := range rows {
		for i := range rows[r] {
			pc := &rows[r][i]
			switch {
			case pc.continuation:
				origin, ok := origins[pc.col]
				if !ok {
					pc.continuation = false
					continue
				}
				origin.cell.RowSpan++
				if model.BlocksText(pc.cell.Blocks) != "" {
					origin.cell.Blocks = append(origin.cell.Blocks, pc.cell.Blocks...)
				}
			case pc.restart:
				origins[pc.col] = pc
			default:
				delete(origins, pc.col)
			}
		}
	}
}

// writeTable emits a w:tbl. Row spans are written back as vMerge
// restart/continue pairs on the covered grid positions.
func (w *writeState) writeTable(parent *etree.Element, t *model.Table, ctx *writeCtx) {
	tbl := parent.CreateElement("w:tbl")

	tblPr := tbl.CreateElement("w:tblPr")
	style := t.StyleID
	if style == "" {
		style = "TableGrid"
	}
	tblPr.CreateElement("w:tblStyle").CreateAttr("w:val", style)
	tblW := tblPr.CreateElement("w:tblW")
	tblW.CreateAttr("w:w", "0")
	tblW.CreateAttr("w:type", "auto")
	tblPr.CreateElement("w:tblLook").CreateAttr("w:val", "04A0")

	placements := t.Placements()
	cols := t.ColCount()
	grid := tbl.CreateElement("w:tblGrid")
	for i := 0; i < cols; i++ {
		width := defaultColumnWidth(cols)
		if i < len(t.ColWidths) && t.ColWidths[i] > 0 {
			width = t.ColWidths[i]
		}
		grid.CreateElement("w:gridCol").CreateAttr("w:w", twips(width))
	}

	for r, row := range t.Rows {
		tr := tbl.CreateElement("w:tr")
		if row.IsHeader {
			tr.CreateElement("w:trPr").CreateElement("w:tblHeader")
		}
		for _, pl := range placements[r] {
			tc := tr.CreateElement("w:tc")
			tcPr := tc.CreateElement("w:tcPr")
			tcW := tcPr.CreateElement("w:tcW")
			tcW.CreateAttr("w:w", "0")
			tcW.CreateAttr("w:type", "auto")
			if pl.Span > 1 {
				tcPr.CreateElement("w:gridSpan").CreateAttr("w:val", strconv.Itoa(pl.Span))
			}

			if pl.Continuation {
				tcPr.CreateElement("w:vMerge")
				tc.CreateElement("w:p")
				continue
			}
			if pl.Cell.RowSpan > 1 {
				tcPr.CreateElement("w:vMerge").CreateAttr("w:val", "restart")
			}

			w.writeBlocks(tc, pl.Cell.Blocks, ctx)
			// A cell must end with a paragraph.
			if n := len(pl.Cell.Blocks); n == 0 || pl.Cell.Blocks[n-1].Type() != model.BlockTypeParagraph {
				tc.CreateElement("w:p")
			}
		}
	}
}

// defaultColumnWidth splits a 16 cm text width evenly.
func defaultColumnWidth(cols int) float64 {
	if cols <= 0 {
		return 0
	}
	return 453.6 / float64(cols)
}
