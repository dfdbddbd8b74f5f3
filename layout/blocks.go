package layout

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/boleto/binding"
	"github.com/ByLCY/boleto/dsl"
)

// handleFlow stacks its children below the parent cursor and advances the
// parent past them.
func (ctx *flowContext) handleFlow(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return fmt.Errorf("line %d: flow has no body", cmd.Pos.Line)
	}
	attrs := ctx.b.attributes(cmd.Args, false)
	width := ctx.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, ctx.width); w > 0 && w <= ctx.width {
			width = w
		}
	}
	offset := alignOffset(ctx.width, width, attrs["align"])

	child := ctx.child(ctx.baseX+offset, ctx.cursorY, width)
	if align := normalizeAlign(attrs["align"]); align != "" {
		child.textAlign = align
	}
	if v := strings.TrimSpace(attrs["wrap"]); v != "" {
		child.textWrap = normalizeWrap(v)
	}
	if err := child.process(cmd.Block); err != nil {
		return err
	}
	if child.cursorY > ctx.cursorY {
		ctx.cursorY = child.cursorY + blockSpacing
	}
	return nil
}

// handleAbsolute places its children at x/y from the current origin without
// moving the cursor and without page breaks.
func (ctx *flowContext) handleAbsolute(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return fmt.Errorf("line %d: absolute has no body", cmd.Pos.Line)
	}
	attrs := ctx.b.attributes(cmd.Args, false)
	width := ctx.width
	if w := parseDimension(attrs["width"], ctx.width); w > 0 {
		width = w
	}
	x := parseDimension(attrs["x"], ctx.width)
	y := parseLength(attrs["y"])

	child := ctx.child(ctx.baseX+x, ctx.baseY+y, width)
	child.allowPageBreak = false
	if align := normalizeAlign(attrs["align"]); align != "" {
		child.textAlign = align
	}
	return child.process(cmd.Block)
}

// handleBox draws a framed cell at x/y from the current origin, an optional
// small label in its top-left corner and lays the children out inside it.
// Like absolute, it neither moves the cursor nor breaks pages.
func (ctx *flowContext) handleBox(cmd *dsl.Command) error {
	attrs := ctx.b.attributes(cmd.Args, false)
	x := ctx.baseX + parseDimension(attrs["x"], ctx.width)
	y := ctx.baseY + parseLength(attrs["y"])
	width := parseDimension(attrs["width"], ctx.width)
	height := parseLength(attrs["height"])
	if width <= 0 || height <= 0 {
		return fmt.Errorf("line %d: box needs a positive width and height", cmd.Pos.Line)
	}
	padding := boxPadding
	if v := attrs["padding"]; v != "" && isLength(v) {
		padding = parseLength(v)
	}

	if !strings.EqualFold(attrs["border"], "none") {
		rc := Rect{X: x, Y: y, Width: width, Height: height, StrokeWidth: parseLength(attrs["stroke-width"])}
		rc.StrokeColor = resolveColor(attrs["stroke"], ctx.b.res, Color{})
		if v := attrs["fill"]; v != "" {
			c := resolveColor(v, ctx.b.res, Color{})
			rc.FillColor = &c
		}
		if acc := ctx.acc(); acc != nil {
			acc.Rects = append(acc.Rects, rc)
		}
	}

	inner := width - 2*padding
	top := y + padding
	if label := attrs["label"]; label != "" {
		style := attrs["label-style"]
		if style == "" {
			style = "Label"
		}
		la := ctx.b.mergeStyle(style, map[string]string{})
		if la["size"] == "" {
			la["size"] = "6pt"
		}
		tb, h, err := ctx.b.composeTextBox(style, la, label, x+padding, top, inner, ctx.data, "nowrap")
		if err != nil {
			return err
		}
		if acc := ctx.acc(); acc != nil {
			acc.appendText(tb)
		}
		top += h + labelGap
	}

	if cmd.Block == nil {
		return nil
	}
	child := ctx.child(x+padding, top, inner)
	child.allowPageBreak = false
	if align := normalizeAlign(attrs["align"]); align != "" {
		child.textAlign = align
	}
	if v := strings.TrimSpace(attrs["wrap"]); v != "" {
		child.textWrap = normalizeWrap(v)
	}
	return child.process(cmd.Block)
}

func (ctx *flowContext) handleText(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return fmt.Errorf("line %d: text has no body", cmd.Pos.Line)
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = ctx.b.mergeStyle(styleName, attrs)
	if normalizeAlign(attrs["align"]) == "" && ctx.textAlign != "" {
		attrs["align"] = ctx.textAlign
	}
	content := extractText(cmd.Block)
	if content == "" {
		return fmt.Errorf("line %d: text has no content", cmd.Pos.Line)
	}
	wrap := ctx.textWrap
	if v := strings.TrimSpace(attrs["wrap"]); v != "" {
		wrap = normalizeWrap(v)
	}

	tb, height, err := ctx.b.composeTextBox(styleName, attrs, content, ctx.baseX, ctx.cursorY, ctx.width, ctx.data, wrap)
	if err != nil {
		return err
	}
	ctx.ensureSpace(height)
	tb.X = ctx.baseX
	tb.Y = ctx.cursorY
	if acc := ctx.acc(); acc != nil {
		acc.appendText(tb)
	}
	ctx.cursorY += height + blockSpacing
	return nil
}

// handleImage places an image at the cursor. The source may contain
// placeholders; an image whose source binds to nothing is skipped.
func (ctx *flowContext) handleImage(cmd *dsl.Command) error {
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = ctx.b.mergeStyle(styleName, attrs)
	name := styleName
	if attrs["image"] != "" {
		name = attrs["image"]
	}
	if attrs["src"] != "" {
		name = attrs["src"]
	}
	if binding.Contains(name) {
		name = binding.Interpolate(name, ctx.data)
	}
	if strings.TrimSpace(name) == "" || binding.Contains(name) {
		ctx.b.log.Debug("skipping image without source", zap.Int("line", cmd.Pos.Line))
		return nil
	}

	img := ImageBox{Path: name, X: ctx.baseX, Y: ctx.cursorY, Fit: attrs["fit"], Opacity: 1}
	if v, err := strconv.ParseFloat(attrs["opacity"], 64); err == nil {
		img.Opacity = v
	}
	if r, ok := ctx.b.res.Images[name]; ok {
		if r.Src != "" {
			img.Path = r.Src
		}
		img.Width = r.Width
		img.Height = r.Height
	}
	if w := parseDimension(attrs["width"], ctx.width); w > 0 {
		img.Width = w
	}
	if h := parseDimension(attrs["height"], ctx.width); h > 0 {
		img.Height = h
	}
	if img.Width == 0 {
		img.Width = ctx.width
		if img.Width <= 0 {
			img.Width = 40
		}
	}
	if img.Height == 0 {
		img.Height = img.Width * 0.6
	}
	align := normalizeAlign(attrs["align"])
	if align == "" {
		align = ctx.textAlign
	}

	ctx.ensureSpace(img.Height)
	img.X = ctx.baseX + alignOffset(ctx.width, img.Width, align)
	img.Y = ctx.cursorY
	if acc := ctx.acc(); acc != nil {
		acc.appendImage(img)
	}
	ctx.cursorY = img.Y + img.Height + blockSpacing
	return nil
}

// handleTable lays out header/row/cell statements with equal column widths.
// A table that does not fit is moved to the next page as a whole.
func (ctx *flowContext) handleTable(cmd *dsl.Command) error {
	if cmd.Block == nil {
		return fmt.Errorf("line %d: table has no body", cmd.Pos.Line)
	}
	attrs := ctx.b.attributes(cmd.Args, false)
	width := ctx.width
	if w := parseDimension(attrs["width"], ctx.width); w > 0 {
		width = w
	}
	rowGap := defaultTableRowGap
	for _, key := range []string{"row-gap", "rowGap"} {
		if v := attrs[key]; v != "" && isLength(v) {
			rowGap = parseLength(v)
			break
		}
	}
	columns := 0
	if c, err := strconv.Atoi(attrs["columns"]); err == nil && c > 0 {
		columns = c
	}
	border := resolveColor(attrs["border"], ctx.b.res, Color{R: 200, G: 200, B: 200})

	build := func(baseY float64) (TableBox, float64, error) {
		table := TableBox{X: ctx.baseX, Y: baseY, Width: width, RowGap: rowGap, BorderColor: border}
		y := baseY
		count := columns
		for _, stmt := range cmd.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			header := stmt.Command.Name == "header"
			if !header && stmt.Command.Name != "row" {
				continue
			}
			row, cols, err := ctx.b.buildTableRow(stmt.Command, count, width, table.X, y, header, ctx.data)
			if err != nil {
				return TableBox{}, 0, err
			}
			if count == 0 {
				count = cols
			}
			row.Y = y
			table.Rows = append(table.Rows, row)
			y += row.Height + rowGap
		}
		if count == 0 {
			return TableBox{}, 0, fmt.Errorf("line %d: table has no cells", cmd.Pos.Line)
		}
		table.ColumnWidths = make([]float64, count)
		for i := range table.ColumnWidths {
			table.ColumnWidths[i] = width / float64(count)
		}
		if len(table.Rows) > 0 {
			y -= rowGap
		}
		return table, y - baseY, nil
	}

	table, height, err := build(ctx.cursorY)
	if err != nil {
		return err
	}
	if ctx.allowPageBreak && ctx.collector != nil && ctx.cursorY+height > ctx.collector.contentBottom() {
		ctx.pageBreak()
		if table, height, err = build(ctx.cursorY); err != nil {
			return err
		}
	}
	if acc := ctx.acc(); acc != nil {
		acc.appendTable(table)
	}
	ctx.cursorY += height + blockSpacing
	return nil
}

func (b *builder) buildTableRow(cmd *dsl.Command, columns int, tableWidth, baseX, baseY float64, header bool, data any) (TableRow, int, error) {
	row := TableRow{IsHeader: header}
	if cmd.Block == nil {
		return row, 0, fmt.Errorf("line %d: %s has no cells", cmd.Pos.Line, cmd.Name)
	}
	if columns == 0 {
		columns = countCells(cmd.Block)
	}
	if columns == 0 {
		return row, 0, fmt.Errorf("line %d: %s has no cells", cmd.Pos.Line, cmd.Name)
	}
	colWidth := tableWidth / float64(columns)
	cellWidth := colWidth - 2*cellPadding
	if cellWidth <= 0 {
		cellWidth = colWidth
	}

	tallest := 0.0
	for _, stmt := range cmd.Block.Statements {
		if stmt.Command == nil || stmt.Command.Name != "cell" {
			continue
		}
		styleName, attrs := parseArgs(stmt.Command.Args, true)
		attrs = b.mergeStyle(styleName, attrs)
		content := extractText(stmt.Command.Block)
		x := baseX + float64(len(row.Cells))*colWidth
		tb, h, err := b.composeTextBox(styleName, attrs, content, x+cellPadding, baseY+cellPadding, cellWidth, data, normalizeWrap(attrs["wrap"]))
		if err != nil {
			return row, 0, err
		}
		row.Cells = append(row.Cells, TableCell{Text: tb})
		tallest = max(tallest, h)
	}
	row.Height = tallest + 2*cellPadding
	return row, len(row.Cells), nil
}

func countCells(block *dsl.Block) int {
	n := 0
	for _, stmt := range block.Statements {
		if stmt.Command != nil && stmt.Command.Name == "cell" {
			n++
		}
	}
	return n
}

// handleShape adds a line, rect or circle positioned from the current
// origin. Shapes never move the cursor.
func (ctx *flowContext) handleShape(cmd *dsl.Command) {
	_, attrs := parseArgs(cmd.Args, false)
	acc := ctx.acc()
	if acc == nil {
		return
	}
	res := ctx.b.res
	switch strings.ToLower(cmd.Name) {
	case "line":
		if ln, ok := parseLineShape(attrs, res); ok {
			ln.X1 += ctx.baseX
			ln.X2 += ctx.baseX
			ln.Y1 += ctx.baseY
			ln.Y2 += ctx.baseY
			acc.Lines = append(acc.Lines, ln)
			return
		}
	case "rect":
		if rc, ok := parseRectShape(attrs, res); ok {
			rc.X += ctx.baseX
			rc.Y += ctx.baseY
			acc.Rects = append(acc.Rects, rc)
			return
		}
	case "circle":
		if c, ok := parseCircleShape(attrs, res); ok {
			c.CX += ctx.baseX
			c.CY += ctx.baseY
			acc.Circles = append(acc.Circles, c)
			return
		}
	}
	ctx.b.log.Debug("skipping incomplete shape", zap.String("shape", cmd.Name), zap.Int("line", cmd.Pos.Line))
}

// handleUse expands a page-set in place.
func (ctx *flowContext) handleUse(cmd *dsl.Command) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("line %d: use needs a page-set name", cmd.Pos.Line)
	}
	name := cmd.Args[0].Value
	block, ok := ctx.b.pageSets[name]
	if !ok {
		return fmt.Errorf("line %d: page-set %s is not defined", cmd.Pos.Line, name)
	}
	if ctx.b.expanding[name] {
		return fmt.Errorf("line %d: page-set %s uses itself", cmd.Pos.Line, name)
	}
	ctx.b.expanding[name] = true
	defer delete(ctx.b.expanding, name)
	return ctx.process(block)
}

// parseLineShape accepts x1/y1/x2/y2 or the short form
// `x <len> y <len> length <len> [dir h|v]`.
func parseLineShape(attrs map[string]string, res ResourceSet) (Line, bool) {
	ln := Line{
		Color: resolveColor(attrs["color"], res, Color{}),
		Width: parseLength(attrs["width"]),
		Dash:  parseLength(attrs["dash"]),
	}
	if hasAny(attrs, "x1", "y1", "x2", "y2") {
		ln.X1, ln.Y1 = parseLength(attrs["x1"]), parseLength(attrs["y1"])
		ln.X2, ln.Y2 = parseLength(attrs["x2"]), parseLength(attrs["y2"])
		return ln, true
	}
	length := parseLength(attrs["length"])
	if length <= 0 {
		return Line{}, false
	}
	ln.X1, ln.Y1 = parseLength(attrs["x"]), parseLength(attrs["y"])
	switch strings.ToLower(strings.TrimSpace(attrs["dir"])) {
	case "", "h", "hor", "horizontal":
		ln.X2, ln.Y2 = ln.X1+length, ln.Y1
	case "v", "ver", "vertical":
		ln.X2, ln.Y2 = ln.X1, ln.Y1+length
	default:
		return Line{}, false
	}
	return ln, true
}

func parseRectShape(attrs map[string]string, res ResourceSet) (Rect, bool) {
	rc := Rect{
		X:           parseLength(attrs["x"]),
		Y:           parseLength(attrs["y"]),
		Width:       parseLength(attrs["width"]),
		Height:      parseLength(attrs["height"]),
		StrokeColor: resolveColor(attrs["stroke"], res, Color{}),
		StrokeWidth: parseLength(attrs["stroke-width"]),
	}
	if rc.Width <= 0 || rc.Height <= 0 {
		return Rect{}, false
	}
	if v := attrs["fill"]; v != "" {
		c := resolveColor(v, res, Color{})
		rc.FillColor = &c
	}
	return rc, true
}

func parseCircleShape(attrs map[string]string, res ResourceSet) (Circle, bool) {
	c := Circle{
		CX:          parseLength(attrs["cx"]),
		CY:          parseLength(attrs["cy"]),
		R:           parseLength(attrs["r"]),
		StrokeColor: resolveColor(attrs["stroke"], res, Color{}),
		StrokeWidth: parseLength(attrs["stroke-width"]),
	}
	if c.R <= 0 {
		return Circle{}, false
	}
	if v := attrs["fill"]; v != "" {
		col := resolveColor(v, res, Color{})
		c.FillColor = &col
	}
	return c, true
}
