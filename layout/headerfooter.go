package layout

import "github.com/ByLCY/boleto/dsl"

// buildHeaderFooter lays out a header or footer block. Content is stacked
// like a flow, centred by default. A header is bottom-aligned inside its
// area; a footer area sits at the page bottom. The area height defaults to
// the content height.
func (b *builder) buildHeaderFooter(cmd *dsl.Command, pageW, pageH float64, margin Margin, data any) (HeaderFooter, error) {
	var hf HeaderFooter
	if cmd.Block == nil {
		return hf, nil
	}
	attrs := b.attributes(cmd.Args, false)
	contentWidth := pageW - margin.Left - margin.Right

	ctx := &flowContext{
		b:         b,
		baseX:     margin.Left,
		width:     contentWidth,
		data:      data,
		sink:      &hf.Elements,
		margin:    margin,
		textAlign: "center",
		textWrap:  "anywhere",
	}
	if align := normalizeAlign(attrs["align"]); align != "" {
		ctx.textAlign = align
	}
	if err := ctx.process(cmd.Block); err != nil {
		return hf, err
	}

	contentHeight := max(ctx.cursorY-blockSpacing, 0)
	areaHeight := contentHeight
	if h := parseDimension(attrs["height"], contentWidth); h > 0 {
		areaHeight = h
	}

	areaTop, flowTop := 0.0, max(areaHeight-contentHeight, 0)
	if cmd.Name == "footer" {
		areaTop = pageH - areaHeight
		flowTop = areaTop
	}
	hf.translateFlow(flowTop)
	hf.translateShapes(areaTop)
	hf.Height = areaHeight
	return hf, nil
}
