package layout

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ByLCY/boleto/dsl"
)

const (
	blockSpacing       = 3.0
	defaultTableRowGap = 0.0
	cellPadding        = 1.2
	boxPadding         = 1.0
	labelGap           = 0.4
)

var (
	ErrNilDocument  = errors.New("layout: nil document")
	ErrNoTypesetter = errors.New("layout: typesetter is required")
	ErrNoPage       = errors.New("layout: document has no page section")
	ErrNoData       = errors.New("layout: no data items")
)

// Build lays out doc once against data.
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	return BuildAll(doc, []any{data}, opts)
}

// BuildAll runs one layout pass per data item and concatenates the pages in
// item order. Every page section of the document starts a new page run, so a
// single item never shares a page with the next one. Meta is interpolated
// with the first item.
func BuildAll(doc *dsl.Document, items []any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if opts.Typesetter == nil {
		return nil, ErrNoTypesetter
	}
	if len(items) == 0 {
		return nil, ErrNoData
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	sections := pageSections(doc)
	if len(sections) == 0 {
		return nil, ErrNoPage
	}

	b := &builder{
		res:        res,
		pageSets:   collectPageSets(doc),
		typesetter: opts.Typesetter,
		log:        opts.logger(),
		expanding:  map[string]bool{},
	}
	var pages []Page
	for i, data := range items {
		for _, section := range sections {
			run, err := b.buildPages(section, data)
			if err != nil {
				return nil, fmt.Errorf("layout: item %d: %w", i, err)
			}
			pages = append(pages, run...)
		}
	}
	b.log.Debug("layout built", zap.Int("items", len(items)), zap.Int("pages", len(pages)))

	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      collectMeta(doc, items[0]),
	}, nil
}

// builder holds what stays constant across the page runs of one BuildAll.
type builder struct {
	res        ResourceSet
	pageSets   map[string]*dsl.Block
	typesetter Typesetter
	log        *zap.Logger
	expanding  map[string]bool
}

func (b *builder) buildPages(section *dsl.PageSection, data any) ([]Page, error) {
	if section.Block == nil {
		return nil, fmt.Errorf("page section has no body")
	}
	width, height, err := resolvePageSize(section.Spec)
	if err != nil {
		return nil, err
	}
	margin := resolveMargin(section.Spec.Params)
	collector := newPageCollector(width, height, margin)

	for _, st := range section.Block.Statements {
		if st.Command == nil {
			continue
		}
		switch st.Command.Name {
		case "header", "footer":
			hf, err := b.buildHeaderFooter(st.Command, width, height, margin, data)
			if err != nil {
				return nil, err
			}
			if st.Command.Name == "header" {
				collector.header = hf
			} else {
				collector.footer = hf
			}
		}
	}

	root := &flowContext{
		b:              b,
		baseX:          margin.Left,
		baseY:          collector.contentTop(),
		width:          width - margin.Left - margin.Right,
		cursorY:        collector.contentTop(),
		data:           data,
		collector:      collector,
		margin:         margin,
		allowPageBreak: true,
		textWrap:       "anywhere",
	}
	if err := root.process(section.Block); err != nil {
		return nil, err
	}
	return collector.pages(), nil
}

// flowContext is a layout region: an origin, a width and a vertical cursor.
type flowContext struct {
	b              *builder
	baseX          float64
	baseY          float64
	width          float64
	cursorY        float64
	data           any
	parent         *flowContext
	collector      *pageCollector
	sink           *Elements // header/footer target; overrides collector
	margin         Margin
	allowPageBreak bool
	textAlign      string // inherited by children that set no align
	textWrap       string
}

func (ctx *flowContext) child(baseX, baseY, width float64) *flowContext {
	return &flowContext{
		b:              ctx.b,
		baseX:          baseX,
		baseY:          baseY,
		width:          width,
		cursorY:        baseY,
		data:           ctx.data,
		parent:         ctx,
		collector:      ctx.collector,
		sink:           ctx.sink,
		margin:         ctx.margin,
		allowPageBreak: ctx.allowPageBreak,
		textAlign:      ctx.textAlign,
		textWrap:       ctx.textWrap,
	}
}

// process lays out the statements of block in order.
func (ctx *flowContext) process(block *dsl.Block) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		var err error
		switch cmd.Name {
		case "flow":
			err = ctx.handleFlow(cmd)
		case "absolute":
			err = ctx.handleAbsolute(cmd)
		case "box":
			err = ctx.handleBox(cmd)
		case "text":
			err = ctx.handleText(cmd)
		case "image":
			err = ctx.handleImage(cmd)
		case "table":
			err = ctx.handleTable(cmd)
		case "line", "rect", "circle":
			ctx.handleShape(cmd)
		case "use":
			err = ctx.handleUse(cmd)
		case "header", "footer":
			// laid out before the body
		default:
			ctx.b.log.Debug("skipping unknown command", zap.String("command", cmd.Name), zap.Int("line", cmd.Pos.Line))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (ctx *flowContext) ensureSpace(height float64) {
	if !ctx.allowPageBreak || ctx.collector == nil {
		return
	}
	if ctx.cursorY+height <= ctx.collector.contentBottom() {
		return
	}
	ctx.pageBreak()
}

func (ctx *flowContext) pageBreak() {
	if ctx.collector == nil {
		return
	}
	if ctx.parent != nil {
		ctx.parent.pageBreak()
		ctx.baseY = ctx.parent.cursorY
		ctx.cursorY = ctx.baseY
		return
	}
	ctx.collector.newPage()
	ctx.baseX = ctx.margin.Left
	ctx.baseY = ctx.collector.contentTop()
	ctx.cursorY = ctx.baseY
}

// acc returns the element list new content goes to.
func (ctx *flowContext) acc() *Elements {
	if ctx.sink != nil {
		return ctx.sink
	}
	if ctx.collector == nil {
		return nil
	}
	return ctx.collector.curr()
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*Elements
	current int
	header  HeaderFooter
	footer  HeaderFooter
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{width: width, height: height, margin: margin}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *Elements {
	acc := &Elements{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *Elements {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

// contentTop is the larger of the top margin and the header height.
func (pc *pageCollector) contentTop() float64 {
	return max(pc.margin.Top, pc.header.Height)
}

// contentBottom is the page height minus the larger of the bottom margin
// and the footer height.
func (pc *pageCollector) contentBottom() float64 {
	return pc.height - max(pc.margin.Bottom, pc.footer.Height)
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:    pc.width,
			Height:   pc.height,
			Margin:   pc.margin,
			Elements: *acc,
			Header:   pc.header,
			Footer:   pc.footer,
		}
	}
	return out
}

func (e *Elements) appendText(tb TextBox) { e.Texts = append(e.Texts, tb) }
func (e *Elements) appendImage(img ImageBox) { e.Images = append(e.Images, img) }
func (e *Elements) appendTable(t TableBox) { e.Tables = append(e.Tables, t) }

// translateFlow moves texts, images and tables down by dy.
func (e *Elements) translateFlow(dy float64) {
	for i := range e.Texts {
		e.Texts[i].Y += dy
	}
	for i := range e.Images {
		e.Images[i].Y += dy
	}
	for i := range e.Tables {
		t := &e.Tables[i]
		t.Y += dy
		for r := range t.Rows {
			t.Rows[r].Y += dy
			for c := range t.Rows[r].Cells {
				t.Rows[r].Cells[c].Text.Y += dy
			}
		}
	}
}

// translateShapes moves lines, rects and circles down by dy.
func (e *Elements) translateShapes(dy float64) {
	for i := range e.Lines {
		e.Lines[i].Y1 += dy
		e.Lines[i].Y2 += dy
	}
	for i := range e.Rects {
		e.Rects[i].Y += dy
	}
	for i := range e.Circles {
		e.Circles[i].CY += dy
	}
}
