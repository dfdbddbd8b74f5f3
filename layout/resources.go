package layout

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/ByLCY/boleto/binding"
	"github.com/ByLCY/boleto/dsl"
)

// DefaultFontSrc is used for Body when a template declares no fonts.
const DefaultFontSrc = "embed:sans"

// Page presets in millimetres, portrait.
var pagePresets = map[string][2]float64{
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Images: map[string]ImageResource{},
		Styles: map[string]Style{},
	}
	raw := map[string]Style{}

	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			cmd := stmt.Command
			if cmd == nil || len(cmd.Args) == 0 {
				continue
			}
			switch cmd.Name {
			case "font":
				font := parseFontResource(cmd)
				res.Fonts[font.Name] = font
			case "color":
				value := cmd.Args[len(cmd.Args)-1].Value
				c, err := parseColor(value)
				if err != nil {
					return res, fmt.Errorf("line %d: color %s: %w", cmd.Pos.Line, cmd.Args[0].Value, err)
				}
				res.Colors[cmd.Args[0].Value] = c
			case "image":
				img := parseImageResource(cmd)
				res.Images[img.Name] = img
			case "style":
				style := parseStyleResource(cmd)
				raw[style.Name] = style
			}
		}
	}

	if len(res.Fonts) == 0 {
		res.Fonts["Body"] = FontResource{Name: "Body", Src: DefaultFontSrc, Family: "Body"}
	}

	styles, err := resolveStyles(raw)
	if err != nil {
		return res, err
	}
	res.Styles = styles
	return res, nil
}

// collectMeta reads the meta section, binding string values against data.
func collectMeta(doc *dsl.Document, data any) DocumentMeta {
	meta := DocumentMeta{Creator: "boleto"}
	str := func(v *dsl.Value) string {
		return binding.Interpolate(valueToString(v), data)
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			a := stmt.Assignment
			if a == nil {
				continue
			}
			switch strings.ToLower(a.Key) {
			case "title":
				meta.Title = str(a.Value)
			case "author":
				meta.Author = str(a.Value)
			case "subject":
				meta.Subject = str(a.Value)
			case "creator":
				meta.Creator = str(a.Value)
			case "keywords":
				meta.Keywords = valueToStringSlice(a.Value)
			}
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) FontResource {
	name := cmd.Args[0].Value
	font := FontResource{Name: name, Family: name}
	for _, a := range assignments(cmd.Block) {
		if a.Value.String == nil {
			continue
		}
		switch a.Key {
		case "src":
			font.Src = string(*a.Value.String)
		case "style":
			font.Style = string(*a.Value.String)
		case "fallback":
			font.Fallback = string(*a.Value.String)
		case "family":
			font.Family = string(*a.Value.String)
		}
	}
	return font
}

func parseImageResource(cmd *dsl.Command) ImageResource {
	img := ImageResource{Name: cmd.Args[0].Value}
	for _, a := range assignments(cmd.Block) {
		switch a.Key {
		case "src":
			if a.Value.String != nil {
				img.Src = string(*a.Value.String)
			}
		case "width":
			img.Width = parseLength(valueToString(a.Value))
		case "height":
			img.Height = parseLength(valueToString(a.Value))
		case "dpi":
			if v, err := strconv.Atoi(valueToString(a.Value)); err == nil {
				img.DPI = v
			}
		}
	}
	return img
}

// parseStyleResource reads `style Name [extends Parent] { key: value }`.
func parseStyleResource(cmd *dsl.Command) Style {
	style := Style{Name: cmd.Args[0].Value, Props: map[string]string{}}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}
	for _, a := range assignments(cmd.Block) {
		if v := valueToString(a.Value); v != "" {
			style.Props[a.Key] = v
		}
	}
	return style
}

// resolveStyles flattens extends chains; props of the child win.
func resolveStyles(styles map[string]Style) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var visit func(name string) (Style, error)
	visit = func(name string) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, fmt.Errorf("style %s is not defined", name)
		}
		if visiting[name] {
			return Style{}, fmt.Errorf("style %s extends itself", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := visit(style.Extends)
			if err != nil {
				return Style{}, err
			}
			maps.Copy(props, parent.Props)
		}
		maps.Copy(props, style.Props)
		style.Props = props
		resolved[name] = style
		return style, nil
	}

	for name := range styles {
		if _, err := visit(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func assignments(block *dsl.Block) []*dsl.Assignment {
	if block == nil {
		return nil
	}
	var out []*dsl.Assignment
	for _, stmt := range block.Statements {
		if stmt.Assignment != nil && stmt.Assignment.Value != nil {
			out = append(out, stmt.Assignment)
		}
	}
	return out
}

func pageSections(doc *dsl.Document) []*dsl.PageSection {
	var out []*dsl.PageSection
	for _, section := range doc.Sections {
		if section.Page != nil {
			out = append(out, section.Page)
		}
	}
	return out
}

func collectPageSets(doc *dsl.Document) map[string]*dsl.Block {
	out := map[string]*dsl.Block{}
	for _, section := range doc.Sections {
		if section.PageSet != nil {
			out[section.PageSet.Name] = section.PageSet.Block
		}
	}
	return out
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	size, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported page size %s", spec.Size)
	}
	width, height := size[0], size[1]
	for _, token := range spec.Params {
		if strings.EqualFold(token.Value, "landscape") {
			width, height = height, width
		}
	}
	return width, height, nil
}

// resolveMargin reads `margin v1 [v2 [v3 [v4]]]` with CSS shorthand rules.
// Without a margin token every side is 20mm.
func resolveMargin(params []*dsl.Lexeme) Margin {
	margin := Margin{Top: 20, Right: 20, Bottom: 20, Left: 20}
	for i, token := range params {
		if token.Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			l, ok := ParseLength(params[j].Value)
			if !ok {
				break
			}
			vals = append(vals, l.ToMM())
		}
		switch len(vals) {
		case 1:
			margin = Margin{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin
}
