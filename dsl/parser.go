// Package dsl parses layout templates.
//
// A template looks like:
//
//	doc Boleto v1 {
//	  resources {
//	    font Body { src: "embed:sans" }
//	    style Label {
//	      font: Body
//	      size: 6pt
//	    }
//	  }
//	  page A4 portrait margin 10mm {
//	    box x 0 y 0 width 40mm height 8mm label "Vencimento" {
//	      text Body align right { "${boleto.due}" }
//	    }
//	  }
//	}
package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	templateLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokenNames = invertSymbols(templateLexer.Symbols())
	newlineTok = mustTokenType("Newline")
	lbraceTok  = mustTokenType("LBrace")
	rbraceTok  = mustTokenType("RBrace")
	symbolTok  = mustTokenType("Symbol")
	stringTok  = mustTokenType("String")

	documentParser = participle.MustBuild[Document](
		participle.Lexer(templateLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
		// Comment lines between a blockless command and the next statement
		// leave a run of Newline tokens the optional block must back out of.
		participle.UseLookahead(participle.MaxLookahead),
	)
)

// Parse parses a template from r.
func Parse(r io.Reader) (*Document, error) {
	return ParseNamed("", r)
}

// ParseNamed parses a template from r; name prefixes error positions.
func ParseNamed(name string, r io.Reader) (*Document, error) {
	doc, err := documentParser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}
	return doc, nil
}

// ParseString parses a template held in a string.
func ParseString(input string) (*Document, error) {
	doc, err := documentParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}
	return doc, nil
}

// Parse implements participle.Parseable: an expression runs until a
// newline, brace, ';' or ',' outside of brackets and parentheses.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	var parts []*Lexeme
	parens, brackets := 0, 0
	for {
		tok := lex.Peek()
		if endsExpression(tok, parens, brackets) {
			break
		}
		lexeme, err := nextLexeme(lex)
		if err != nil {
			return err
		}
		switch lexeme.Raw {
		case "(":
			parens++
		case ")":
			parens = max(parens-1, 0)
		case "[":
			brackets++
		case "]":
			brackets = max(brackets-1, 0)
		}
		parts = append(parts, lexeme)
	}
	if len(parts) == 0 {
		return participle.NextMatch
	}
	e.Parts = parts
	return nil
}

// Parse implements participle.Parseable for command arguments.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if endsArgs(lex.Peek()) {
		return participle.NextMatch
	}
	lexeme, err := nextLexeme(lex)
	if err != nil {
		return err
	}
	*l = *lexeme
	return nil
}

// Capture implements participle.Capture by unquoting the literal.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

func nextLexeme(lex *lexer.PeekingLexer) (*Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return nil, participle.NextMatch
	}
	name, ok := tokenNames[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	val := tok.Value
	if tok.Type == stringTok {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return nil, err
		}
		val = unquoted
	}
	return &Lexeme{Type: name, Value: val, Raw: tok.Value, Pos: tok.Pos}, nil
}

func endsArgs(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineTok, rbraceTok, lbraceTok:
		return true
	case symbolTok:
		return tok.Value == ";"
	}
	return false
}

func endsExpression(tok *lexer.Token, parens, brackets int) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	nested := parens > 0 || brackets > 0
	switch tok.Type {
	case newlineTok, rbraceTok, lbraceTok:
		return !nested
	case symbolTok:
		switch tok.Value {
		case ";", ",":
			return !nested
		case "]":
			return brackets == 0
		}
	}
	return false
}

func invertSymbols(symbols map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		out[tt] = name
	}
	return out
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := templateLexer.Symbols()[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
