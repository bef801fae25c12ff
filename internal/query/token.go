package query

import (
	"fmt"
	"strings"
	"unicode"
)

// Pos is a 1-based line/column position in the query text.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// ParseError is the single hard-error type produced by the lexer and
// parser. No partial tree accompanies it.
type ParseError struct {
	Pos      Pos
	Expected string // what the parser wanted, human readable
	Found    string // what it saw instead
	Hint     string // optional "did you mean" style suggestion
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error at %s: expected %s, found %s", e.Pos, e.Expected, e.Found)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokEq
	tokPipe
	tokAnd
	tokOr
	tokMinus
	tokNot
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of query"
	case tokWord:
		return "word"
	case tokString:
		return "quoted title"
	case tokNumber:
		return "number"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokComma:
		return "','"
	case tokEq:
		return "'='"
	case tokPipe:
		return "'|'"
	case tokAnd:
		return "'&'"
	case tokOr:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokNot:
		return "'!'"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	num  int
	pos  Pos
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokWord, tokString:
		return fmt.Sprintf("%q", t.text)
	case tokNumber:
		return fmt.Sprintf("number %d", t.num)
	}
	return t.kind.String()
}

// operator word forms, matched case-insensitively
var keywordKinds = map[string]tokenKind{
	"and":   tokAnd,
	"or":    tokOr,
	"minus": tokMinus,
	"not":   tokNot,
}

// maxNumber bounds numeric literals (depths, modifier numbers) so they
// always fit an int32.
const maxNumber = 1<<31 - 1

type lexer struct {
	src  []rune
	i    int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, col: 1}
}

func (lx *lexer) pos() Pos { return Pos{Line: lx.line, Col: lx.col} }

func (lx *lexer) advance() rune {
	r := lx.src[lx.i]
	lx.i++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

// tokenize converts the whole input up front. Query texts are short, so a
// token slice is simpler than a streaming lexer and gives the parser free
// lookahead.
func (lx *lexer) tokenize() ([]token, *ParseError) {
	var toks []token
	for lx.i < len(lx.src) {
		r := lx.src[lx.i]
		if unicode.IsSpace(r) {
			lx.advance()
			continue
		}
		start := lx.pos()
		switch r {
		case '(':
			lx.advance()
			toks = append(toks, token{kind: tokLParen, pos: start})
		case ')':
			lx.advance()
			toks = append(toks, token{kind: tokRParen, pos: start})
		case '[':
			lx.advance()
			toks = append(toks, token{kind: tokLBracket, pos: start})
		case ']':
			lx.advance()
			toks = append(toks, token{kind: tokRBracket, pos: start})
		case ',':
			lx.advance()
			toks = append(toks, token{kind: tokComma, pos: start})
		case '=':
			lx.advance()
			toks = append(toks, token{kind: tokEq, pos: start})
		case '|':
			lx.advance()
			toks = append(toks, token{kind: tokPipe, pos: start})
		case '&', '∩':
			lx.advance()
			toks = append(toks, token{kind: tokAnd, pos: start})
		case '+', '∪':
			lx.advance()
			toks = append(toks, token{kind: tokOr, pos: start})
		case '-', '\\', '∖':
			lx.advance()
			toks = append(toks, token{kind: tokMinus, pos: start})
		case '!', '¬':
			lx.advance()
			toks = append(toks, token{kind: tokNot, pos: start})
		case '"':
			tok, err := lx.lexString(start)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
		default:
			switch {
			case unicode.IsDigit(r):
				tok, err := lx.lexNumber(start)
				if err != nil {
					return nil, err
				}
				toks = append(toks, tok)
			case isWordRune(r):
				toks = append(toks, lx.lexWord(start))
			default:
				return nil, &ParseError{
					Pos:      start,
					Expected: "a title, operator or parenthesis",
					Found:    fmt.Sprintf("%q", string(r)),
				}
			}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: lx.pos()})
	return toks, nil
}

func (lx *lexer) lexString(start Pos) (token, *ParseError) {
	lx.advance() // opening quote
	var b strings.Builder
	for lx.i < len(lx.src) {
		r := lx.advance()
		if r == '"' {
			return token{kind: tokString, text: b.String(), pos: start}, nil
		}
		b.WriteRune(r)
	}
	return token{}, &ParseError{Pos: lx.pos(), Expected: "closing '\"'", Found: "end of query"}
}

func (lx *lexer) lexNumber(start Pos) (token, *ParseError) {
	var n int64
	for lx.i < len(lx.src) && unicode.IsDigit(lx.src[lx.i]) {
		n = n*10 + int64(lx.advance()-'0')
		if n > maxNumber {
			return token{}, &ParseError{
				Pos:      start,
				Expected: fmt.Sprintf("a number no larger than %d", maxNumber),
				Found:    "a larger literal",
			}
		}
	}
	return token{kind: tokNumber, num: int(n), pos: start}, nil
}

func (lx *lexer) lexWord(start Pos) token {
	var b strings.Builder
	for lx.i < len(lx.src) && isWordRune(lx.src[lx.i]) {
		b.WriteRune(lx.advance())
	}
	word := b.String()
	if kind, ok := keywordKinds[strings.ToLower(word)]; ok {
		return token{kind: kind, text: word, pos: start}
	}
	return token{kind: tokWord, text: word, pos: start}
}

// isWordRune accepts bare (unquoted) title and identifier runes. Titles
// containing spaces, hyphens or operator characters must be quoted.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':' || r == '\''
}
