// Package query parses declarative set-combination queries over a wiki
// page/category graph into immutable expression trees.
//
// The grammar, lowest to highest binding:
//
//	union      := difference ( ("+" | "∪" | "or") difference )*
//	difference := intersect ( ("-" | "\" | "∖" | "minus") intersect )*
//	intersect  := operand ( ("&" | "∩" | "and") operand )*
//	operand    := [ "!" | "¬" | "not" ] postfix
//	postfix    := primary ( "|" modifier )*
//	modifier   := name [ "(" arg ("," arg)* ")" ]
//	primary    := "(" union ")" | leaf
//	leaf       := title [ "[" leafopt ("," leafopt)* "]" ]
//	leafopt    := "depth" "=" number | "dir" "=" direction | number | direction
//
// Titles are quoted strings or bare words; they are normalized at parse
// time so the solver never sees raw text. Negation is only legal as an
// operand of an intersection or difference; the parser rejects it anywhere
// else rather than inventing a universe to complement against.
package query

import (
	"fmt"
)

// Parse turns query text into an expression tree. It is pure and
// deterministic; any failure is a *ParseError and no partial tree is
// returned.
func Parse(text string) (Node, error) {
	toks, lerr := newLexer(text).tokenize()
	if lerr != nil {
		return nil, lerr
	}
	p := &parser{toks: toks}
	n, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &ParseError{
			Pos:      tok.pos,
			Expected: "an operator or end of query",
			Found:    tok.describe(),
		}
	}
	return n, nil
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expect(kind tokenKind) (token, *ParseError) {
	t := p.peek()
	if t.kind != kind {
		return t, &ParseError{Pos: t.pos, Expected: kind.String(), Found: t.describe()}
	}
	return p.next(), nil
}

func (p *parser) parseUnion() (Node, *ParseError) {
	left, err := p.parseDifference()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseDifference()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpUnion, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseDifference() (Node, *ParseError) {
	left, err := p.parseIntersect(false)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokMinus {
		p.next()
		// The right operand of a difference may be a lone negation:
		// A - !B is A & B.
		right, err := p.parseIntersect(true)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: OpDifference, Left: left, Right: right}
	}
	return left, nil
}

// intersectOperand is one element of an intersection chain before the
// chain is folded into a tree.
type intersectOperand struct {
	node    Node
	negated bool
	negPos  Pos
}

// parseIntersect folds an intersection chain left-associatively. Negated
// operands are reordered to the end of the chain so every Negate ends up
// as the direct right operand of an intersection — intersection is
// commutative, so the result set is unchanged and the canonical form stays
// solvable without materializing a complement.
func (p *parser) parseIntersect(negCtx bool) (Node, *ParseError) {
	ops := []intersectOperand{}
	for {
		op, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if p.peek().kind != tokAnd {
			break
		}
		p.next()
	}

	if len(ops) == 1 {
		if !ops[0].negated {
			return ops[0].node, nil
		}
		if negCtx {
			return &Negate{Child: ops[0].node}, nil
		}
		return nil, &ParseError{
			Pos:      ops[0].negPos,
			Expected: "negation to appear as an operand of an intersection or difference",
			Found:    "negation with no enclosing universe",
		}
	}

	var acc Node
	for _, op := range ops {
		if op.negated {
			continue
		}
		if acc == nil {
			acc = op.node
		} else {
			acc = &Binary{Op: OpIntersect, Left: acc, Right: op.node}
		}
	}
	if acc == nil {
		return nil, &ParseError{
			Pos:      ops[0].negPos,
			Expected: "at least one non-negated operand in an intersection",
			Found:    "only negated operands",
		}
	}
	for _, op := range ops {
		if op.negated {
			acc = &Binary{Op: OpIntersect, Left: acc, Right: &Negate{Child: op.node}}
		}
	}
	return acc, nil
}

func (p *parser) parseOperand() (intersectOperand, *ParseError) {
	var op intersectOperand
	if t := p.peek(); t.kind == tokNot {
		p.next()
		op.negated = true
		op.negPos = t.pos
	}
	n, err := p.parsePostfix()
	if err != nil {
		return op, err
	}
	op.node = n
	return op, nil
}

func (p *parser) parsePostfix() (Node, *ParseError) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokPipe {
		p.next()
		name, err := p.expect(tokWord)
		if err != nil {
			return nil, err
		}
		spec, ok := modifierRegistry[name.text]
		if !ok {
			perr := &ParseError{
				Pos:      name.pos,
				Expected: "a known modifier name",
				Found:    fmt.Sprintf("%q", name.text),
			}
			if s := suggestModifier(name.text); s != "" {
				perr.Hint = fmt.Sprintf("did you mean %q?", s)
			}
			return nil, perr
		}
		args, aerr := p.parseArgs()
		if aerr != nil {
			return nil, aerr
		}
		params, berr := bindParams(spec, args, name.pos)
		if berr != nil {
			return nil, berr
		}
		n = &Modifier{Name: spec.name, Params: params, Child: n}
	}
	return n, nil
}

// rawArg is one unvalidated modifier argument: an optional name and a
// single value token.
type rawArg struct {
	name  string
	value token
	pos   Pos
}

func (p *parser) parseArgs() ([]rawArg, *ParseError) {
	if p.peek().kind != tokLParen {
		return nil, nil
	}
	p.next()
	var args []rawArg
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArg() (rawArg, *ParseError) {
	t := p.peek()
	if t.kind == tokWord && p.toks[p.i+1].kind == tokEq {
		p.next() // name
		p.next() // '='
		v, err := p.expectValue()
		if err != nil {
			return rawArg{}, err
		}
		return rawArg{name: t.text, value: v, pos: t.pos}, nil
	}
	v, err := p.expectValue()
	if err != nil {
		return rawArg{}, err
	}
	return rawArg{value: v, pos: v.pos}, nil
}

func (p *parser) expectValue() (token, *ParseError) {
	t := p.peek()
	switch t.kind {
	case tokString, tokWord, tokNumber:
		return p.next(), nil
	}
	return t, &ParseError{Pos: t.pos, Expected: "a string, number or boolean", Found: t.describe()}
}

func (p *parser) parsePrimary() (Node, *ParseError) {
	t := p.peek()
	switch t.kind {
	case tokLParen:
		p.next()
		n, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return n, nil
	case tokString, tokWord:
		p.next()
		return p.parseLeaf(t)
	}
	return nil, &ParseError{Pos: t.pos, Expected: "a title or '('", Found: t.describe()}
}

func (p *parser) parseLeaf(title token) (Node, *ParseError) {
	leaf := &Leaf{
		Title: NormalizeTitle(title.text),
		Depth: DepthUnbounded,
		Dir:   DirSub,
	}
	if leaf.Title == "" {
		return nil, &ParseError{Pos: title.pos, Expected: "a non-empty title", Found: "an empty string"}
	}
	if p.peek().kind != tokLBracket {
		return leaf, nil
	}
	p.next()
	for {
		if err := p.parseLeafOpt(leaf); err != nil {
			return nil, err
		}
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return leaf, nil
}

func (p *parser) parseLeafOpt(leaf *Leaf) *ParseError {
	t := p.peek()
	switch {
	case t.kind == tokNumber:
		p.next()
		leaf.Depth = t.num
		return nil
	case t.kind == tokWord && p.toks[p.i+1].kind == tokEq:
		p.next() // option name
		p.next() // '='
		switch t.text {
		case "depth":
			num, err := p.expect(tokNumber)
			if err != nil {
				return err
			}
			leaf.Depth = num.num
			return nil
		case "dir":
			word, err := p.expect(tokWord)
			if err != nil {
				return err
			}
			return p.setDirection(leaf, word)
		}
		return &ParseError{Pos: t.pos, Expected: "'depth' or 'dir'", Found: fmt.Sprintf("%q", t.text)}
	case t.kind == tokWord:
		p.next()
		return p.setDirection(leaf, t)
	}
	return &ParseError{Pos: t.pos, Expected: "a depth or direction option", Found: t.describe()}
}

func (p *parser) setDirection(leaf *Leaf, word token) *ParseError {
	switch word.text {
	case "sub":
		leaf.Dir = DirSub
	case "super":
		leaf.Dir = DirSuper
	case "in":
		leaf.Dir = DirLinksIn
	case "out":
		leaf.Dir = DirLinksOut
	default:
		return &ParseError{
			Pos:      word.pos,
			Expected: "'sub', 'super', 'in' or 'out'",
			Found:    fmt.Sprintf("%q", word.text),
		}
	}
	return nil
}
