package query

import (
	"fmt"
	"sort"

	"github.com/agext/levenshtein"
)

// paramSpec declares one parameter of a modifier schema.
type paramSpec struct {
	name     string
	kind     ParamKind
	required bool
}

// modifierSpec is the fixed schema of one modifier. Parameters may be given
// positionally (in schema order) or by name; the parser stores them in
// schema order either way.
type modifierSpec struct {
	name   string
	params []paramSpec
}

// modifierRegistry is the closed set of known modifiers. Adding a modifier
// means adding a schema here and a case in the solver's applyModifier.
var modifierRegistry = map[string]modifierSpec{
	// namespace(ns) keeps only pages in the given namespace number.
	"namespace": {
		name:   "namespace",
		params: []paramSpec{{name: "ns", kind: KindNumber, required: true}},
	},
	// redirect(only) keeps only redirects (true) or drops them (false).
	"redirect": {
		name:   "redirect",
		params: []paramSpec{{name: "only", kind: KindBool, required: true}},
	},
	// titlematch(pattern) keeps pages whose title contains the pattern.
	"titlematch": {
		name:   "titlematch",
		params: []paramSpec{{name: "pattern", kind: KindString, required: true}},
	},
	// quality(min) keeps pages whose assessment score is at least min.
	// Requires provider attribute support; degrades to a warning without it.
	"quality": {
		name:   "quality",
		params: []paramSpec{{name: "min", kind: KindNumber, required: true}},
	},
}

// KnownModifiers returns the registered modifier names, sorted.
func KnownModifiers() []string {
	names := make([]string, 0, len(modifierRegistry))
	for n := range modifierRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// suggestionDistance is the maximum edit distance for a "did you mean" hint.
const suggestionDistance = 2

// suggestModifier finds the closest registered modifier name within
// suggestionDistance edits, or "" if nothing is close enough.
func suggestModifier(name string) string {
	best := ""
	bestDist := suggestionDistance + 1
	for _, known := range KnownModifiers() {
		d := levenshtein.Distance(name, known, nil)
		if d < bestDist {
			best = known
			bestDist = d
		}
	}
	return best
}

func (p paramSpec) kindName() string {
	switch p.kind {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	}
	return "value"
}

// bindParams validates raw arguments against a schema and returns them in
// schema order. Positional and named arguments may be mixed; named ones
// must come after positional ones.
func bindParams(spec modifierSpec, args []rawArg, callPos Pos) ([]Param, *ParseError) {
	bound := make(map[string]Param, len(spec.params))
	sawNamed := false

	for i, a := range args {
		var ps *paramSpec
		switch {
		case a.name == "":
			if sawNamed {
				return nil, &ParseError{
					Pos:      a.pos,
					Expected: "a named argument (positional arguments may not follow named ones)",
					Found:    a.value.describe(),
				}
			}
			if i >= len(spec.params) {
				return nil, &ParseError{
					Pos:      a.pos,
					Expected: fmt.Sprintf("at most %d argument(s) to %s", len(spec.params), spec.name),
					Found:    a.value.describe(),
				}
			}
			ps = &spec.params[i]
		default:
			sawNamed = true
			for j := range spec.params {
				if spec.params[j].name == a.name {
					ps = &spec.params[j]
					break
				}
			}
			if ps == nil {
				return nil, &ParseError{
					Pos:      a.pos,
					Expected: fmt.Sprintf("a parameter of %s", spec.name),
					Found:    fmt.Sprintf("%q", a.name),
				}
			}
		}

		p, perr := coerceParam(*ps, a)
		if perr != nil {
			return nil, perr
		}
		if _, dup := bound[ps.name]; dup {
			return nil, &ParseError{
				Pos:      a.pos,
				Expected: fmt.Sprintf("each parameter of %s at most once", spec.name),
				Found:    fmt.Sprintf("duplicate %q", ps.name),
			}
		}
		bound[ps.name] = p
	}

	out := make([]Param, 0, len(bound))
	for _, ps := range spec.params {
		p, ok := bound[ps.name]
		if !ok {
			if ps.required {
				return nil, &ParseError{
					Pos:      callPos,
					Expected: fmt.Sprintf("required parameter %q of %s", ps.name, spec.name),
					Found:    "no value",
				}
			}
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// coerceParam type-checks one argument against its spec. Bare words true
// and false are accepted for boolean parameters; everything else must
// match the declared kind exactly.
func coerceParam(ps paramSpec, a rawArg) (Param, *ParseError) {
	p := Param{Name: ps.name, Kind: ps.kind}
	tok := a.value
	switch ps.kind {
	case KindString:
		if tok.kind != tokString && tok.kind != tokWord {
			return p, typeMismatch(ps, tok)
		}
		p.Str = tok.text
	case KindNumber:
		if tok.kind != tokNumber {
			return p, typeMismatch(ps, tok)
		}
		p.Num = tok.num
	case KindBool:
		if tok.kind != tokWord || (tok.text != "true" && tok.text != "false") {
			return p, typeMismatch(ps, tok)
		}
		p.Bool = tok.text == "true"
	}
	return p, nil
}

func typeMismatch(ps paramSpec, tok token) *ParseError {
	return &ParseError{
		Pos:      tok.pos,
		Expected: fmt.Sprintf("a %s for parameter %q", ps.kindName(), ps.name),
		Found:    tok.describe(),
	}
}
