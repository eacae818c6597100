package schema

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/tensorjit/internal/types"
)

// Parse parses a declaration like
//
//	chunk(Tensor(a) self, int chunks, int dim) -> (Tensor[])
//
// into a Schema. Returns are written either as a single type or as a
// parenthesized list. "..." in the argument or return list marks the schema
// vararg / varret.
func Parse(signature string) (*Schema, error) {
	p := &parser{src: signature}
	s, err := p.parseSchema()
	if err != nil {
		return nil, fmt.Errorf("parsing schema %q: %w", signature, err)
	}
	return s, nil
}

// MustParse is Parse for statically known declarations.
func MustParse(signature string) *Schema {
	s, err := Parse(signature)
	if err != nil {
		panic(err)
	}
	return s
}

type parser struct {
	src string
	pos int
}

func (p *parser) parseSchema() (*Schema, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errf("expected operator name")
	}
	s := &Schema{Name: name}

	if !p.consume("(") {
		return nil, p.errf("expected '(' after operator name")
	}
	if err := p.parseSlots(&s.Arguments, &s.IsVararg, true); err != nil {
		return nil, err
	}
	if !p.consume("->") {
		return nil, p.errf("expected '->'")
	}

	if p.consume("(") {
		if err := p.parseSlots(&s.Returns, &s.IsVarret, false); err != nil {
			return nil, err
		}
	} else {
		ret, err := p.parseSlot(false)
		if err != nil {
			return nil, err
		}
		s.Returns = append(s.Returns, ret)
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errf("trailing input")
	}
	return s, nil
}

// parseSlots parses a comma-separated slot list terminated by ')'.
func (p *parser) parseSlots(out *[]Argument, vararg *bool, named bool) error {
	if p.consume(")") {
		return nil
	}
	for {
		if p.consume("...") {
			*vararg = true
			if !p.consume(")") {
				return p.errf("expected ')' after '...'")
			}
			return nil
		}
		slot, err := p.parseSlot(named)
		if err != nil {
			return err
		}
		*out = append(*out, slot)
		if p.consume(",") {
			continue
		}
		if p.consume(")") {
			return nil
		}
		return p.errf("expected ',' or ')'")
	}
}

func (p *parser) parseSlot(named bool) (Argument, error) {
	typ, alias, err := p.parseType()
	if err != nil {
		return Argument{}, err
	}
	arg := Argument{Type: typ, Alias: alias}
	if named {
		arg.Name = p.ident()
	}
	return arg, nil
}

// parseType parses a type with an optional alias annotation directly after
// the base keyword, followed by any [] and ? suffixes.
func (p *parser) parseType() (types.Type, *Alias, error) {
	p.skipSpace()

	var base types.Type
	var alias *Alias

	if p.consume("(") {
		var elems []types.Type
		for {
			elem, _, err := p.parseType()
			if err != nil {
				return nil, nil, err
			}
			elems = append(elems, elem)
			if p.consume(",") {
				continue
			}
			if p.consume(")") {
				break
			}
			return nil, nil, p.errf("expected ',' or ')' in tuple type")
		}
		base = types.Tuple(elems...)
	} else {
		word := p.ident()
		if word == "" {
			return nil, nil, p.errf("expected a type")
		}
		switch word {
		case "Tensor":
			base = types.Dynamic
		case "Scalar":
			base = types.Number
		case "int":
			base = types.Int
		case "float":
			base = types.Float
		case "bool":
			base = types.Bool
		case "str", "string":
			base = types.String
		case "None":
			base = types.None
		case "Generator":
			base = types.Generator
		case "Future":
			if !p.consume("[") {
				return nil, nil, p.errf("expected '[' after Future")
			}
			elem, _, err := p.parseType()
			if err != nil {
				return nil, nil, err
			}
			if !p.consume("]") {
				return nil, nil, p.errf("expected ']' closing Future")
			}
			base = types.Future(elem)
		default:
			base = types.Var(word)
		}

		// alias annotation binds to the base keyword: Tensor(a!), Tensor(*)
		var err error
		alias, err = p.parseAlias()
		if err != nil {
			return nil, nil, err
		}
	}

	for {
		if p.consume("[]") {
			base = types.List(base)
			continue
		}
		if p.consume("?") {
			base = types.Optional(base)
			continue
		}
		break
	}

	// an annotation may also trail the suffixes: t[](a)
	if alias == nil {
		var err error
		alias, err = p.parseAlias()
		if err != nil {
			return nil, nil, err
		}
	}
	return base, alias, nil
}

func (p *parser) parseAlias() (*Alias, error) {
	save := p.pos
	if !p.consume("(") {
		return nil, nil
	}
	if p.consume("*") {
		if !p.consume(")") {
			return nil, p.errf("expected ')' after wildcard annotation")
		}
		return &Alias{Symbol: WildcardSymbol, IsWildcard: true}, nil
	}
	sym := p.ident()
	if sym == "" {
		// not an annotation after all; back out
		p.pos = save
		return nil, nil
	}
	write := p.consume("!")
	if !p.consume(")") {
		return nil, p.errf("expected ')' closing alias annotation")
	}
	return &Alias{Symbol: sym, IsWrite: write}, nil
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// consume matches tok at the cursor, skipping leading whitespace.
func (p *parser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}
