package filter

import (
	"strconv"
	"strings"

	"github.com/liliang-cn/searchsim/internal/errs"
	"github.com/liliang-cn/searchsim/internal/value"
)

// parser is a recursive-descent parser over the token stream, with
// precedence low-to-high: or, and, not, comparison/primary (§4.3).
type parser struct {
	toks []token
	pos  int
}

// Parse compiles a $filter expression string into an Expr tree.
func Parse(src string) (Expr, error) {
	l := newLexer(src)
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, errs.Newf("filter.parse", errs.InvalidRequest, "unexpected token %q after filter expression", p.cur().text)
	}
	return expr, nil
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokIdent && strings.EqualFold(p.cur().text, "or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().kind == tokIdent && strings.EqualFold(p.cur().text, "and") {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur().kind == tokIdent && strings.EqualFold(p.cur().text, "not") {
		p.advance()
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Child: child}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.cur()
	if t.kind == tokLParen {
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedCloseParen)
		}
		p.advance()
		return inner, nil
	}
	if t.kind != tokIdent {
		return nil, errs.Newf("filter.parse", errs.InvalidRequest, "expected field name or function, found %q", t.text)
	}

	switch strings.ToLower(t.text) {
	case "search.in":
		return p.parseSearchIn()
	case "geo.distance":
		return p.parseGeoDistance()
	}

	// field, optionally followed by "/any(...)" or "/all(...)", otherwise a
	// plain comparison.
	field := t.text
	p.advance()
	if p.cur().kind == tokSlash {
		p.advance()
		fn := p.advance()
		switch strings.ToLower(fn.text) {
		case "any":
			return p.parseLambda(field, false)
		case "all":
			return p.parseLambda(field, true)
		default:
			return nil, errs.Newf("filter.parse", errs.InvalidRequest, "unsupported collection predicate %q", fn.text)
		}
	}
	return p.parseComparisonRHS(field)
}

func (p *parser) parseComparisonRHS(field string) (Expr, error) {
	opTok := p.advance()
	op, ok := parseOp(opTok.text)
	if !ok {
		return nil, errs.Newf("filter.parse", errs.InvalidRequest, "unsupported or missing comparison operator %q", opTok.text)
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return Compare{Field: field, Op: op, Value: lit}, nil
}

func parseOp(s string) (CompareOp, bool) {
	switch strings.ToLower(s) {
	case "eq":
		return OpEq, true
	case "ne":
		return OpNe, true
	case "gt":
		return OpGt, true
	case "ge":
		return OpGe, true
	case "lt":
		return OpLt, true
	case "le":
		return OpLe, true
	default:
		return "", false
	}
}

func (p *parser) parseLiteral() (Literal, error) {
	t := p.advance()
	switch t.kind {
	case tokString:
		return Literal{Value: t.text}, nil
	case tokNumber:
		f, _ := strconv.ParseFloat(t.text, 64)
		return Literal{Value: f}, nil
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			return Literal{Value: true}, nil
		case "false":
			return Literal{Value: false}, nil
		case "null":
			return Literal{Value: nil}, nil
		}
		return Literal{}, errs.Newf("filter.parse", errs.InvalidRequest, "expected literal value, found identifier %q", t.text)
	default:
		return Literal{}, errs.Newf("filter.parse", errs.InvalidRequest, "expected literal value, found %q", t.text)
	}
}

// parseSearchIn parses `search.in(field, 'a,b,c', ',')`; the delimiter
// argument is optional and defaults to a comma (§4.3).
func (p *parser) parseSearchIn() (Expr, error) {
	p.advance() // "search.in"
	if p.cur().kind != tokLParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedOpenParen)
	}
	p.advance()
	fieldTok := p.advance()
	if fieldTok.kind != tokIdent {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedFieldName)
	}
	if p.cur().kind != tokComma {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedComma)
	}
	p.advance()
	valuesTok := p.advance()
	if valuesTok.kind != tokString {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedStringLiteral)
	}
	delim := ","
	if p.cur().kind == tokComma {
		p.advance()
		delimTok := p.advance()
		if delimTok.kind == tokString {
			delim = delimTok.text
		}
	}
	if p.cur().kind != tokRParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedCloseParen)
	}
	p.advance()

	parts := strings.Split(valuesTok.text, delim)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return SearchIn{Field: fieldTok.text, Values: parts, Delimiter: delim}, nil
}

// parseGeoDistance parses `geo.distance(field, point(lon, lat)) op km`.
func (p *parser) parseGeoDistance() (Expr, error) {
	p.advance() // "geo.distance"
	if p.cur().kind != tokLParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedOpenParen)
	}
	p.advance()
	fieldTok := p.advance()
	if p.cur().kind != tokComma {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedComma)
	}
	p.advance()
	pointTok := p.advance()
	if strings.ToLower(pointTok.text) != "point" {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedPointFunction)
	}
	if p.cur().kind != tokLParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedOpenParen)
	}
	p.advance()
	lonTok := p.advance()
	lon, _ := strconv.ParseFloat(lonTok.text, 64)
	if p.cur().kind == tokComma {
		p.advance()
	}
	latTok := p.advance()
	lat, _ := strconv.ParseFloat(latTok.text, 64)
	if p.cur().kind != tokRParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedCloseParen)
	}
	p.advance() // close point(...)
	if p.cur().kind != tokRParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedCloseParen)
	}
	p.advance() // close geo.distance(...)

	opTok := p.advance()
	op, ok := parseOp(opTok.text)
	if !ok {
		return nil, errs.Newf("filter.parse", errs.InvalidRequest, "unsupported comparison operator %q after geo.distance(...)", opTok.text)
	}
	kmTok := p.advance()
	km, err := strconv.ParseFloat(kmTok.text, 64)
	if err != nil {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedNumericLiteral)
	}
	return GeoDistanceCompare{Field: fieldTok.text, Point: value.GeoPoint{Lon: lon, Lat: lat}, Op: op, KM: km}, nil
}

// parseLambda parses the `(x: predicate)` portion of `field/any(x: pred)` or
// `field/all(x: pred)` (§4.3 collection predicates).
func (p *parser) parseLambda(field string, all bool) (Expr, error) {
	if p.cur().kind != tokLParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedOpenParen)
	}
	p.advance()
	if all && p.cur().kind == tokRParen {
		// all() with no predicate: vacuously true, matching OData semantics
		// for an always-true lambda body.
		p.advance()
		return CollectionLambda{Field: field, All: true}, nil
	}
	varTok := p.advance()
	if varTok.kind != tokIdent {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedLambdaVariable)
	}
	if p.cur().kind != tokColon {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedColon)
	}
	p.advance()

	predicate, err := p.parseLambdaBody(varTok.text)
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokRParen {
		return nil, errs.New("filter.parse", errs.InvalidRequest, errExpectedCloseParen)
	}
	p.advance()
	return CollectionLambda{Field: field, All: all, Var: varTok.text, Predicate: predicate}, nil
}

// parseLambdaBody parses a comparison against the lambda variable, e.g.
// `x eq 'red'`. Only a single comparison is supported inside a lambda body
// (§4.3's restricted subset does not include nested boolean logic there).
func (p *parser) parseLambdaBody(varName string) (Expr, error) {
	t := p.advance()
	if t.kind != tokIdent || t.text != varName {
		return nil, errs.Newf("filter.parse", errs.InvalidRequest, "expected lambda variable %q, found %q", varName, t.text)
	}
	opTok := p.advance()
	op, ok := parseOp(opTok.text)
	if !ok {
		return nil, errs.Newf("filter.parse", errs.InvalidRequest, "unsupported comparison operator %q in lambda body", opTok.text)
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return VarCompare{Var: varName, Op: op, Value: lit}, nil
}
