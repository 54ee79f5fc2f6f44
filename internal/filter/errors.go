package filter

import "errors"

var (
	errExpectedCloseParen     = errors.New("expected ')' in filter expression")
	errExpectedOpenParen      = errors.New("expected '(' in filter expression")
	errExpectedComma          = errors.New("expected ',' in filter expression")
	errExpectedColon          = errors.New("expected ':' in filter expression")
	errExpectedFieldName      = errors.New("expected field name in filter expression")
	errExpectedStringLiteral  = errors.New("expected string literal in filter expression")
	errExpectedNumericLiteral = errors.New("expected numeric literal in filter expression")
	errExpectedPointFunction  = errors.New("expected point(...) in geo.distance(...) filter expression")
	errExpectedLambdaVariable = errors.New("expected lambda variable name in collection predicate")
	errBareVarCompare         = errors.New("internal: VarCompare evaluated outside a lambda context")
	errUnknownExprNode        = errors.New("internal: unknown filter expression node")
	errUnsupportedLambdaBody  = errors.New("any()/all() predicate must be a single comparison against the lambda variable")
)
