// Package query holds the filter expressions that select which REST call a
// twitterq query translates to. An expression is a small immutable tree of
// field comparisons combined with And; the client walks it once per query to
// collect literal parameter values.
package query

// Op enumerates the operators an expression node may carry.
type Op int

const (
	// OpAnd combines two subexpressions; both sides contribute parameters.
	OpAnd Op = iota
	// OpEq asserts that a field equals a single literal value.
	OpEq
	// OpIn asserts that a field matches any of several literal values,
	// encoded as a comma-separated list.
	OpIn
)

// Expr is one node of a filter expression tree. The concrete node types are
// Binary, Field and Const. A nil Expr is valid and contributes nothing.
type Expr interface {
	isExpr()
}

// Field names an entity filter field, e.g. "Type" or "Ids".
type Field struct {
	Name string
}

// Const wraps a literal value: a string, bool, integer, float, or any
// fmt.Stringer. For OpIn the value is a []any of such literals.
type Const struct {
	Value any
}

// Binary applies Op to two subexpressions. For OpEq and OpIn one side is a
// Field and the other a Const; either order is accepted.
type Binary struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (Field) isExpr()  {}
func (Const) isExpr()  {}
func (Binary) isExpr() {}

// Eq builds a field = value comparison.
func Eq(field string, value any) Expr {
	return Binary{Op: OpEq, Left: Field{Name: field}, Right: Const{Value: value}}
}

// In builds a membership test against one or more literal values.
func In(field string, values ...any) Expr {
	return Binary{Op: OpIn, Left: Field{Name: field}, Right: Const{Value: values}}
}

// And combines expressions left to right. And() is nil, And(e) is e.
func And(exprs ...Expr) Expr {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	}
	combined := exprs[0]
	for _, e := range exprs[1:] {
		combined = Binary{Op: OpAnd, Left: combined, Right: e}
	}
	return combined
}
