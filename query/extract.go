package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Params is the flat field-to-literal mapping extracted from an expression.
type Params map[string]string

// NonLiteralError reports a recognized field compared against a value that
// could not be reduced to a literal.
type NonLiteralError struct {
	Field string
}

func (e *NonLiteralError) Error() string {
	return fmt.Sprintf("field %q compared against a non-literal value", e.Field)
}

// Extract walks expr and collects the literal values of every recognized
// field it mentions. Comparisons against unrecognized fields are ignored.
// A recognized field compared against anything but a literal fails with a
// *NonLiteralError. A nil expr yields empty Params.
func Extract(expr Expr, recognized []string) (Params, error) {
	known := make(map[string]bool, len(recognized))
	for _, name := range recognized {
		known[name] = true
	}
	params := make(Params)
	if err := walk(expr, known, params); err != nil {
		return nil, err
	}
	return params, nil
}

func walk(expr Expr, known map[string]bool, out Params) error {
	switch e := expr.(type) {
	case nil:
		return nil
	case Binary:
		if e.Op == OpAnd {
			if err := walk(e.Left, known, out); err != nil {
				return err
			}
			return walk(e.Right, known, out)
		}
		return collect(e, known, out)
	case Field, Const:
		// A bare leaf asserts nothing.
		return nil
	default:
		return fmt.Errorf("unsupported expression node %T", expr)
	}
}

// collect records one comparison. Both field=value and value=field orders
// are accepted.
func collect(e Binary, known map[string]bool, out Params) error {
	if e.Op != OpEq && e.Op != OpIn {
		return fmt.Errorf("unsupported operator %d", e.Op)
	}
	field, ok := e.Left.(Field)
	value := e.Right
	if !ok {
		field, ok = e.Right.(Field)
		value = e.Left
	}
	if !ok || !known[field.Name] {
		return nil
	}
	c, ok := value.(Const)
	if !ok {
		return &NonLiteralError{Field: field.Name}
	}
	s, err := stringify(c.Value, e.Op)
	if err != nil {
		return &NonLiteralError{Field: field.Name}
	}
	out[field.Name] = s
	return nil
}

func stringify(v any, op Op) (string, error) {
	if op == OpIn {
		values, ok := v.([]any)
		if !ok {
			return "", fmt.Errorf("membership test against %T", v)
		}
		parts := make([]string, 0, len(values))
		for _, item := range values {
			s, err := literal(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	}
	return literal(v)
}

func literal(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case fmt.Stringer:
		return x.String(), nil
	default:
		return "", fmt.Errorf("value of type %T is not a literal", v)
	}
}
