// Package filter translates AIP-160 event filters into SQL conditions.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition selects everything.
func (c SQLCondition) Empty() bool { return strings.TrimSpace(c.Clause) == "" }

// columns maps filter identifiers to journal columns.
var columns = map[string]string{
	"seq":         "seq",
	"type":        "event_type",
	"actor_id":    "actor_id",
	"entity_type": "entity_type",
	"entity_id":   "entity_id",
	"request_id":  "request_id",
	"ts":          "ts_millis",
}

var comparisons = map[string]string{
	"_==_": "=", "=": "=",
	"_!=_": "!=", "!=": "!=",
	"_<_": "<", "<": "<",
	"_<=_": "<=", "<=": "<=",
	"_>_": ">", ">": ">",
	"_>=_": ">=", ">=": ">=",
}

// EventDeclarations returns the identifiers accepted in event filters.
func EventDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("seq", filtering.TypeInt),
		filtering.DeclareIdent("type", filtering.TypeString),
		filtering.DeclareIdent("actor_id", filtering.TypeString),
		filtering.DeclareIdent("entity_type", filtering.TypeString),
		filtering.DeclareIdent("entity_id", filtering.TypeString),
		filtering.DeclareIdent("request_id", filtering.TypeString),
		filtering.DeclareIdent("ts", filtering.TypeTimestamp),
	)
}

// ParseEventFilter parses filter and returns the equivalent SQL condition.
// An empty filter yields an empty condition.
func ParseEventFilter(filter string) (SQLCondition, error) {
	if strings.TrimSpace(filter) == "" {
		return SQLCondition{}, nil
	}
	decls, err := EventDeclarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translate(parsed.CheckedExpr.GetExpr())
}

func translate(e *expr.Expr) (SQLCondition, error) {
	call := e.GetCallExpr()
	if call == nil {
		return SQLCondition{}, fmt.Errorf("unsupported expression: %T", e.GetExprKind())
	}
	switch call.GetFunction() {
	case "_&&_", "AND", "FUZZY":
		return join(call.GetArgs(), "AND")
	case "_||_", "OR":
		return join(call.GetArgs(), "OR")
	case "NOT":
		if len(call.GetArgs()) != 1 {
			return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translate(call.GetArgs()[0])
		if err != nil {
			return SQLCondition{}, err
		}
		return SQLCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	}
	op, ok := comparisons[call.GetFunction()]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.GetFunction())
	}
	return compare(call.GetArgs(), op)
}

func join(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translate(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	right, err := translate(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func compare(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return SQLCondition{}, fmt.Errorf("expected identifier on the left of %s", op)
	}
	column, ok := columns[ident.GetName()]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", ident.GetName())
	}
	value, err := literal(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func literal(e *expr.Expr) (any, error) {
	if c := e.GetConstExpr(); c != nil {
		switch kind := c.GetConstantKind().(type) {
		case *expr.Constant_StringValue:
			return kind.StringValue, nil
		case *expr.Constant_Int64Value:
			return kind.Int64Value, nil
		case *expr.Constant_Uint64Value:
			return int64(kind.Uint64Value), nil
		case *expr.Constant_BoolValue:
			return kind.BoolValue, nil
		default:
			return nil, fmt.Errorf("unsupported constant type: %T", kind)
		}
	}
	if call := e.GetCallExpr(); call != nil && call.GetFunction() == "timestamp" && len(call.GetArgs()) == 1 {
		text := call.GetArgs()[0].GetConstExpr().GetStringValue()
		ts, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp: %q", text)
		}
		return ts.UTC().UnixMilli(), nil
	}
	return nil, fmt.Errorf("expected a literal value")
}
