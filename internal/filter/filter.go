// internal/filter/filter.go
package filter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Condition is one field/operator/value predicate. Conditions in an
// Expression are AND-combined.
type Condition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value string `json:"value"`
}

type Expression []Condition

// Fields that campaign filters may reference. Raw SQL fragments are never
// accepted from campaign configuration.
var allowedFields = map[string]string{
	"order_status": "o.order_status",
	"product_name": "o.product_name",
	"recipient":    "o.recipient",
	"order_id":     "o.order_id",
	"last_updated": "o.last_updated",
}

var allowedOps = map[string]string{
	"eq":   "=",
	"ne":   "<>",
	"gt":   ">",
	"gte":  ">=",
	"lt":   "<",
	"lte":  "<=",
	"like": "LIKE",
}

// Validate checks every condition against the field and operator allow-lists.
func (e Expression) Validate() error {
	for _, c := range e {
		if _, ok := allowedFields[c.Field]; !ok {
			return fmt.Errorf("filter: field %q is not filterable", c.Field)
		}
		if _, ok := allowedOps[c.Op]; !ok {
			return fmt.Errorf("filter: unknown operator %q", c.Op)
		}
	}
	return nil
}

// Compile renders the expression as a parenthesised SQL fragment using
// positional placeholders starting at argPos. It returns the fragment, the
// argument values, and the next free placeholder index. An empty expression
// compiles to an empty fragment.
func (e Expression) Compile(argPos int) (string, []interface{}, int, error) {
	if len(e) == 0 {
		return "", nil, argPos, nil
	}
	if err := e.Validate(); err != nil {
		return "", nil, argPos, err
	}

	parts := make([]string, 0, len(e))
	args := make([]interface{}, 0, len(e))
	for _, c := range e {
		parts = append(parts, fmt.Sprintf("%s %s $%d", allowedFields[c.Field], allowedOps[c.Op], argPos))
		args = append(args, c.Value)
		argPos++
	}
	return "(" + strings.Join(parts, " AND ") + ")", args, argPos, nil
}

// Parse decodes a JSON-encoded expression and validates it.
func Parse(raw string) (Expression, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var e Expression
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, fmt.Errorf("filter: invalid expression: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
