// Package cel filters orders with CEL boolean expressions.
package cel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/feastflow/storefront/internal/domain/order"
)

// maxExpressionLength is the maximum allowed length for filter expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit per order.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout is the maximum time allowed for a single evaluation.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context cancellation is checked.
const interruptCheckFreq = 100

// ErrInvalidExpression wraps every compile-time rejection.
var ErrInvalidExpression = errors.New("invalid filter expression")

// Filter compiles order filter expressions.
type Filter struct {
	env *cel.Env
}

// NewFilter creates a Filter over the order environment.
func NewFilter() (*Filter, error) {
	env, err := NewOrderEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create order environment: %w", err)
	}
	return &Filter{env: env}, nil
}

// Program is a compiled filter expression.
type Program struct {
	expr string
	prg  cel.Program
}

// String returns the source expression.
func (p *Program) String() string { return p.expr }

// Compile validates, parses and type-checks expr. The expression must
// evaluate to a boolean.
func (f *Filter) Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: expression is empty", ErrInvalidExpression)
	}
	if len(expr) > maxExpressionLength {
		return nil, fmt.Errorf("%w: expression too long: %d characters (max %d)", ErrInvalidExpression, len(expr), maxExpressionLength)
	}
	if err := validateNesting(expr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	ast, issues := f.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: expression returns %s, want bool", ErrInvalidExpression, out)
	}

	prg, err := f.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// validateNesting checks that the expression does not exceed the maximum allowed
// nesting depth for parentheses, brackets, and braces.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// Match evaluates the program against one order.
func (p *Program) Match(ctx context.Context, o order.Order) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	result, _, err := p.prg.ContextEval(ctx, BuildActivation(o))
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	boolResult, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", result.Value())
	}
	return boolResult, nil
}

// Apply compiles expr and returns the orders it matches, in input order.
func (f *Filter) Apply(ctx context.Context, expr string, orders []order.Order) ([]order.Order, error) {
	prg, err := f.Compile(expr)
	if err != nil {
		return nil, err
	}
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		ok, err := prg.Match(ctx, o)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		if ok {
			out = append(out, o)
		}
	}
	return out, nil
}
