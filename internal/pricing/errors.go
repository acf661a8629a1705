package pricing

import "fmt"

// ValidationError reports an input outside a model's domain (non-positive
// where positivity is required, NaN/Inf, or a dividend yield above the
// risk-free rate for the early-exercise model).
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

// ConvergenceError reports an iterative search that exhausted its iteration
// budget without meeting tolerance.
type ConvergenceError struct {
	Op         string
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s did not converge after %d iterations (residual %g)", e.Op, e.Iterations, e.Residual)
}
