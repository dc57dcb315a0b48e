package strategy

import "fmt"

// ThermalConvergenceError reports a motor winding temperature fixed point that
// failed to settle within the iteration cap. Segment is the route segment
// whose operating point triggered it, or -1 when evaluated outside a route.
type ThermalConvergenceError struct {
	Segment    int
	Iterations int
	Residual   float64 // |Tw' - Tw| at the last iteration, K
}

func (e *ThermalConvergenceError) Error() string {
	if e.Segment >= 0 {
		return fmt.Sprintf("winding temperature did not converge on segment %d after %d iterations (residual %.3g K)",
			e.Segment, e.Iterations, e.Residual)
	}
	return fmt.Sprintf("winding temperature did not converge after %d iterations (residual %.3g K)",
		e.Iterations, e.Residual)
}

// ValidationError reports malformed configuration or route input, rejected
// before any optimization work starts. Row is the offending route row index,
// or -1 when the defect is not row-scoped.
type ValidationError struct {
	Field  string
	Row    int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("invalid %s at row %d: %s", e.Field, e.Row, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InfeasibleError reports a solve that ended without satisfying the battery
// and acceleration constraints. Best carries the least-violating profile found
// so callers can inspect how close the route came to drivable.
type InfeasibleError struct {
	Best         *Result
	MaxViolation float64 // worst normalized constraint violation at Best
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("no feasible velocity profile found: worst constraint violation %.3g after %d outer iterations",
		e.MaxViolation, e.Best.OuterIterations)
}

// NonConvergedError reports a solve that exhausted its iteration budget while
// the objective was still moving. Best carries the feasible but possibly
// suboptimal profile reached when the budget ran out.
type NonConvergedError struct {
	Best      *Result
	TimeDelta float64 // objective change over the last outer iteration, s
}

func (e *NonConvergedError) Error() string {
	return fmt.Sprintf("optimizer did not converge within %d outer iterations (last objective change %.3g s)",
		e.Best.OuterIterations, e.TimeDelta)
}
