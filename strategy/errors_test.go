package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThermalConvergenceError_Message(t *testing.T) {
	err := &ThermalConvergenceError{Segment: 7, Iterations: 100, Residual: 12.5}
	assert.Contains(t, err.Error(), "segment 7")
	assert.Contains(t, err.Error(), "100 iterations")

	unstamped := &ThermalConvergenceError{Segment: -1, Iterations: 100, Residual: 12.5}
	assert.NotContains(t, unstamped.Error(), "segment")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "distance", Row: 3, Reason: "must be positive"}
	assert.Contains(t, err.Error(), "distance")
	assert.Contains(t, err.Error(), "row 3")

	global := &ValidationError{Field: "mass", Row: -1, Reason: "must be positive"}
	assert.NotContains(t, global.Error(), "row")
}

func TestSolveErrors_CarryBestResult(t *testing.T) {
	best := &Result{OuterIterations: 5}

	ierr := &InfeasibleError{Best: best, MaxViolation: 0.25}
	assert.Same(t, best, ierr.Best)
	assert.Contains(t, ierr.Error(), "5 outer iterations")

	nerr := &NonConvergedError{Best: best, TimeDelta: 1.5}
	assert.Same(t, best, nerr.Best)
	assert.Contains(t, nerr.Error(), "did not converge")
}
