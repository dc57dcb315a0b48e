package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/optimize"
)

// velocityFloor is the lower bound for interior node velocities. Keeping
// interior nodes strictly positive keeps every segment duration finite.
const velocityFloor = 0.01

// rejectedCandidatePenalty stands in for the objective when a candidate's
// physics evaluation fails (thermal non-convergence). Large but finite so the
// simplex can retreat from the region instead of crashing the solve.
const rejectedCandidatePenalty = 1e12

// Feasibility repair: shave interior speeds by small steps until hairline
// constraint violations left by the penalty method close.
const (
	repairShrink = 0.999
	repairSteps  = 60
)

// SolveOptions tunes the penalty-continuation search. Start from
// DefaultSolveOptions; the zero value is rejected by NewOptimizer.
type SolveOptions struct {
	InitialGuess float64 // starting interior node velocity, m/s; 0 = config's initial_guess_velocity

	MaxOuterIterations int           // penalty continuation steps
	MaxInnerIterations int           // Nelder-Mead major iterations per step
	MaxFuncEvals       int           // objective evaluations per step
	PenaltyInitial     float64       // starting penalty weight
	PenaltyGrowth      float64       // weight multiplier per continuation step
	ConstraintTol      float64       // allowed normalized violation at convergence
	ObjectiveTol       float64       // |delta total time| (s) for outer convergence
	Budget             time.Duration // wall-clock cap for the whole solve; 0 = none
}

func DefaultSolveOptions() SolveOptions {
	return SolveOptions{
		MaxOuterIterations: 12,
		MaxInnerIterations: 4000,
		MaxFuncEvals:       200000,
		PenaltyInitial:     1e4,
		PenaltyGrowth:      10,
		ConstraintTol:      1e-6,
		ObjectiveTol:       1e-3,
	}
}

func (o SolveOptions) validate() error {
	checks := []struct {
		field  string
		ok     bool
		reason string
	}{
		{"max_outer_iterations", o.MaxOuterIterations >= 1, "must be >= 1"},
		{"max_inner_iterations", o.MaxInnerIterations >= 1, "must be >= 1"},
		{"max_func_evals", o.MaxFuncEvals >= 1, "must be >= 1"},
		{"penalty_initial", o.PenaltyInitial > 0, "must be positive"},
		{"penalty_growth", o.PenaltyGrowth > 1, "must exceed 1"},
		{"constraint_tol", o.ConstraintTol > 0, "must be positive"},
		{"objective_tol", o.ObjectiveTol > 0, "must be positive"},
		{"initial_guess", o.InitialGuess >= 0, "must be non-negative"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return &ValidationError{Field: ch.field, Row: -1, Reason: ch.reason}
		}
	}
	return nil
}

// Result is the outcome of one Solve. Failed solves still produce a Result:
// InfeasibleError and NonConvergedError carry the best profile found.
type Result struct {
	Profile         VelocityProfile // len(route)+1 node velocities, endpoints exactly 0
	TotalTime       float64         // objective at Profile, s
	Margins         Margins         // feasibility margins at Profile
	Feasible        bool            // all margins >= 0
	OuterIterations int
	FuncEvals       int
	Runtime         time.Duration
}

// Optimizer searches for the minimum-time feasible velocity profile over a
// fixed route and configuration. Single-shot: construct, then Solve once.
type Optimizer struct {
	cfg    *Config
	route  Route
	engine *ConstraintEngine
	opts   SolveOptions
}

// NewOptimizer validates all inputs and prepares a solver. Configuration and
// route defects surface here, before any search work.
func NewOptimizer(cfg *Config, route Route, solar SolarModel, opts SolveOptions) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}
	if solar == nil {
		return nil, &ValidationError{Field: "solar model", Row: -1, Reason: "must be selected explicitly"}
	}
	if opts.InitialGuess == 0 {
		opts.InitialGuess = cfg.InitialGuessVelocity
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	power := NewPowerModel(cfg)
	return &Optimizer{
		cfg:    cfg,
		route:  route,
		engine: NewConstraintEngine(cfg, route, power, solar),
		opts:   opts,
	}, nil
}

// Solve runs the penalty continuation: each outer iteration minimizes total
// time plus a quadratic penalty on constraint and bound violations, then
// multiplies the penalty weight. The search variables are the interior node
// velocities; the endpoints stay pinned at rest. Converged means the worst
// normalized violation is within ConstraintTol and the objective moved less
// than ObjectiveTol over the last outer iteration.
func (opt *Optimizer) Solve() (*Result, error) {
	start := time.Now()
	interior := len(opt.route) - 1

	x := make([]float64, interior)
	guess := clamp(opt.opts.InitialGuess, velocityFloor, opt.cfg.MaxVelocity)
	for i := range x {
		x[i] = guess
	}

	mu := opt.opts.PenaltyInitial
	prevTime := math.Inf(1)
	timeDelta := math.Inf(1)
	evals := 0
	outer := 0
	converged := false

	for outer = 1; outer <= opt.opts.MaxOuterIterations; outer++ {
		settings := &optimize.Settings{
			MajorIterations: opt.opts.MaxInnerIterations,
			FuncEvaluations: opt.opts.MaxFuncEvals,
			Converger: &optimize.FunctionConverge{
				Absolute:   opt.opts.ObjectiveTol * 1e-3,
				Iterations: 200,
			},
		}
		if opt.opts.Budget > 0 {
			remaining := opt.opts.Budget - time.Since(start)
			if remaining <= 0 {
				logrus.Warnf("Solve budget exhausted after %d outer iterations", outer-1)
				break
			}
			settings.Runtime = remaining
		}

		problem := optimize.Problem{Func: opt.penalized(mu)}
		res, err := optimize.Minimize(problem, x, settings, &optimize.NelderMead{})
		if err != nil && res == nil {
			return nil, fmt.Errorf("inner solve at outer iteration %d: %w", outer, err)
		}
		if err != nil {
			// Method-level failures still return the best iterate, so keep
			// going with it; evaluation limits surface in res.Status, not err.
			logrus.Debugf("Inner solve reported: %v", err)
		}
		copy(x, res.X)
		evals += res.Stats.FuncEvaluations

		profile := opt.expand(x)
		margins, merr := opt.engine.Margins(profile)
		if merr != nil {
			logrus.Warnf("Outer %d: iterate not evaluable (%v), raising penalty", outer, merr)
			mu *= opt.opts.PenaltyGrowth
			continue
		}
		total := TotalTime(profile, opt.route)
		violation := worstViolation(opt.normalized(margins))
		timeDelta = math.Abs(prevTime - total)

		logrus.Infof("Outer %d: time=%.1fs violation=%.3g mu=%.0e evals=%d",
			outer, total, violation, mu, res.Stats.FuncEvaluations)

		if violation <= opt.opts.ConstraintTol && timeDelta <= opt.opts.ObjectiveTol {
			converged = true
			break
		}
		prevTime = total
		mu *= opt.opts.PenaltyGrowth
	}
	if outer > opt.opts.MaxOuterIterations {
		outer = opt.opts.MaxOuterIterations
	}

	profile := opt.expand(x)
	margins, err := opt.engine.Margins(profile)
	if err != nil {
		return nil, fmt.Errorf("evaluating final profile: %w", err)
	}
	profile, margins = opt.repair(profile, margins)

	violation := worstViolation(opt.normalized(margins))
	result := &Result{
		Profile:         profile,
		TotalTime:       TotalTime(profile, opt.route),
		Margins:         margins,
		Feasible:        violation == 0,
		OuterIterations: outer,
		FuncEvals:       evals,
		Runtime:         time.Since(start),
	}
	if !result.Feasible {
		return result, &InfeasibleError{Best: result, MaxViolation: violation}
	}
	if !converged {
		return result, &NonConvergedError{Best: result, TimeDelta: timeDelta}
	}
	return result, nil
}

// penalized builds the inner objective for one penalty weight: total time at
// the box-clamped profile, plus mu-weighted quadratic penalties for negative
// margins and for excursions outside the velocity box.
func (opt *Optimizer) penalized(mu float64) func(x []float64) float64 {
	lo, hi := velocityFloor, opt.cfg.MaxVelocity
	return func(x []float64) float64 {
		var bound float64
		for _, xi := range x {
			if xi < lo {
				d := lo - xi
				bound += d * d
			} else if xi > hi {
				d := xi - hi
				bound += d * d
			}
		}
		profile := opt.expand(x)
		margins, err := opt.engine.Margins(profile)
		if err != nil {
			return rejectedCandidatePenalty
		}
		var penalty float64
		for _, g := range opt.normalized(margins) {
			if g < 0 {
				penalty += g * g
			}
		}
		return TotalTime(profile, opt.route) + mu*(penalty+bound)
	}
}

// expand rebuilds the full node profile from the interior search variables:
// endpoints pinned to rest, interior values clamped into the velocity box.
func (opt *Optimizer) expand(x []float64) VelocityProfile {
	profile := make(VelocityProfile, len(x)+2)
	for i, xi := range x {
		profile[i+1] = clamp(xi, velocityFloor, opt.cfg.MaxVelocity)
	}
	return profile
}

// repair closes hairline violations by shaving interior speeds, which always
// costs time but moves every margin the right way. Shrink steps are only
// accepted when they reduce the worst violation.
func (opt *Optimizer) repair(profile VelocityProfile, margins Margins) (VelocityProfile, Margins) {
	worst := worstViolation(opt.normalized(margins))
	if worst == 0 {
		return profile, margins
	}
	candidate := append(VelocityProfile(nil), profile...)
	for step := 0; step < repairSteps && worst > 0; step++ {
		for i := 1; i < len(candidate)-1; i++ {
			candidate[i] = math.Max(velocityFloor, candidate[i]*repairShrink)
		}
		m, err := opt.engine.Margins(candidate)
		if err != nil {
			break
		}
		if v := worstViolation(opt.normalized(m)); v < worst {
			copy(profile, candidate)
			margins = m
			worst = v
		}
	}
	return profile, margins
}

// normalized rescales margins to dimensionless units so one tolerance covers
// them all: battery terms against pack capacity, acceleration against g,
// power against the bus ceiling.
func (opt *Optimizer) normalized(m Margins) []float64 {
	n := []float64{
		m.Battery / opt.cfg.BatteryCapacity,
		m.Acceleration / opt.cfg.Gravity,
		m.FinalBattery / opt.cfg.BatteryCapacity,
	}
	if opt.cfg.EnforcePowerCap {
		n = append(n, m.PowerCap/opt.cfg.MaxPower())
	}
	return n
}

// worstViolation is the magnitude of the most negative normalized margin,
// 0 when all constraints hold.
func worstViolation(normalized []float64) float64 {
	worst := 0.0
	for _, g := range normalized {
		if -g > worst {
			worst = -g
		}
	}
	return worst
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
