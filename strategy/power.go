package strategy

import (
	"errors"
	"fmt"
	"math"
)

// Winding temperature fixed point controls. The loop is capped so a pathological
// operating point surfaces as ThermalConvergenceError instead of spinning.
const (
	thermalTolerance = 1e-3 // K
	thermalMaxIter   = 100
)

// Motor characterization constants from the Agnirath dyno fit. Remanence falls
// linearly with ambient plus winding temperature; winding resistance rises
// linearly with winding temperature.
const (
	remanenceBase       = 1.6716     // T
	remanenceTempCoeff  = 0.0006     // T/K
	phaseCurrentCoeff   = 0.561      // A per T*N*m
	windingResistSlope  = 0.00022425 // Ohm/K
	windingResistOffset = 0.00820525 // Ohm
	eddyLossCoeff       = 9.602e-6   // W per (T/m)^2/Ohm/(m/s)^2
	windageLossCoeff    = 170.4e-6   // W*m^2 per (m/s)^2
	thermalRiseCoeff    = 0.455      // K/W
)

// PowerModel computes per-segment bus draw and mechanical output for the
// motor, including the loss-driven winding temperature equilibrium. The
// route-independent coefficients are derived once from Config at construction.
type PowerModel struct {
	cfg *Config

	frictionTorque  float64 // wheel radius * m * g * crr, N*m
	dragTorqueCoeff float64 // 0.5 * CdA * rho * wheel radius, N*m per (m/s)^2
	windagePerV2    float64 // W per (m/s)^2
}

func NewPowerModel(cfg *Config) *PowerModel {
	r := cfg.WheelRadius
	return &PowerModel{
		cfg:             cfg,
		frictionTorque:  r * cfg.Mass * cfg.Gravity * cfg.ZeroSpeedCrr,
		dragTorqueCoeff: 0.5 * cfg.CDA() * cfg.AirDensity * r,
		windagePerV2:    windageLossCoeff / (r * r),
	}
}

// ThermalState is the converged winding temperature at one operating point,
// with the copper and eddy losses evaluated there.
type ThermalState struct {
	Temperature float64 // K
	CopperLoss  float64 // W
	EddyLoss    float64 // W
	Iterations  int
}

// SegmentPower is the power breakdown for one segment evaluation.
type SegmentPower struct {
	Net     float64 // bus draw, W; clipped at zero (coasting never charges)
	Output  float64 // mechanical output torque*v/r, W; signed
	Winding ThermalState
}

// At evaluates the motor at one operating point: average speed (m/s),
// commanded acceleration (m/s^2) and road grade (deg).
func (p *PowerModel) At(speed, accel, slopeDeg float64) (SegmentPower, error) {
	speed2 := speed * speed
	torque := p.frictionTorque + p.dragTorqueCoeff*speed2

	winding, err := p.windingEquilibrium(torque, speed2, p.cfg.AmbientTemperature)
	if err != nil {
		return SegmentPower{}, err
	}

	output := torque * speed / p.cfg.WheelRadius
	windage := p.windagePerV2 * speed2
	gradePower := (p.cfg.Mass*accel + p.cfg.Mass*p.cfg.Gravity*math.Sin(slopeDeg*math.Pi/180)) * speed

	net := output + windage + winding.CopperLoss + winding.EddyLoss + gradePower
	if net < 0 {
		net = 0
	}
	return SegmentPower{Net: net, Output: output, Winding: winding}, nil
}

// Evaluate computes net and output power elementwise over equal-length speed,
// acceleration and slope slices, one element per route segment. A thermal
// failure is stamped with the offending segment index.
func (p *PowerModel) Evaluate(speeds, accels, slopes []float64) (net, output []float64, err error) {
	if len(accels) != len(speeds) || len(slopes) != len(speeds) {
		return nil, nil, &ValidationError{Field: "power inputs", Row: -1,
			Reason: fmt.Sprintf("mismatched lengths %d/%d/%d", len(speeds), len(accels), len(slopes))}
	}
	net = make([]float64, len(speeds))
	output = make([]float64, len(speeds))
	for i := range speeds {
		sp, err := p.At(speeds[i], accels[i], slopes[i])
		if err != nil {
			var terr *ThermalConvergenceError
			if errors.As(err, &terr) {
				terr.Segment = i
			}
			return nil, nil, err
		}
		net[i] = sp.Net
		output[i] = sp.Output
	}
	return net, output, nil
}

// windingEquilibrium iterates the loss/temperature balance to its fixed
// point, seeded at the given winding temperature. Hotter windings raise
// resistance and copper loss but weaken the magnets, so the balance settles
// within a few iterations at sane torques; the cap catches the rest.
func (p *PowerModel) windingEquilibrium(torque, speed2, seed float64) (ThermalState, error) {
	ambient := p.cfg.AmbientTemperature
	tw := seed
	var residual float64
	for iter := 1; iter <= thermalMaxIter; iter++ {
		remanence := remanenceBase - remanenceTempCoeff*(ambient+tw)
		current := phaseCurrentCoeff * remanence * torque
		resistance := windingResistSlope*tw - windingResistOffset
		copper := 3 * current * current * resistance
		ratio := remanence / p.cfg.WheelRadius
		eddy := eddyLossCoeff * ratio * ratio / resistance * speed2
		next := thermalRiseCoeff*(copper+eddy) + ambient

		residual = math.Abs(next - tw)
		if residual < thermalTolerance {
			return ThermalState{Temperature: next, CopperLoss: copper, EddyLoss: eddy, Iterations: iter}, nil
		}
		tw = next
	}
	return ThermalState{}, &ThermalConvergenceError{Segment: -1, Iterations: thermalMaxIter, Residual: residual}
}
