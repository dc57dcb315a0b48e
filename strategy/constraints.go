package strategy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Margins bundles the feasibility measures of one candidate profile. The sign
// convention is uniform: a margin is the slack left before its constraint
// binds, so feasible means every margin >= 0.
type Margins struct {
	Battery      float64 // min battery level over all nodes, start line included, minus the deep-discharge floor, Wh
	Acceleration float64 // min over the route of deliverable minus commanded acceleration, m/s^2
	FinalBattery float64 // battery at the finish minus the required finish level, Wh
	PowerCap     float64 // bus power ceiling minus peak draw, W; 0 unless enforce_power_cap
}

// ConstraintEngine evaluates candidate velocity profiles against one route:
// the full battery trajectory, the acceleration the motor can actually
// deliver, and optionally the bus power ceiling. Construction snapshots the
// route columns; evaluation is pure.
type ConstraintEngine struct {
	cfg   *Config
	power *PowerModel
	solar SolarModel
	route Route

	slopes []float64
	lats   []float64
	lons   []float64
}

func NewConstraintEngine(cfg *Config, route Route, power *PowerModel, solar SolarModel) *ConstraintEngine {
	e := &ConstraintEngine{cfg: cfg, power: power, solar: solar, route: route,
		slopes: route.Slopes(),
		lats:   make([]float64, len(route)),
		lons:   make([]float64, len(route)),
	}
	for i, seg := range route {
		e.lats[i] = seg.Latitude
		e.lons[i] = seg.Longitude
	}
	return e
}

// Margins evaluates all feasibility margins for one profile. The battery
// margin covers every node from the start line to the finish, so a pack that
// begins below the floor stays infeasible no matter how much the first
// segments harvest. A thermal breakdown during the power sweep propagates out
// as ThermalConvergenceError with the segment stamped.
func (e *ConstraintEngine) Margins(profile VelocityProfile) (Margins, error) {
	kin, net, output, battery, err := e.trajectory(profile)
	if err != nil {
		return Margins{}, err
	}

	m := Margins{
		Battery:      floats.Min(battery) - e.cfg.SafeBatteryLevel(),
		FinalBattery: battery[len(battery)-1] - e.cfg.FinishBatteryLevel(),
		Acceleration: accelerationMargin(output, kin, e.cfg.Mass),
	}
	if e.cfg.EnforcePowerCap {
		m.PowerCap = e.cfg.MaxPower() - floats.Max(net)
	}
	return m, nil
}

// BatteryTrajectory returns the battery level (Wh) at every route node for
// the given profile: the start-line charge first, then the level at the end
// of each segment.
func (e *ConstraintEngine) BatteryTrajectory(profile VelocityProfile) ([]float64, error) {
	_, _, _, battery, err := e.trajectory(profile)
	return battery, err
}

// trajectory runs the full physics sweep for one candidate: kinematics, motor
// power per segment, solar capture at each segment's end time, and the battery
// level at every node as a prefix sum of net energy drawn.
func (e *ConstraintEngine) trajectory(profile VelocityProfile) (SegmentKinematics, []float64, []float64, []float64, error) {
	if len(profile) != len(e.route)+1 {
		return SegmentKinematics{}, nil, nil, nil, &ValidationError{Field: "velocity profile", Row: -1,
			Reason: fmt.Sprintf("needs %d nodes for %d segments, got %d", len(e.route)+1, len(e.route), len(profile))}
	}
	kin := Kinematics(profile, e.route)

	net, output, err := e.power.Evaluate(kin.AvgSpeed, kin.Acceleration, e.slopes)
	if err != nil {
		return SegmentKinematics{}, nil, nil, nil, err
	}

	// Net energy drawn per segment, Wh; solar is sampled at the segment's end
	// time and credited over its whole duration.
	drawn := make([]float64, len(e.route))
	for i := range drawn {
		solar := e.solar.IncidentPower(kin.Elapsed[i], e.lats[i], e.lons[i])
		drawn[i] = (net[i] - solar) * kin.Dt[i] / 3600
	}
	cum := make([]float64, len(drawn))
	floats.CumSum(cum, drawn)

	// Node 0 is the start line itself: the initial charge is part of the
	// trajectory, not just its boundary condition.
	battery := make([]float64, len(cum)+1)
	battery[0] = e.cfg.InitialBatteryCapacity()
	for i, c := range cum {
		battery[i+1] = battery[0] - c
	}
	return kin, net, output, battery, nil
}

// accelerationMargin is the tightest gap between the acceleration the motor's
// output power can deliver at each segment's average speed and the
// acceleration the profile commands there. Negative means the profile demands
// more than the motor can give somewhere on the route.
func accelerationMargin(output []float64, kin SegmentKinematics, mass float64) float64 {
	margin := math.Inf(1)
	for i, po := range output {
		if po < 0 {
			po = 0
		}
		var deliverable float64
		if kin.AvgSpeed[i] > 0 {
			deliverable = po / (mass * kin.AvgSpeed[i])
		}
		if gap := deliverable - kin.Acceleration[i]; gap < margin {
			margin = gap
		}
	}
	return margin
}
