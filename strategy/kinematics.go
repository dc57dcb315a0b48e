package strategy

import "gonum.org/v1/gonum/floats"

// dtEpsilon keeps segment durations finite when both node velocities are zero.
const dtEpsilon = 1e-8

// VelocityProfile holds one velocity per route node (segment boundary), so a
// route of n segments carries n+1 nodes. A drivable profile starts and ends
// at rest: profile[0] == profile[len(profile)-1] == 0.
type VelocityProfile []float64

// SegmentKinematics holds the per-segment quantities derived from adjacent
// velocity nodes and segment distances. Elapsed is the cumulative time at
// each segment's end, counted from the race start.
type SegmentKinematics struct {
	AvgSpeed     []float64 // (v0+v1)/2, m/s
	Dt           []float64 // segment duration, s
	Acceleration []float64 // (v1-v0)/dt, m/s^2
	Elapsed      []float64 // cumulative time at segment end, s
}

// Kinematics derives speed, duration, acceleration and elapsed time for every
// segment under the given profile. profile must hold len(route)+1 nodes.
func Kinematics(profile VelocityProfile, route Route) SegmentKinematics {
	n := len(route)
	k := SegmentKinematics{
		AvgSpeed:     make([]float64, n),
		Dt:           make([]float64, n),
		Acceleration: make([]float64, n),
		Elapsed:      make([]float64, n),
	}
	for i := 0; i < n; i++ {
		v0, v1 := profile[i], profile[i+1]
		k.AvgSpeed[i] = (v0 + v1) / 2
		k.Dt[i] = segmentDuration(v0, v1, route[i].Distance)
		if k.Dt[i] > 0 {
			k.Acceleration[i] = (v1 - v0) / k.Dt[i]
		}
	}
	floats.CumSum(k.Elapsed, k.Dt)
	return k
}

// segmentDuration assumes velocity ramps linearly across the segment:
// dt = 2*dx/(v0+v1+eps). The epsilon keeps a stationary segment finite
// instead of dividing by zero.
func segmentDuration(v0, v1, dx float64) float64 {
	return 2 * dx / (v0 + v1 + dtEpsilon)
}

// TotalTime is the optimization objective: the summed segment durations, s.
func TotalTime(profile VelocityProfile, route Route) float64 {
	var total float64
	for i := range route {
		total += segmentDuration(profile[i], profile[i+1], route[i].Distance)
	}
	return total
}
