package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoute(distances ...float64) Route {
	route := make(Route, len(distances))
	for i, d := range distances {
		route[i] = Segment{Distance: d, Latitude: -12.46, Longitude: 130.84}
	}
	return route
}

func TestKinematics_TrapezoidalDt(t *testing.T) {
	// GIVEN a 0 -> 10 -> 0 profile over two 1 km segments
	route := testRoute(1000, 1000)
	kin := Kinematics(VelocityProfile{0, 10, 0}, route)

	// THEN dt = 2*dx/(v0+v1+eps) = 2000/10 on both segments
	assert.InDelta(t, 200, kin.Dt[0], 1e-3)
	assert.InDelta(t, 200, kin.Dt[1], 1e-3)
	assert.InDelta(t, 5, kin.AvgSpeed[0], 1e-12)

	// AND acceleration is the velocity change over the segment duration
	assert.InDelta(t, 10.0/kin.Dt[0], kin.Acceleration[0], 1e-12)
	assert.InDelta(t, -10.0/kin.Dt[1], kin.Acceleration[1], 1e-12)

	// AND elapsed time accumulates segment durations
	assert.InDelta(t, kin.Dt[0], kin.Elapsed[0], 1e-9)
	assert.InDelta(t, kin.Dt[0]+kin.Dt[1], kin.Elapsed[1], 1e-9)
}

func TestKinematics_StationarySegmentStaysFinite(t *testing.T) {
	// Both nodes at rest: the epsilon guard keeps dt finite.
	dt := segmentDuration(0, 0, 1000)
	require.False(t, math.IsInf(dt, 0))
	assert.InDelta(t, 2*1000/dtEpsilon, dt, 1)
}

func TestKinematics_ZeroDistanceSegment(t *testing.T) {
	// Degenerate zero-length segment: no division error, no time contribution.
	route := testRoute(1000, 0)
	kin := Kinematics(VelocityProfile{0, 10, 10}, route)

	assert.Equal(t, 0.0, kin.Dt[1])
	assert.Equal(t, 0.0, kin.Acceleration[1])
	assert.False(t, math.IsNaN(kin.Elapsed[1]))
}

func TestTotalTime_MatchesSummedDurations(t *testing.T) {
	route := testRoute(1000, 1500, 2000)
	profile := VelocityProfile{0, 12, 20, 0}

	kin := Kinematics(profile, route)
	var sum float64
	for _, dt := range kin.Dt {
		sum += dt
	}
	assert.InDelta(t, sum, TotalTime(profile, route), 1e-9)
}

func TestTotalTime_FasterProfileIsFaster(t *testing.T) {
	route := testRoute(1000, 1000, 1000)
	slow := TotalTime(VelocityProfile{0, 10, 10, 0}, route)
	fast := TotalTime(VelocityProfile{0, 20, 20, 0}, route)
	assert.Less(t, fast, slow)
}
