package strategy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoute_ParsesAllColumns(t *testing.T) {
	route, err := LoadRoute(filepath.Join("testdata", "route.csv"))
	require.NoError(t, err)

	require.Len(t, route, 3)
	assert.Equal(t, Segment{Distance: 1000, Slope: 0, Latitude: -12.46, Longitude: 130.84}, route[0])
	assert.Equal(t, Segment{Distance: 1500, Slope: 1.2, Latitude: -12.51, Longitude: 130.90}, route[1])
	assert.InDelta(t, 4500, route.TotalDistance(), 1e-12)
	assert.Equal(t, []float64{0, 1.2, -0.8}, route.Slopes())
}

func TestLoadRoute_MissingFile(t *testing.T) {
	_, err := LoadRoute(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadRoute_RejectsNonNumericCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"distance,slope,latitude,longitude\n1000,0,-12.4,130.8\n1500,abc,-12.5,130.9\n"), 0o644))

	_, err := LoadRoute(path)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "slope", verr.Field)
	assert.Equal(t, 1, verr.Row)
}

func TestLoadRoute_RejectsWrongColumnCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "route.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"distance,slope,latitude,longitude\n1000,0,-12.4\n"), 0o644))

	_, err := LoadRoute(path)
	assert.Error(t, err)
}

func TestRoute_Validate_RejectsBadSegments(t *testing.T) {
	base := func() Route {
		return Route{
			{Distance: 1000, Slope: 0, Latitude: -12.4, Longitude: 130.8},
			{Distance: 1000, Slope: 0, Latitude: -12.5, Longitude: 130.9},
		}
	}

	cases := []struct {
		name   string
		mutate func(Route)
		field  string
		row    int
	}{
		{"zero distance", func(r Route) { r[1].Distance = 0 }, "distance", 1},
		{"negative distance", func(r Route) { r[0].Distance = -10 }, "distance", 0},
		{"vertical slope", func(r Route) { r[0].Slope = 90 }, "slope", 0},
		{"latitude out of range", func(r Route) { r[1].Latitude = 95 }, "latitude", 1},
		{"longitude out of range", func(r Route) { r[1].Longitude = -181 }, "longitude", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			route := base()
			tc.mutate(route)
			err := route.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.row, verr.Row)
		})
	}
}

func TestRoute_Validate_NeedsTwoSegments(t *testing.T) {
	// One segment leaves no interior velocity node to optimize.
	route := Route{{Distance: 1000, Slope: 0, Latitude: -12.4, Longitude: 130.8}}
	err := route.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "route", verr.Field)
}
