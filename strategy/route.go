package strategy

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// Segment is one piece of the race route. Slope is the road grade in degrees
// (positive uphill); latitude/longitude locate the segment for solar geometry.
type Segment struct {
	Distance  float64 // m, > 0
	Slope     float64 // deg
	Latitude  float64 // deg
	Longitude float64 // deg
}

// Route is the ordered list of segments from start line to finish line.
// A route of n segments has n+1 velocity nodes.
type Route []Segment

// routeColumns is the required CSV layout, one row per segment after a header.
var routeColumns = []string{"distance", "slope", "latitude", "longitude"}

// LoadRoute reads a route CSV (header row, then distance,slope,latitude,
// longitude per segment) and validates it.
func LoadRoute(path string) (Route, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening route %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = len(routeColumns)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading route header: %w", err)
	}

	var route Route
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading route row %d: %w", row, err)
		}
		var seg Segment
		fields := []*float64{&seg.Distance, &seg.Slope, &seg.Latitude, &seg.Longitude}
		for col, dst := range fields {
			v, err := strconv.ParseFloat(record[col], 64)
			if err != nil {
				return nil, &ValidationError{Field: routeColumns[col], Row: row,
					Reason: fmt.Sprintf("not a number: %q", record[col])}
			}
			*dst = v
		}
		route = append(route, seg)
		row++
	}

	if err := route.Validate(); err != nil {
		return nil, err
	}
	return route, nil
}

// Validate rejects routes the optimizer cannot work with: fewer than two
// segments (no interior velocity node to search over), non-positive or
// non-finite distances, and coordinates outside their geographic domain.
func (r Route) Validate() error {
	if len(r) < 2 {
		return &ValidationError{Field: "route", Row: -1,
			Reason: fmt.Sprintf("needs at least 2 segments, got %d", len(r))}
	}
	for i, seg := range r {
		switch {
		case !isFinite(seg.Distance) || seg.Distance <= 0:
			return &ValidationError{Field: "distance", Row: i,
				Reason: fmt.Sprintf("must be positive and finite, got %g", seg.Distance)}
		case !isFinite(seg.Slope) || math.Abs(seg.Slope) >= 90:
			return &ValidationError{Field: "slope", Row: i,
				Reason: fmt.Sprintf("must be a grade in (-90, 90) degrees, got %g", seg.Slope)}
		case !isFinite(seg.Latitude) || math.Abs(seg.Latitude) > 90:
			return &ValidationError{Field: "latitude", Row: i,
				Reason: fmt.Sprintf("must be in [-90, 90] degrees, got %g", seg.Latitude)}
		case !isFinite(seg.Longitude) || math.Abs(seg.Longitude) > 180:
			return &ValidationError{Field: "longitude", Row: i,
				Reason: fmt.Sprintf("must be in [-180, 180] degrees, got %g", seg.Longitude)}
		}
	}
	return nil
}

// TotalDistance is the route length, m.
func (r Route) TotalDistance() float64 {
	var total float64
	for _, seg := range r {
		total += seg.Distance
	}
	return total
}

// Slopes returns the per-segment grades as one slice, deg.
func (r Route) Slopes() []float64 {
	out := make([]float64, len(r))
	for i, seg := range r {
		out[i] = seg.Slope
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
