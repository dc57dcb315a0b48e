package strategy

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// profileHeader is the column order consumed by the team's downstream
// tooling; names (spelling included) are kept compatible with it.
var profileHeader = []string{
	"CummulativeDistance", "Velocity", "Acceleration", "Battery",
	"EnergyConsumption", "Solar", "Time",
}

// ProfileRow is one reporting row per route node. The first row is the start
// line: it has no preceding segment, so Acceleration, EnergyConsumption and
// SolarGain are NaN there and serialize as empty CSV cells.
type ProfileRow struct {
	CumulativeDistance float64 // m from the start line
	Velocity           float64 // m/s at this node
	Acceleration       float64 // m/s^2 over the preceding segment
	BatteryPercent     float64 // % of pack capacity at this node
	EnergyConsumption  float64 // Wh drawn over the preceding segment
	SolarGain          float64 // Wh harvested over the preceding segment
	CumulativeTime     float64 // s from the race start
}

// ProfileTable is the full per-node trajectory report for one solved profile.
type ProfileTable struct {
	Rows []ProfileRow
}

// ExtractProfile reconstructs the reporting trajectory from a final velocity
// profile. Pure post-processing over the same physics the optimizer used; no
// solver state is involved.
func ExtractProfile(cfg *Config, route Route, solar SolarModel, profile VelocityProfile) (*ProfileTable, error) {
	if len(profile) != len(route)+1 {
		return nil, &ValidationError{Field: "velocity profile", Row: -1,
			Reason: fmt.Sprintf("needs %d nodes for %d segments, got %d", len(route)+1, len(route), len(profile))}
	}
	power := NewPowerModel(cfg)
	kin := Kinematics(profile, route)

	net, _, err := power.Evaluate(kin.AvgSpeed, kin.Acceleration, route.Slopes())
	if err != nil {
		return nil, err
	}

	n := len(route)
	energy := make([]float64, n) // Wh drawn per segment
	gain := make([]float64, n)   // Wh harvested per segment
	for i, seg := range route {
		solarPower := solar.IncidentPower(kin.Elapsed[i], seg.Latitude, seg.Longitude)
		energy[i] = net[i] * kin.Dt[i] / 3600
		gain[i] = solarPower * kin.Dt[i] / 3600
	}
	cumEnergy := make([]float64, n)
	floats.CumSum(cumEnergy, energy)
	cumGain := make([]float64, n)
	floats.CumSum(cumGain, gain)

	initial := cfg.InitialBatteryCapacity()
	rows := make([]ProfileRow, n+1)
	rows[0] = ProfileRow{
		Velocity:          profile[0],
		Acceleration:      math.NaN(),
		BatteryPercent:    initial * 100 / cfg.BatteryCapacity,
		EnergyConsumption: math.NaN(),
		SolarGain:         math.NaN(),
	}
	distance := 0.0
	for i := 0; i < n; i++ {
		distance += route[i].Distance
		batteryWh := initial - (cumEnergy[i] - cumGain[i])
		rows[i+1] = ProfileRow{
			CumulativeDistance: distance,
			Velocity:           profile[i+1],
			Acceleration:       kin.Acceleration[i],
			BatteryPercent:     batteryWh * 100 / cfg.BatteryCapacity,
			EnergyConsumption:  energy[i],
			SolarGain:          gain[i],
			CumulativeTime:     kin.Elapsed[i],
		}
	}
	return &ProfileTable{Rows: rows}, nil
}

// TotalTime is the cumulative time at the finish line, s.
func (t *ProfileTable) TotalTime() float64 {
	if len(t.Rows) == 0 {
		return 0
	}
	return t.Rows[len(t.Rows)-1].CumulativeTime
}

// MinBatteryPercent is the lowest state of charge along the trajectory.
func (t *ProfileTable) MinBatteryPercent() float64 {
	min := math.Inf(1)
	for _, r := range t.Rows {
		if r.BatteryPercent < min {
			min = r.BatteryPercent
		}
	}
	return min
}

// WriteCSV emits the table in the run_dat.csv layout. NaN markers become
// empty cells.
func (t *ProfileTable) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(profileHeader); err != nil {
		return fmt.Errorf("writing profile header: %w", err)
	}
	for i, r := range t.Rows {
		record := []string{
			formatCell(r.CumulativeDistance),
			formatCell(r.Velocity),
			formatCell(r.Acceleration),
			formatCell(r.BatteryPercent),
			formatCell(r.EnergyConsumption),
			formatCell(r.SolarGain),
			formatCell(r.CumulativeTime),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing profile row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the table to a file, creating or truncating it.
func (t *ProfileTable) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := t.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Print displays the trajectory summary at the end of a solve.
func (t *ProfileTable) Print() {
	fmt.Println("=== Race Profile ===")
	fmt.Printf("Route Nodes          : %d\n", len(t.Rows))
	if len(t.Rows) == 0 {
		return
	}
	last := t.Rows[len(t.Rows)-1]
	fmt.Printf("Total Distance       : %.1f m\n", last.CumulativeDistance)
	fmt.Printf("Total Time           : %.1f s\n", t.TotalTime())
	fmt.Printf("Final Battery        : %.1f %%\n", last.BatteryPercent)
	fmt.Printf("Minimum Battery      : %.1f %%\n", t.MinBatteryPercent())
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
