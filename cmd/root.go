package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	strategy "github.com/Aravind-Ramana/Agnirath/strategy"
)

var (
	// CLI flags for route, vehicle and solver inputs
	routePath     string        // Route CSV path
	configPath    string        // Vehicle configuration YAML path
	solarModel    string        // Irradiance strategy name
	outPath       string        // Output CSV path
	logLevel      string        // Log verbosity level
	guessVelocity float64       // Initial interior node velocity
	maxOuter      int           // Penalty continuation step cap
	budget        time.Duration // Wall-clock cap for the solve
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "agnirath-strategy",
	Short: "Race velocity optimizer for the Agnirath solar car",
}

// solveCmd optimizes one route using parameters from CLI flags
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Optimize the velocity profile for a route",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := strategy.DefaultConfig()
		if configPath != "" {
			if cfg, err = strategy.LoadConfig(configPath); err != nil {
				logrus.Fatalf("Loading config: %v", err)
			}
		}
		route, err := strategy.LoadRoute(routePath)
		if err != nil {
			logrus.Fatalf("Loading route: %v", err)
		}
		solar, err := strategy.NewSolarModel(solarModel, &cfg)
		if err != nil {
			logrus.Fatalf("Selecting solar model: %v", err)
		}

		opts := strategy.DefaultSolveOptions()
		opts.InitialGuess = guessVelocity
		if maxOuter > 0 {
			opts.MaxOuterIterations = maxOuter
		}
		opts.Budget = budget

		logrus.Infof("Starting optimization: %d segments over %.1f km, solar model %q",
			len(route), route.TotalDistance()/1000, solarModel)
		startTime := time.Now()

		optimizer, err := strategy.NewOptimizer(&cfg, route, solar, opts)
		if err != nil {
			logrus.Fatalf("Preparing optimizer: %v", err)
		}
		result, solveErr := optimizer.Solve()
		if solveErr != nil && result == nil {
			logrus.Fatalf("Optimization failed: %v", solveErr)
		}
		if solveErr != nil {
			logrus.Errorf("Optimization incomplete: %v; writing best-found profile", solveErr)
		}

		table, err := strategy.ExtractProfile(&cfg, route, solar, result.Profile)
		if err != nil {
			logrus.Fatalf("Extracting profile: %v", err)
		}
		if err := table.SaveCSV(outPath); err != nil {
			logrus.Fatalf("Writing profile: %v", err)
		}
		table.Print()

		logrus.Infof("Race time %.1f s, %d objective evaluations in %s; profile written to %s",
			result.TotalTime, result.FuncEvals, time.Since(startTime).Round(time.Millisecond), outPath)
		if solveErr != nil {
			os.Exit(1)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	solveCmd.Flags().StringVar(&routePath, "route", "", "Route CSV path (distance,slope,latitude,longitude)")
	solveCmd.Flags().StringVar(&configPath, "config", "", "Vehicle configuration YAML (omit for built-in Agnirath constants)")
	solveCmd.Flags().StringVar(&solarModel, "solar-model", "", "Irradiance model: gaussian or geometric")
	solveCmd.Flags().StringVar(&outPath, "out", "run_dat.csv", "Output CSV path for the optimized profile")
	solveCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Solver tuning
	solveCmd.Flags().Float64Var(&guessVelocity, "guess-velocity", 0, "Initial interior node velocity in m/s (0 = config value)")
	solveCmd.Flags().IntVar(&maxOuter, "max-outer-iterations", 0, "Penalty continuation step cap (0 = default)")
	solveCmd.Flags().DurationVar(&budget, "budget", 0, "Wall-clock budget for the solve, e.g. 30s (0 = unlimited)")

	cobra.CheckErr(solveCmd.MarkFlagRequired("route"))
	cobra.CheckErr(solveCmd.MarkFlagRequired("solar-model"))

	// Attach `solve` as a subcommand to `root`
	rootCmd.AddCommand(solveCmd)
}
