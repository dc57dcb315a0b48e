// Package strategy computes the energy-feasible, minimum-time velocity profile
// for the Agnirath solar car over a fixed race route.
//
// # Reading Guide
//
// Start with these files to understand the pipeline:
//   - route.go: route model (segments of distance/slope/position) and CSV ingestion
//   - kinematics.go: node velocities to per-segment time/acceleration
//   - power.go: motor bus draw with the winding-temperature fixed point
//   - solar.go: the two incident-power strategies (empirical gaussian, geometric)
//   - constraints.go: battery and acceleration feasibility margins
//   - optimizer.go: penalty continuation over Nelder-Mead; produces a Result
//   - profile.go: the reporting table extracted from the final profile
//
// # Architecture
//
// A velocity profile assigns one speed to every route node (segment boundary);
// the car starts and finishes at rest. Each candidate profile is evaluated by
// pure functions over immutable Config and Route data: kinematics first, then
// motor power per segment, then the battery trajectory as a prefix sum of net
// energy. The Optimizer minimizes total race time subject to the battery
// staying above its deep-discharge floor and the commanded accelerations
// staying within what the motor can deliver. Failures carry typed errors
// (ThermalConvergenceError, InfeasibleError, NonConvergedError) so callers can
// distinguish model breakdowns from genuinely impossible routes.
package strategy
