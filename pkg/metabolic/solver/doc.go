// Package solver provides the linear programming layer used by the metabolic model.
//
// A Problem is expressed with bounded variables and ranged linear constraints. Backends solve it with a
// bounded variable revised simplex: each constraint is one row whatever its range, variable bounds never
// become rows, and the basis inverse is a sparse product of eta factors rebuilt every few dozen pivots.
// Infeasibility and unboundedness are reported through the Status of a Result, never as errors: an error
// from Solve means the problem itself was malformed.
package solver
