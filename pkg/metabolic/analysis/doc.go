// Package analysis implements the flux analyses run on a metabolic.Model: parsimonious FBA, loopless
// solutions, flux variability and the single gene essentiality sweep.
package analysis
