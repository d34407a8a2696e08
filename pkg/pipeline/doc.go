// Package pipeline runs a flux balance analysis on a metabolic model.
//
// A Pipeline is built once from a resolved config.PipelineConfig. Run applies the configuration to a model
// in a fixed order of stages: solver selection, reversibility widening, custom bounds, gene and reaction
// knockouts, media uptake, objective assembly, then the primary optimization, the optional variability
// analysis and the optional essentiality sweep. Later stages read the bounds set by earlier ones, so the
// order never changes.
//
// The model is mutated in place and should be discarded after the run. An infeasible optimization is not an
// error: the returned Result carries the solver status and callers must check it before trusting fluxes.
//
// Every stage is reported to the model.PipelineOption hooks given to New, measure.PipelineMeasure and
// drawer.PipelineDrawer use them to time and draw a run.
package pipeline
