// Package model holds the types shared by the FBA engine and its options: the description of each stage
// and the PipelineOption hook interface.
package model
