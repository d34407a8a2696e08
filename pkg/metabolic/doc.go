// Package metabolic provides a constraint-based metabolic model.
//
// A Model is a bipartite network of reactions and metabolites. Each reaction carries flux bounds and an optional
// gene-reaction rule; genes can be deleted, which forces the reactions they are required for to zero. Exchange
// reactions exchange a single compound with the environment and are identified by the EX_ prefix.
//
// The model is translated into a linear Program where every reaction is split into a forward and a reverse
// variable, both non negative, so that the net flux is forward minus reverse. Custom linear constraints and the
// objective are expressed over those variables.
//
// A Model is not safe for concurrent use. Mutations are permanent unless performed inside WithScope, which
// restores bounds, gene states, constraints and objective on every exit path.
package metabolic
