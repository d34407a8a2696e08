package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/metabolic/analysis"
	"github.com/askiada/go-fba/pkg/metabolic/solver"
	"github.com/askiada/go-fba/pkg/pipeline/config"
	"github.com/askiada/go-fba/pkg/pipeline/model"
)

// run holds the state of one Run call.
type run struct {
	cfg                config.PipelineConfig
	model              *metabolic.Model
	media              *metabolic.Media
	essentialThreshold float64
	logger             logrus.FieldLogger
	result             *Result
}

type stage struct {
	name string
	// enabled is nil for stages that always run.
	enabled func(cfg config.PipelineConfig) bool
	fn      func(ctx context.Context) error
}

func (r *run) stages() []stage {
	return []stage{
		{name: model.StageSolver, fn: r.selectSolver},
		{name: model.StageReversibility, fn: r.widenBounds, enabled: func(cfg config.PipelineConfig) bool {
			return cfg.AllReversible
		}},
		{name: model.StageCustomBounds, fn: r.applyCustomBounds},
		{name: model.StageGeneKnockout, fn: r.knockoutGenes},
		{name: model.StageReactionKO, fn: r.knockoutReactions},
		{name: model.StageUptake, fn: r.configureUptake},
		{name: model.StageObjective, fn: r.assembleObjective},
		{name: model.StagePrimary, fn: r.optimize},
		{name: model.StageVariability, fn: r.analyseVariability, enabled: config.PipelineConfig.VariabilityEnabled},
		{name: model.StageEssentiality, fn: r.sweepEssentialGenes, enabled: func(cfg config.PipelineConfig) bool {
			return cfg.SingleGeneKnockoutSweep
		}},
		{name: model.StageResultAssembly, fn: r.assemble},
	}
}

func (r *run) selectSolver(context.Context) error {
	backend, err := solver.New(string(r.cfg.Solver))
	if err != nil {
		return errors.Wrap(err, "unable to select solver")
	}
	if r.cfg.Solver == config.SolverDefault {
		if setter, ok := backend.(solver.ThreadSetter); ok {
			setter.SetThreads(-1)
		}
	}
	r.model.SetSolver(backend)
	r.result.Applied.Solver = backend.Name()
	r.logger.WithField("workers", backend.Configuration().Workers()).Debugf("solver %s selected", backend.Name())

	return nil
}

func (r *run) widenBounds(context.Context) error {
	r.result.Applied.AllReversible = true

	return widen(r.model)
}

// widen makes every reaction reversible within [-MaxBound, MaxBound], whatever its current bounds.
func widen(m *metabolic.Model) error {
	for _, rxn := range m.Reactions() {
		err := rxn.SetBounds(-metabolic.MaxBound, metabolic.MaxBound)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *run) applyCustomBounds(context.Context) error {
	var unknown []string
	for _, b := range r.cfg.CustomBounds {
		if !r.model.HasReaction(b.ReactionID) {
			unknown = append(unknown, b.ReactionID)

			continue
		}
		err := r.model.SetReactionBounds(b.ReactionID, b.Lower, b.Upper)
		if err != nil {
			return err
		}
		r.result.Applied.CustomBounds++
	}
	r.warnUnknown("reaction", unknown, "custom bounds skipped")

	return nil
}

func (r *run) knockoutGenes(context.Context) error {
	genes := make([]string, 0, len(r.cfg.GeneKnockoutIDs))
	var unknown []string
	for _, id := range r.cfg.GeneKnockoutIDs {
		if r.model.HasGene(id) {
			genes = append(genes, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	r.warnUnknown("gene", unknown, "knockouts skipped")
	r.result.Applied.GeneKnockouts = genes
	if len(genes) == 0 {
		return nil
	}

	knocked, err := r.model.DeleteGenes(genes...)
	if err != nil {
		return err
	}
	r.result.Applied.KnockedOut = knocked
	r.logger.WithField("reactions", knocked).Infof("%d genes deleted", len(genes))

	return nil
}

func (r *run) knockoutReactions(context.Context) error {
	applied := make([]string, 0, len(r.cfg.ReactionKnockoutIDs))
	var unknown []string
	for _, id := range r.cfg.ReactionKnockoutIDs {
		if !r.model.HasReaction(id) {
			unknown = append(unknown, id)

			continue
		}
		err := r.model.SetReactionBounds(id, 0, 0)
		if err != nil {
			return err
		}
		applied = append(applied, id)
	}
	r.warnUnknown("reaction", unknown, "knockouts skipped")
	r.result.Applied.ReactionKOs = applied

	return nil
}

func (r *run) configureUptake(context.Context) error {
	summary, err := configureUptake(r.model, r.media, r.cfg)
	if err != nil {
		return err
	}
	r.result.Applied.MediaID = r.media.ID
	r.result.Applied.CompleteMedia = r.media.IsComplete()
	r.result.Applied.DefaultMaxUptake = summary.DefaultMaxUptake
	r.result.Applied.UptakeReactions = summary.Reactions
	r.result.Applied.UptakeIDs = summary.ConstraintIDs
	r.logger.WithFields(logrus.Fields{
		"default_max_uptake": summary.DefaultMaxUptake,
		"constraints":        summary.ConstraintIDs,
	}).Debugf("uptake configured on %d exchanges", len(summary.Reactions))

	return nil
}

func (r *run) assembleObjective(context.Context) error {
	if r.cfg.TargetReactionID != "" {
		err := r.model.SetObjective(r.cfg.TargetReactionID)
		if err != nil {
			return err
		}
	}
	direction := solver.Maximize
	if r.cfg.MinimizeObjective {
		direction = solver.Minimize
	}
	r.model.SetObjectiveDirection(direction)

	objective := r.model.Objective()
	r.result.Applied.ObjectiveIDs = objective.ReactionIDs()
	r.result.Applied.ObjectiveSense = objective.Direction

	return nil
}

func (r *run) optimize(context.Context) error {
	var (
		sol *metabolic.Solution
		err error
	)
	switch r.cfg.FBAMode {
	case config.FBAStandard:
		sol, err = r.model.Optimize()
	case config.FBAParsimonious:
		sol, err = analysis.PFBA(r.model, r.cfg.FractionOfOptimumPrimary)
	case config.FBALoopless:
		sol, err = analysis.LooplessSolution(r.model)
	default:
		return errors.Wrapf(ErrUnknownFBAMode, "%q", r.cfg.FBAMode)
	}
	if err != nil {
		return errors.Wrapf(err, "unable to run %s", r.cfg.FBAMode)
	}
	r.result.Solution = sol
	r.result.Applied.FBAMode = r.cfg.FBAMode

	entry := r.logger.WithFields(logrus.Fields{"status": sol.Status, "objective": sol.ObjectiveValue})
	if !sol.Optimal() {
		entry.WithField("reason", sol.Reason).Warn("primary optimization is not optimal")
	} else {
		entry.Info("primary optimization done")
	}

	return nil
}

func (r *run) analyseVariability(ctx context.Context) error {
	var loopless bool
	switch r.cfg.FVAMode {
	case config.FVAStandard:
	case config.FVALoopless:
		loopless = true
	default:
		return errors.Wrapf(ErrUnknownFVAMode, "%q", r.cfg.FVAMode)
	}

	fva, err := analysis.FluxVariability(ctx, r.model, analysis.Options{
		Fraction: r.cfg.FractionOfOptimumFVA,
		Loopless: loopless,
	})
	if err != nil {
		return errors.Wrapf(err, "unable to run %s", r.cfg.FVAMode)
	}
	if !fva.Optimal() {
		r.logger.WithField("status", fva.Status).Warn("variability baseline is not optimal")
	}
	r.result.Variability = fva
	r.result.Applied.FVAMode = r.cfg.FVAMode

	return nil
}

func (r *run) sweepEssentialGenes(context.Context) error {
	genes, err := analysis.FindEssentialGenes(r.model, r.essentialThreshold)
	if errors.Is(err, analysis.ErrInfeasibleBaseline) {
		r.logger.Warn("essentiality sweep skipped: the model has no optimum before any deletion")

		return nil
	}
	if err != nil {
		return errors.Wrap(err, "unable to sweep genes")
	}
	r.result.EssentialGenes = genes
	r.logger.Infof("%d essential genes out of %d", len(genes), len(r.model.Genes()))

	return nil
}

func (r *run) assemble(context.Context) error {
	if r.result.EssentialGenes == nil {
		r.result.EssentialGenes = []string{}
	}
	if !r.cfg.VariabilityEnabled() {
		r.result.Variability = nil
		r.result.Applied.FVAMode = config.FVADisabled
	}

	return nil
}

func (r *run) warnUnknown(kind string, ids []string, msg string) {
	if len(ids) == 0 {
		return
	}
	r.logger.WithFields(logrus.Fields{"kind": kind, "ids": ids}).Warnf("%d unknown ids, %s", len(ids), msg)
}
