package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-fba/pkg/metabolic"
	"github.com/askiada/go-fba/pkg/metabolic/analysis"
	"github.com/askiada/go-fba/pkg/pipeline/config"
	"github.com/askiada/go-fba/pkg/pipeline/model"
)

// Pipeline runs a flux balance analysis configured once by a PipelineConfig.
type Pipeline struct {
	mu                 sync.Mutex
	cfg                config.PipelineConfig
	opts               []model.PipelineOption
	logger             logrus.FieldLogger
	essentialThreshold float64
}

// New creates a new pipeline. The New method of every hook is called once here.
func New(cfg config.PipelineConfig, opts ...Option) (*Pipeline, error) {
	pipe := &Pipeline{
		cfg:                cfg,
		logger:             logrus.StandardLogger(),
		essentialThreshold: analysis.DefaultEssentialThreshold,
	}
	for _, opt := range opts {
		opt(pipe)
	}

	for _, opt := range pipe.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// Config returns the configuration of the pipeline.
func (p *Pipeline) Config() config.PipelineConfig {
	return p.cfg
}

// Run applies the configuration to m and media, stage by stage, and returns what the run produced. m is
// mutated in place. The context is checked between stages and bounds the variability workers.
//
// A run that fails returns no result, errors raised by a stage are wrapped in a *StageError. Run is not
// reentrant: a second call while one is in progress fails with ErrRunInProgress.
func (p *Pipeline) Run(ctx context.Context, m *metabolic.Model, media *metabolic.Media) (*Result, error) {
	if m == nil {
		return nil, ErrModelMustBeSet
	}
	if media == nil {
		return nil, ErrMediaMustBeSet
	}
	if !p.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.mu.Unlock()

	r := &run{
		cfg:                p.cfg,
		model:              m,
		media:              media,
		essentialThreshold: p.essentialThreshold,
		result:             &Result{},
		logger: p.logger.WithFields(logrus.Fields{
			"model":     m.ID,
			"media":     media.ID,
			"output_id": p.cfg.OutputID,
		}),
	}

	parent := model.StartStage
	for i, st := range r.stages() {
		err := ctx.Err()
		if err != nil {
			return nil, errors.Wrap(err, "run interrupted")
		}

		info := &model.StageInfo{Index: i + 1, Name: st.name, Skipped: st.enabled != nil && !st.enabled(p.cfg)}
		err = p.runStage(ctx, r, parent, info, st.fn)
		if err != nil {
			return nil, err
		}
		parent = info
	}

	err := p.finishRun()
	if err != nil {
		return nil, err
	}

	return r.result, nil
}

func (p *Pipeline) runStage(ctx context.Context, r *run, parent, info *model.StageInfo, fn func(context.Context) error) error {
	for _, opt := range p.opts {
		err := opt.PrepareStage(parent, info)
		if err != nil {
			return errors.Wrapf(err, "unable to prepare stage %s", info.Name)
		}
	}

	start := time.Now()
	var stageErr error
	if !info.Skipped {
		stageErr = fn(ctx)
	}
	elapsed := time.Since(start)
	r.result.Timings = append(r.result.Timings, StageTiming{Name: info.Name, Duration: elapsed, Skipped: info.Skipped})

	for _, opt := range p.opts {
		err := opt.OnStageDone(info, elapsed, stageErr)
		if err != nil {
			return errors.Wrapf(err, "unable to report stage %s", info.Name)
		}
	}

	entry := r.logger.WithFields(logrus.Fields{"stage": info.Name, "index": info.Index, "elapsed": elapsed})
	switch {
	case stageErr != nil:
		entry.WithError(stageErr).Error("stage failed")

		return &StageError{Stage: info.Name, Index: info.Index, Err: stageErr}
	case info.Skipped:
		entry.Debug("stage skipped")
	default:
		entry.Debug("stage done")
	}

	return nil
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}
