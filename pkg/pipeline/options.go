package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/askiada/go-fba/pkg/pipeline/model"
)

type Option func(p *Pipeline)

// WithLogger sets the logger every stage reports to. It defaults to the logrus standard logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHooks registers hooks called around every stage, in the given order.
func WithHooks(opts ...model.PipelineOption) Option {
	return func(p *Pipeline) {
		p.opts = append(p.opts, opts...)
	}
}

// WithEssentialThreshold overrides the objective value at or below which a gene deletion counts as lethal.
func WithEssentialThreshold(threshold float64) Option {
	return func(p *Pipeline) {
		p.essentialThreshold = threshold
	}
}
