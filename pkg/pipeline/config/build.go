package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/askiada/go-fba/pkg/metabolic"
)

type rawBound struct {
	ReactionIDs []string `mapstructure:"custom_reaction_id"`
	Lower       float64  `mapstructure:"custom_lb"`
	Upper       float64  `mapstructure:"custom_ub"`
}

type rawParams struct {
	Solver            string `mapstructure:"solver"`
	FBAType           string `mapstructure:"fba_type"`
	FVAType           string `mapstructure:"fva_type"`
	MinimizeObjective bool   `mapstructure:"minimize_objective"`
	FractionPrimary   any    `mapstructure:"fraction_of_optimum_pfba"`
	FractionFVA       any    `mapstructure:"fraction_of_optimum_fva"`
	TargetReaction    string `mapstructure:"target_reaction"`
	AllReversible     bool   `mapstructure:"all_reversible"`

	FeatureKOList   []string   `mapstructure:"feature_ko_list"`
	ReactionKOList  []string   `mapstructure:"reaction_ko_list"`
	CustomBoundList []rawBound `mapstructure:"custom_bound_list"`

	MaxCUptake       any     `mapstructure:"max_c_uptake"`
	MaxNUptake       any     `mapstructure:"max_n_uptake"`
	MaxPUptake       any     `mapstructure:"max_p_uptake"`
	MaxSUptake       any     `mapstructure:"max_s_uptake"`
	MaxOUptake       any     `mapstructure:"max_o_uptake"`
	DefaultMaxUptake float64 `mapstructure:"default_max_uptake"`

	SimulateKO          bool     `mapstructure:"simulate_ko"`
	MediaSupplementList []string `mapstructure:"media_supplement_list"`

	FBAOutputID       string `mapstructure:"fba_output_id"`
	Workspace         string `mapstructure:"workspace"`
	FBAModelWorkspace string `mapstructure:"fbamodel_workspace"`

	// Flags of older request formats, only read when the matching mode is missing.
	MinimizeFlux *bool `mapstructure:"minimize_flux"`
	PFBA         *bool `mapstructure:"pfba"`
	LooplessFBA  *bool `mapstructure:"loopless_fba"`
	FVA          *bool `mapstructure:"fva"`
	LooplessFVA  *bool `mapstructure:"loopless_fva"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("param"); name != "" {
			return name
		}

		return field.Name
	})

	return v
}

// blankToEmptySlice lets a blank string stand for an empty list of records.
func blankToEmptySlice(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	if strings.TrimSpace(reflect.ValueOf(data).String()) != "" {
		return data, nil
	}

	return reflect.MakeSlice(to, 0, 0).Interface(), nil
}

// Build resolves raw request parameters into a PipelineConfig. Every missing field takes its Default value.
// Unknown enum values and out of range numbers fail with a *ConfigError, a custom bound record that does not
// name exactly one reaction fails with a *metabolic.ModelInconsistencyError.
func Build(raw map[string]any) (PipelineConfig, error) {
	var params rawParams
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(blankToEmptySlice),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &params,
	})
	if err != nil {
		return PipelineConfig{}, errors.Wrap(err, "unable to create decoder")
	}
	err = dec.Decode(raw)
	if err != nil {
		return PipelineConfig{}, &ConfigError{Param: "params", Reason: err.Error()}
	}

	cfg := Default()
	err = resolveModes(&cfg, params)
	if err != nil {
		return PipelineConfig{}, err
	}

	cfg.MinimizeObjective = params.MinimizeObjective
	cfg.TargetReactionID = strings.TrimSpace(params.TargetReaction)
	cfg.AllReversible = params.AllReversible
	cfg.SingleGeneKnockoutSweep = params.SimulateKO
	cfg.DefaultMaxUptake = params.DefaultMaxUptake
	cfg.OutputID = params.FBAOutputID
	cfg.Workspace = params.Workspace
	if cfg.Workspace == "" {
		cfg.Workspace = params.FBAModelWorkspace
	}

	cfg.GeneKnockoutIDs = cleanList(params.FeatureKOList)
	cfg.ReactionKnockoutIDs = cleanList(params.ReactionKOList)
	cfg.MediaSupplementIDs = cleanList(params.MediaSupplementList)

	cfg.FractionOfOptimumPrimary, err = optionalFloat("fraction_of_optimum_pfba", params.FractionPrimary, cfg.FractionOfOptimumPrimary)
	if err != nil {
		return PipelineConfig{}, err
	}
	cfg.FractionOfOptimumFVA, err = optionalFloat("fraction_of_optimum_fva", params.FractionFVA, cfg.FractionOfOptimumFVA)
	if err != nil {
		return PipelineConfig{}, err
	}

	caps := map[Element]any{
		Carbon:     params.MaxCUptake,
		Nitrogen:   params.MaxNUptake,
		Phosphorus: params.MaxPUptake,
		Sulfur:     params.MaxSUptake,
		Oxygen:     params.MaxOUptake,
	}
	for _, e := range Elements {
		if isBlank(caps[e]) {
			continue
		}
		param := fmt.Sprintf("max_%s_uptake", strings.ToLower(string(e)))
		v, err := cast.ToFloat64E(caps[e])
		if err != nil {
			return PipelineConfig{}, configError(param, caps[e], "not a number")
		}
		cfg.MaxUptakeByElement[e] = v
	}

	for i, b := range params.CustomBoundList {
		ids := cleanList(b.ReactionIDs)
		if len(ids) != 1 {
			return PipelineConfig{}, &metabolic.ModelInconsistencyError{
				Kind: "custom bound",
				ID:   strings.Join(ids, ","),
				Err:  errors.Wrapf(metabolic.ErrMalformedBound, "record %d names %d reaction ids", i, len(ids)),
			}
		}
		cfg.CustomBounds = append(cfg.CustomBounds, CustomBound{ReactionID: ids[0], Lower: b.Lower, Upper: b.Upper})
	}

	err = validate.Struct(cfg)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			fe := fieldErrors[0]

			return PipelineConfig{}, configError(fe.Field(), fe.Value(), strings.TrimSpace("must satisfy "+fe.Tag()+" "+fe.Param()))
		}

		return PipelineConfig{}, errors.Wrap(err, "unable to validate config")
	}

	return cfg, nil
}

func resolveModes(cfg *PipelineConfig, params rawParams) error {
	s, ok := parseSolver(params.Solver)
	if !ok {
		return configError("solver", params.Solver, "unknown solver")
	}
	cfg.Solver = s

	switch {
	case strings.TrimSpace(params.FBAType) != "":
		mode, ok := parseFBAMode(params.FBAType)
		if !ok {
			return configError("fba_type", params.FBAType, "unknown FBA mode")
		}
		cfg.FBAMode = mode
	case isTrue(params.MinimizeFlux) || isTrue(params.PFBA):
		cfg.FBAMode = FBAParsimonious
	case isTrue(params.LooplessFBA):
		cfg.FBAMode = FBALoopless
	case params.MinimizeFlux != nil || params.PFBA != nil || params.LooplessFBA != nil:
		cfg.FBAMode = FBAStandard
	}

	switch {
	case strings.TrimSpace(params.FVAType) != "":
		mode, ok := parseFVAMode(params.FVAType)
		if !ok {
			return configError("fva_type", params.FVAType, "unknown FVA mode")
		}
		cfg.FVAMode = mode
	case isTrue(params.LooplessFVA):
		cfg.FVAMode = FVALoopless
	case isTrue(params.FVA):
		cfg.FVAMode = FVAStandard
	case params.FVA != nil:
		cfg.FVAMode = FVADisabled
	}

	return nil
}

// cleanList trims entries, drops empty ones and keeps the first occurrence of duplicates.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}

func optionalFloat(param string, v any, fallback float64) (float64, error) {
	if isBlank(v) {
		return fallback, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, configError(param, v, "not a number")
	}

	return f, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)

	return ok && strings.TrimSpace(s) == ""
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
