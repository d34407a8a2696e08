package metabolic

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-fba/pkg/metabolic/solver"
)

// Format is a document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf picks the format from a file extension, JSON unless it is .yaml or .yml.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

type modelDocument struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name,omitempty" yaml:"name,omitempty"`
	Metabolites []metaboliteDocument `json:"metabolites" yaml:"metabolites"`
	Reactions   []reactionDocument   `json:"reactions" yaml:"reactions"`
	Genes       []geneDocument       `json:"genes,omitempty" yaml:"genes,omitempty"`
	// ObjectiveSense is "max" or "min".
	ObjectiveSense string `json:"objective_sense,omitempty" yaml:"objective_sense,omitempty"`
}

type metaboliteDocument struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Compartment string `json:"compartment,omitempty" yaml:"compartment,omitempty"`
	Formula     string `json:"formula,omitempty" yaml:"formula,omitempty"`
	Charge      int    `json:"charge,omitempty" yaml:"charge,omitempty"`
}

type reactionDocument struct {
	ID                   string             `json:"id" yaml:"id"`
	Name                 string             `json:"name,omitempty" yaml:"name,omitempty"`
	Subsystem            string             `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
	Metabolites          map[string]float64 `json:"metabolites" yaml:"metabolites"`
	LowerBound           float64            `json:"lower_bound" yaml:"lower_bound"`
	UpperBound           float64            `json:"upper_bound" yaml:"upper_bound"`
	GeneReactionRule     string             `json:"gene_reaction_rule,omitempty" yaml:"gene_reaction_rule,omitempty"`
	ObjectiveCoefficient float64            `json:"objective_coefficient,omitempty" yaml:"objective_coefficient,omitempty"`
}

type geneDocument struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

func decode(r io.Reader, format Format, v any) error {
	if format == YAML {
		return yaml.NewDecoder(r).Decode(v)
	}

	return json.NewDecoder(r).Decode(v)
}

func encode(w io.Writer, format Format, v any) error {
	if format == YAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// ReadModel decodes a model document.
func ReadModel(r io.Reader, format Format) (*Model, error) {
	var doc modelDocument
	err := decode(r, format, &doc)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode model")
	}

	m := NewModel(doc.ID)
	m.Name = doc.Name
	for _, met := range doc.Metabolites {
		err = m.AddMetabolites(&Metabolite{
			ID:          met.ID,
			Name:        met.Name,
			Compartment: met.Compartment,
			Formula:     met.Formula,
			Charge:      met.Charge,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, g := range doc.Genes {
		err = m.AddGenes(&Gene{ID: g.ID, Name: g.Name})
		if err != nil {
			return nil, err
		}
	}

	var objective []VariableTerm
	for _, rd := range doc.Reactions {
		r, err := NewReaction(rd.ID, rd.Name, rd.Metabolites, rd.LowerBound, rd.UpperBound, rd.GeneReactionRule)
		if err != nil {
			return nil, err
		}
		r.Subsystem = rd.Subsystem
		err = m.AddReactions(r)
		if err != nil {
			return nil, err
		}
		if rd.ObjectiveCoefficient != 0 {
			objective = append(objective, VariableTerm{ReactionID: rd.ID, Part: Net, Coefficient: rd.ObjectiveCoefficient})
		}
	}

	sense := solver.Maximize
	if strings.EqualFold(doc.ObjectiveSense, "min") {
		sense = solver.Minimize
	}
	err = m.SetObjectiveTerms(objective, sense)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// WriteModel encodes the model, its current bounds and its net flux objective.
func WriteModel(w io.Writer, format Format, m *Model) error {
	doc := modelDocument{ID: m.ID, Name: m.Name, ObjectiveSense: m.objective.Direction.String()}
	coefs := map[string]float64{}
	for _, t := range m.objective.Terms {
		if t.Part == Net {
			coefs[t.ReactionID] += t.Coefficient
		}
	}
	for _, met := range m.metabolites {
		doc.Metabolites = append(doc.Metabolites, metaboliteDocument{
			ID:          met.ID,
			Name:        met.Name,
			Compartment: met.Compartment,
			Formula:     met.Formula,
			Charge:      met.Charge,
		})
	}
	for _, r := range m.reactions {
		doc.Reactions = append(doc.Reactions, reactionDocument{
			ID:                   r.ID,
			Name:                 r.Name,
			Subsystem:            r.Subsystem,
			Metabolites:          r.Metabolites(),
			LowerBound:           r.lowerBound,
			UpperBound:           r.upperBound,
			GeneReactionRule:     r.GeneReactionRule,
			ObjectiveCoefficient: coefs[r.ID],
		})
	}
	for _, g := range m.genes {
		doc.Genes = append(doc.Genes, geneDocument{ID: g.ID, Name: g.Name})
	}

	return errors.Wrap(encode(w, format, doc), "unable to encode model")
}

// LoadModel reads a model file, JSON or YAML depending on its extension.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open model %s", path)
	}
	defer f.Close()

	return ReadModel(f, FormatOf(path))
}

// ReadMedia decodes a media document.
func ReadMedia(r io.Reader, format Format) (*Media, error) {
	var media Media
	err := decode(r, format, &media)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode media")
	}
	if media.Name == "" {
		media.Name = media.ID
	}

	return &media, nil
}

// LoadMedia reads a media file, JSON or YAML depending on its extension.
func LoadMedia(path string) (*Media, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open media %s", path)
	}
	defer f.Close()

	return ReadMedia(f, FormatOf(path))
}
