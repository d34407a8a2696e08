package metabolic

import "strings"

const (
	// CompleteMedia names the media in which every compound is available.
	CompleteMedia = "Complete"
	// MaxBound is the magnitude used for unconstrained fluxes.
	MaxBound = 1000.0
	// DefaultCompoundUptake is the uptake allowed for a media compound without an explicit value.
	DefaultCompoundUptake = 100.0
)

// Compound is a media component.
type Compound struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	MaxUptake float64 `json:"max_uptake,omitempty" yaml:"max_uptake,omitempty"`
}

// Media is a named set of compounds available for uptake.
type Media struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Compounds []Compound `json:"compounds" yaml:"compounds"`
}

// IsComplete reports whether the media makes every compound available.
func (m *Media) IsComplete() bool {
	return m != nil && m.Name == CompleteMedia
}

// WithSupplements returns a copy of the media with the extra compounds added at the default uptake.
// Compounds already present are left as they are.
func (m *Media) WithSupplements(ids []string) *Media {
	out := &Media{ID: m.ID, Name: m.Name, Compounds: append([]Compound(nil), m.Compounds...)}
	present := make(map[string]struct{}, len(m.Compounds))
	for _, c := range m.Compounds {
		present[c.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; ok || id == "" {
			continue
		}
		present[id] = struct{}{}
		out.Compounds = append(out.Compounds, Compound{ID: id, MaxUptake: DefaultCompoundUptake})
	}

	return out
}

// ApplyTo opens uptake through the exchange reactions of the media compounds and closes it for every other
// exchange. A compound matches a metabolite by id, with or without the compartment suffix. Complete media
// leaves the model untouched. It returns the ids of the opened exchanges.
func (m *Media) ApplyTo(model *Model) ([]string, error) {
	if m.IsComplete() {
		return nil, nil
	}

	uptake := make(map[string]float64, len(m.Compounds))
	for _, c := range m.Compounds {
		limit := c.MaxUptake
		if limit == 0 {
			limit = DefaultCompoundUptake
		}
		uptake[c.ID] = limit
	}

	var opened []string
	for _, r := range model.Exchanges() {
		met, _ := r.BoundaryMetabolite()
		limit, ok := uptake[met]
		if !ok {
			limit, ok = uptake[stripCompartment(met)]
		}
		lower := 0.0
		if ok {
			lower = -limit
			opened = append(opened, r.ID)
		}
		upper := r.upperBound
		if upper < lower {
			upper = lower
		}
		err := r.SetBounds(lower, upper)
		if err != nil {
			return nil, err
		}
	}

	return opened, nil
}

func stripCompartment(id string) string {
	pos := strings.LastIndex(id, "_")
	if pos <= 0 {
		return id
	}

	return id[:pos]
}
