package drawer

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-fba/internal/store"
	"github.com/askiada/go-fba/pkg/pipeline/measure"
)

// DOTDrawer writes the stages of a run as a DOT graph.
type DOTDrawer struct {
	graph graph.Graph[string, string]
	store store.CustomStore[string, string]
	out   io.Writer
}

// NewDOTDrawer creates a drawer that writes to out when Draw is called.
func NewDOTDrawer(out io.Writer) *DOTDrawer {
	s := store.NewOrderedStore[string, string]()

	return &DOTDrawer{
		out:   out,
		store: s,
		graph: graph.NewWithStore(graph.StringHash, s, graph.Directed()),
	}
}

// AddStage adds a stage to the graph. Adding the same stage twice is a no-op.
func (d *DOTDrawer) AddStage(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddLink adds a link between two stages.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

func (d *DOTDrawer) SetLabel(name, label string) error {
	return d.setAttribute(name, "xlabel", label)
}

func (d *DOTDrawer) SetSkipped(name string) error {
	err := d.setAttribute(name, "style", "dashed")
	if err != nil {
		return err
	}

	return d.setAttribute(name, "xlabel", "skipped")
}

func (d *DOTDrawer) setAttribute(name, key, value string) error {
	err := d.store.UpdateVertex(name, graph.VertexAttribute(key, value))
	if err != nil {
		return errors.Wrapf(err, "unable to update vertex %s", name)
	}

	return nil
}

// Draw writes the graph to the output of the drawer.
func (d *DOTDrawer) Draw() error {
	err := dot(d.graph, d.out, GraphAttribute("rankdir", "TB"))
	if err != nil {
		return errors.Wrap(err, "unable to write dot graph")
	}

	return nil
}

// AddMeasure colours every measured stage from blue (fastest) to red (slowest). A failed stage gets a red
// border.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()

	var minValue, maxValue time.Duration
	first := true
	for _, mt := range metrics {
		if mt.Skipped() || mt.Runs() == 0 {
			continue
		}
		avg := mt.AVGDuration()
		if first || avg < minValue {
			minValue = avg
		}
		if first || avg > maxValue {
			maxValue = avg
		}
		first = false
	}

	for _, name := range msr.Names() {
		if _, err := d.graph.Vertex(name); err != nil {
			continue
		}
		mt := metrics[name]
		if mt.Skipped() {
			err := d.SetSkipped(name)
			if err != nil {
				return err
			}

			continue
		}
		if mt.Runs() == 0 {
			continue
		}

		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(mt.AVGDuration()-minValue) / float64(maxValue-minValue)
		}
		colour, err := gradient(fraction)
		if err != nil {
			return err
		}

		label := mt.AVGDuration().String()
		if mt.Runs() > 1 {
			label += fmt.Sprintf(", total: %s", measure.Round(mt.TotalDuration()))
		}
		attrs := map[string]string{"xlabel": label, "color": colour, "fontcolor": colour}
		if mt.Err() != nil {
			attrs["color"] = "red"
			attrs["penwidth"] = "3"
		}
		for key, value := range attrs {
			err := d.setAttribute(name, key, value)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

const maxRGB = 240

// gradient maps a fraction in [0,1] to a colour going from blue to red.
func gradient(fraction float64) (string, error) {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))

	red := maxRGB * fraction
	blue := maxRGB - maxRGB*fraction

	colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return colour.ToHEX().String(), nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           interface{}
	Target           interface{}
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

func dot[K comparable, T any](g graph.Graph[K, T], wrt io.Writer, options ...func(*description)) error {
	desc, err := generateDOT(g, options...)
	if err != nil {
		return fmt.Errorf("failed to generate DOT description: %w", err)
	}

	return renderDOT(wrt, desc)
}

// GraphAttribute is a functional option for the [DOT] method.
func GraphAttribute(key, value string) func(*description) {
	return func(d *description) {
		d.Attributes[key] = value
	}
}

// sortedKeys orders map keys by their printed form, the graph adjacency map has no order of its own.
func sortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})

	return keys
}

func generateDOT[K comparable, T any](gra graph.Graph[K, T], options ...func(*description)) (description, error) {
	desc := description{
		GraphType:    "graph",
		Attributes:   make(map[string]string),
		EdgeOperator: "--",
		Statements:   make([]statement, 0),
	}

	for _, option := range options {
		option(&desc)
	}

	if gra.Traits().IsDirected {
		desc.GraphType = "digraph"
		desc.EdgeOperator = "->"
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for _, vertex := range sortedKeys(adjacencyMap) {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(sourceProperties.Attributes))
		for k, v := range sourceProperties.Attributes {
			attributes[k] = v
		}

		htmlAttributes := make(map[string]string)
		if xlabel, ok := attributes["xlabel"]; ok {
			name := fmt.Sprint(vertex)
			if label, ok := attributes["label"]; ok {
				name = label
				delete(attributes, "label")
			}
			htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, name, xlabel)

			delete(attributes, "xlabel")
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		adjacencies := adjacencyMap[vertex]
		for _, adjacency := range sortedKeys(adjacencies) {
			edge := adjacencies[adjacency]
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
