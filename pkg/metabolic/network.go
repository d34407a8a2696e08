package metabolic

import (
	"strconv"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-fba/internal/store"
)

// NodeKind tells reactions and metabolites apart in the network graph.
type NodeKind int

const (
	MetaboliteNode NodeKind = iota
	ReactionNode
)

// Node is a vertex of the network graph.
type Node struct {
	ID   string
	Kind NodeKind
}

// Key is the vertex hash. Reaction and metabolite ids live in separate namespaces.
func (n Node) Key() string {
	if n.Kind == ReactionNode {
		return ReactionKey(n.ID)
	}

	return MetaboliteKey(n.ID)
}

func ReactionKey(id string) string {
	return "rxn:" + id
}

func MetaboliteKey(id string) string {
	return "met:" + id
}

// Network is the bipartite reaction/metabolite graph of a model. Consumed metabolites point to their
// reaction, reactions point to their products.
type Network struct {
	graph graph.Graph[string, Node]
	store store.CustomStore[string, Node]
}

// Network builds the graph of the model in model order.
func (m *Model) Network() (*Network, error) {
	s := store.NewOrderedStore[string, Node]()
	n := &Network{
		store: s,
		graph: graph.NewWithStore(Node.Key, s, graph.Directed()),
	}

	for _, met := range m.metabolites {
		label := met.Name
		if label == "" {
			label = met.ID
		}
		err := n.graph.AddVertex(Node{ID: met.ID, Kind: MetaboliteNode},
			graph.VertexAttribute("label", label),
			graph.VertexAttribute("shape", "ellipse"),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add metabolite %s", met.ID)
		}
	}

	for _, r := range m.reactions {
		err := n.graph.AddVertex(Node{ID: r.ID, Kind: ReactionNode},
			graph.VertexAttribute("label", r.ID),
			graph.VertexAttribute("shape", "box"),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add reaction %s", r.ID)
		}
		for _, met := range r.sortedMetabolites() {
			coef := r.metabolites[met]
			source, target := MetaboliteKey(met), ReactionKey(r.ID)
			if coef > 0 {
				source, target = target, source
			}
			label := strconv.FormatFloat(abs(coef), 'g', -1, 64)
			err = n.graph.AddEdge(source, target, graph.EdgeAttribute("label", label))
			if err != nil {
				return nil, errors.Wrapf(err, "unable to link %s and %s", r.ID, met)
			}
		}
	}

	return n, nil
}

// Graph exposes the underlying graph.
func (n *Network) Graph() graph.Graph[string, Node] {
	return n.graph
}

// Producers lists the reactions that can produce met in their forward direction.
func (n *Network) Producers(met string) []string {
	_, in := n.store.Neighbours(MetaboliteKey(met))

	return n.ids(in)
}

// Consumers lists the reactions that consume met in their forward direction.
func (n *Network) Consumers(met string) []string {
	out, _ := n.store.Neighbours(MetaboliteKey(met))

	return n.ids(out)
}

func (n *Network) ids(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		node, _, err := n.store.Vertex(k)
		if err == nil {
			out = append(out, node.ID)
		}
	}

	return out
}

// SetAttribute sets a DOT attribute on the vertex with the given key.
func (n *Network) SetAttribute(key, name, value string) error {
	return n.store.UpdateVertex(key, func(p *graph.VertexProperties) {
		if p.Attributes == nil {
			p.Attributes = map[string]string{}
		}
		p.Attributes[name] = value
	})
}

// SetEdgeAttribute sets a DOT attribute on an existing edge.
func (n *Network) SetEdgeAttribute(source, target, name, value string) error {
	err := n.graph.UpdateEdge(source, target, graph.EdgeAttribute(name, value))
	if err != nil {
		return errors.Wrapf(err, "unable to update edge %s -> %s", source, target)
	}

	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
