package drawer

import (
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/askiada/go-fba/pkg/metabolic"
)

// DrawNetwork writes the reaction network as a DOT graph. Reactions are coloured by the magnitude of their
// flux, from blue to red, and so are the edges linking them to their metabolites. Reactions without flux, or
// missing from fluxes, are grey.
func DrawNetwork(wrt io.Writer, network *metabolic.Network, fluxes map[string]float64) error {
	var maxFlux float64
	for _, f := range fluxes {
		if !math.IsNaN(f) {
			maxFlux = math.Max(maxFlux, math.Abs(f))
		}
	}

	adjacencyMap, err := network.Graph().AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	active := map[string]string{}
	for key := range adjacencyMap {
		node, err := network.Graph().Vertex(key)
		if err != nil {
			return errors.Wrapf(err, "unable to get vertex %s", key)
		}
		if node.Kind != metabolic.ReactionNode {
			continue
		}

		flux, ok := fluxes[node.ID]
		if !ok || math.IsNaN(flux) || flux == 0 || maxFlux == 0 {
			err = network.SetAttribute(key, "color", "grey")
			if err != nil {
				return err
			}

			continue
		}

		colour, err := gradient(math.Abs(flux) / maxFlux)
		if err != nil {
			return err
		}
		active[key] = colour
		for name, value := range map[string]string{
			"color":  colour,
			"xlabel": strconv.FormatFloat(flux, 'g', 6, 64),
		} {
			err = network.SetAttribute(key, name, value)
			if err != nil {
				return err
			}
		}
	}

	for source, targets := range adjacencyMap {
		for target := range targets {
			colour, ok := active[source]
			if !ok {
				colour, ok = active[target]
			}
			if !ok {
				continue
			}
			err = network.SetEdgeAttribute(source, target, "color", colour)
			if err != nil {
				return err
			}
		}
	}

	return dot(network.Graph(), wrt, GraphAttribute("rankdir", "LR"))
}
