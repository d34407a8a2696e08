package store

import (
	"sync"

	"github.com/dominikbraun/graph"
)

// CustomStore is a graph.Store whose vertex properties can be changed after insertion.
type CustomStore[K comparable, T any] interface {
	graph.Store[K, T]
	UpdateVertex(k K, options ...func(*graph.VertexProperties)) error
	// Neighbours lists the vertices reached from k and the vertices reaching k, in insertion order.
	Neighbours(k K) (out, in []K)
}

type edgeKey[K comparable] struct {
	source, target K
}

// OrderedStore keeps vertices and edges in insertion order, so that listing them is deterministic.
type OrderedStore[K comparable, T any] struct {
	lock             sync.RWMutex
	order            []K
	vertices         map[K]T
	vertexProperties map[K]*graph.VertexProperties

	edgeOrder []edgeKey[K]
	edges     map[edgeKey[K]]graph.Edge[K]
	outEdges  map[K][]K
	inEdges   map[K][]K
}

func NewOrderedStore[K comparable, T any]() CustomStore[K, T] {
	return &OrderedStore[K, T]{
		vertices:         make(map[K]T),
		vertexProperties: make(map[K]*graph.VertexProperties),
		edges:            make(map[edgeKey[K]]graph.Edge[K]),
		outEdges:         make(map[K][]K),
		inEdges:          make(map[K][]K),
	}
}

func (s *OrderedStore[K, T]) AddVertex(k K, t T, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[k]; ok {
		return graph.ErrVertexAlreadyExists
	}

	s.order = append(s.order, k)
	s.vertices[k] = t
	s.vertexProperties[k] = &p

	return nil
}

func (s *OrderedStore[K, T]) ListVertices() ([]K, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return append([]K(nil), s.order...), nil
}

func (s *OrderedStore[K, T]) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.order), nil
}

func (s *OrderedStore[K, T]) Vertex(k K) (T, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.vertices[k]
	if !ok {
		return v, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return v, *s.vertexProperties[k], nil
}

func (s *OrderedStore[K, T]) UpdateVertex(k K, options ...func(*graph.VertexProperties)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, ok := s.vertexProperties[k]
	if !ok {
		return graph.ErrVertexNotFound
	}
	for _, opt := range options {
		opt(p)
	}

	return nil
}

func (s *OrderedStore[K, T]) RemoveVertex(k K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[k]; !ok {
		return graph.ErrVertexNotFound
	}
	if len(s.inEdges[k]) > 0 || len(s.outEdges[k]) > 0 {
		return graph.ErrVertexHasEdges
	}

	delete(s.vertices, k)
	delete(s.vertexProperties, k)
	delete(s.inEdges, k)
	delete(s.outEdges, k)
	s.order = without(s.order, k)

	return nil
}

func (s *OrderedStore[K, T]) AddEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	key := edgeKey[K]{sourceHash, targetHash}
	if _, ok := s.edges[key]; !ok {
		s.edgeOrder = append(s.edgeOrder, key)
		s.outEdges[sourceHash] = append(s.outEdges[sourceHash], targetHash)
		s.inEdges[targetHash] = append(s.inEdges[targetHash], sourceHash)
	}
	s.edges[key] = edge

	return nil
}

func (s *OrderedStore[K, T]) UpdateEdge(sourceHash, targetHash K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	key := edgeKey[K]{sourceHash, targetHash}
	if _, ok := s.edges[key]; !ok {
		return graph.ErrEdgeNotFound
	}
	s.edges[key] = edge

	return nil
}

func (s *OrderedStore[K, T]) RemoveEdge(sourceHash, targetHash K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	key := edgeKey[K]{sourceHash, targetHash}
	if _, ok := s.edges[key]; !ok {
		return nil
	}
	delete(s.edges, key)
	s.outEdges[sourceHash] = without(s.outEdges[sourceHash], targetHash)
	s.inEdges[targetHash] = without(s.inEdges[targetHash], sourceHash)
	for i, k := range s.edgeOrder {
		if k == key {
			s.edgeOrder = append(s.edgeOrder[:i], s.edgeOrder[i+1:]...)

			break
		}
	}

	return nil
}

func (s *OrderedStore[K, T]) Edge(sourceHash, targetHash K) (graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	edge, ok := s.edges[edgeKey[K]{sourceHash, targetHash}]
	if !ok {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *OrderedStore[K, T]) ListEdges() ([]graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]graph.Edge[K], 0, len(s.edgeOrder))
	for _, key := range s.edgeOrder {
		res = append(res, s.edges[key])
	}

	return res, nil
}

func (s *OrderedStore[K, T]) Neighbours(k K) ([]K, []K) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return append([]K(nil), s.outEdges[k]...), append([]K(nil), s.inEdges[k]...)
}

func without[K comparable](in []K, k K) []K {
	for i, v := range in {
		if v == k {
			return append(in[:i], in[i+1:]...)
		}
	}

	return in
}
