package graph

import (
	"fmt"
	"sort"
)

// TaskID is an opaque task identifier. Equality is the only operation the
// graph relies on.
type TaskID string

// Edge states that Prerequisite must finish before Dependent starts.
type Edge struct {
	Prerequisite TaskID `json:"prerequisite" yaml:"prerequisite"`
	Dependent    TaskID `json:"dependent" yaml:"dependent"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", e.Prerequisite, e.Dependent)
}

type edgeIndex struct {
	from int
	to   int
}

// Graph is an index-based dependency graph. Nodes are exactly the edge
// endpoints, numbered in order of first appearance. The structure is never
// mutated after construction; traversals work on copies of the in-degree
// counters.
type Graph struct {
	ids   []TaskID
	index map[TaskID]int
	edges []edgeIndex

	outgoing [][]int // prerequisite -> dependents, ascending
	incoming [][]int // dependent -> prerequisites, ascending
	indeg    []int
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	known map[TaskID]struct{}
}

// WithKnownTasks restricts edge endpoints to the listed identifiers. Any
// other endpoint fails the build with an UnknownReferenceError.
func WithKnownTasks(ids ...TaskID) BuildOption {
	return func(o *buildOptions) {
		if o.known == nil {
			o.known = make(map[TaskID]struct{}, len(ids))
		}
		for _, id := range ids {
			o.known[id] = struct{}{}
		}
	}
}

// Build constructs the graph and validates that it is acyclic. Edge order is
// irrelevant to validity and duplicates are ignored, but the first
// appearance of each node fixes its tie-break position in every traversal.
func Build(edges []Edge, opts ...BuildOption) (*Graph, error) {
	var options buildOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	for i, e := range edges {
		if e.Prerequisite == "" || e.Dependent == "" {
			return nil, fmt.Errorf("graph: edge %d has an empty task id", i)
		}
	}
	if options.known != nil {
		if err := checkKnown(edges, options.known); err != nil {
			return nil, err
		}
	}
	g := New(edges)
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// New builds the graph structure without validating it. Callers that skip
// Build must expect the scheduler to reject cyclic input.
func New(edges []Edge) *Graph {
	g := &Graph{index: make(map[TaskID]int)}
	seen := make(map[edgeIndex]struct{}, len(edges))
	for _, e := range edges {
		pair := edgeIndex{from: g.intern(e.Prerequisite), to: g.intern(e.Dependent)}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		g.edges = append(g.edges, pair)
	}
	g.outgoing = make([][]int, len(g.ids))
	g.incoming = make([][]int, len(g.ids))
	g.indeg = make([]int, len(g.ids))
	for _, e := range g.edges {
		g.outgoing[e.from] = append(g.outgoing[e.from], e.to)
		g.incoming[e.to] = append(g.incoming[e.to], e.from)
		g.indeg[e.to]++
	}
	for i := range g.ids {
		sort.Ints(g.outgoing[i])
		sort.Ints(g.incoming[i])
	}
	return g
}

func (g *Graph) intern(id TaskID) int {
	if idx, ok := g.index[id]; ok {
		return idx
	}
	idx := len(g.ids)
	g.ids = append(g.ids, id)
	g.index[id] = idx
	return idx
}

func checkKnown(edges []Edge, known map[TaskID]struct{}) error {
	var missing []TaskID
	reported := make(map[TaskID]struct{})
	for _, e := range edges {
		for _, id := range []TaskID{e.Prerequisite, e.Dependent} {
			if _, ok := known[id]; ok {
				continue
			}
			if _, dup := reported[id]; dup {
				continue
			}
			reported[id] = struct{}{}
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &UnknownReferenceError{IDs: missing}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.ids)
}

// Edges returns the distinct edges in first-appearance order.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, Edge{Prerequisite: g.ids[e.from], Dependent: g.ids[e.to]})
	}
	return out
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id TaskID) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[id]
	return ok
}

// Prerequisites lists the distinct direct prerequisites of id.
func (g *Graph) Prerequisites(id TaskID) []TaskID {
	if g == nil {
		return nil
	}
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.idsOf(g.incoming[idx])
}

// Dependents lists the distinct tasks that directly depend on id.
func (g *Graph) Dependents(id TaskID) []TaskID {
	if g == nil {
		return nil
	}
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.idsOf(g.outgoing[idx])
}

// InDegree returns the number of distinct prerequisites of id.
func (g *Graph) InDegree(id TaskID) int {
	if g == nil {
		return 0
	}
	idx, ok := g.index[id]
	if !ok {
		return 0
	}
	return g.indeg[idx]
}

func (g *Graph) idsOf(indices []int) []TaskID {
	if len(indices) == 0 {
		return nil
	}
	out := make([]TaskID, len(indices))
	for i, idx := range indices {
		out[i] = g.ids[idx]
	}
	return out
}
