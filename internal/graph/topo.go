package graph

import "sort"

// Validate checks acyclicity by consuming the graph frontier by frontier. If
// nodes remain once no further node reaches in-degree zero, it returns a
// *CycleError.
func (g *Graph) Validate() error {
	if g.Len() == 0 {
		return nil
	}
	_, remaining := g.strip()
	if len(remaining) == 0 {
		return nil
	}
	return &CycleError{
		Remaining: g.idsOf(remaining),
		Path:      g.cyclePath(remaining),
	}
}

// Layers returns the frontiers of the graph: the first holds every node
// without prerequisites, each following one the nodes whose last
// prerequisite sat in the previous layer. Nodes inside a layer keep
// first-appearance order.
func (g *Graph) Layers() ([][]TaskID, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	layers, _ := g.strip()
	out := make([][]TaskID, len(layers))
	for i, layer := range layers {
		out[i] = g.idsOf(layer)
	}
	return out, nil
}

// Order concatenates Layers into one global topological order.
func (g *Graph) Order() ([]TaskID, error) {
	layers, err := g.Layers()
	if err != nil {
		return nil, err
	}
	out := make([]TaskID, 0, g.Len())
	for _, layer := range layers {
		out = append(out, layer...)
	}
	return out, nil
}

// strip runs the frontier queue over a private copy of the in-degree
// counters. It returns the layers consumed and, for cyclic graphs, the
// indices that never reached in-degree zero.
func (g *Graph) strip() ([][]int, []int) {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	var frontier []int
	for i, d := range indeg {
		if d == 0 {
			frontier = append(frontier, i)
		}
	}
	var layers [][]int
	removed := 0
	for len(frontier) > 0 {
		layers = append(layers, frontier)
		removed += len(frontier)
		var next []int
		for _, u := range frontier {
			for _, v := range g.outgoing[u] {
				indeg[v]--
				if indeg[v] == 0 {
					next = append(next, v)
				}
			}
		}
		sort.Ints(next)
		frontier = next
	}
	if removed == len(g.ids) {
		return layers, nil
	}
	var remaining []int
	for i, d := range indeg {
		if d > 0 {
			remaining = append(remaining, i)
		}
	}
	return layers, remaining
}

// cyclePath walks prerequisite links inside the remaining set until a node
// repeats. Every remaining node keeps at least one remaining prerequisite,
// so the walk always closes.
func (g *Graph) cyclePath(remaining []int) []TaskID {
	if len(remaining) == 0 {
		return nil
	}
	left := make(map[int]bool, len(remaining))
	for _, idx := range remaining {
		left[idx] = true
	}
	position := make(map[int]int)
	var walk []int
	cur := remaining[0]
	for {
		if pos, ok := position[cur]; ok {
			return g.closeCycle(walk[pos:])
		}
		position[cur] = len(walk)
		walk = append(walk, cur)
		next := -1
		for _, p := range g.incoming[cur] {
			if left[p] {
				next = p
				break
			}
		}
		if next < 0 {
			return nil
		}
		cur = next
	}
}

// closeCycle turns a backwards walk into a forward path starting at its
// lowest-index node and ending where it began.
func (g *Graph) closeCycle(backwards []int) []TaskID {
	n := len(backwards)
	forward := make([]int, n)
	for i, idx := range backwards {
		forward[n-1-i] = idx
	}
	start := 0
	for i, idx := range forward {
		if idx < forward[start] {
			start = i
		}
	}
	path := make([]TaskID, 0, n+1)
	for i := 0; i < n; i++ {
		path = append(path, g.ids[forward[(start+i)%n]])
	}
	return append(path, path[0])
}
