/**
 * Betweenness Centrality.
 *
 * No betweenness-centrality graph library appears anywhere in the
 * retrieval pack, so this is Brandes' algorithm implemented directly
 * over the adjacency structure read from a Store: the same O(VE)
 * single-source accumulation networkx.betweenness_centrality uses
 * internally, normalized the same way for a directed graph.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package graph

// adjacency is a directed adjacency list built from a Store snapshot.
type adjacency struct {
	nodes     []string
	successor map[string][]string
	predOf    map[string][]string
}

func buildAdjacency(nodes []Node, edges []Edge) *adjacency {
	a := &adjacency{
		successor: make(map[string][]string),
		predOf:    make(map[string][]string),
	}
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if !seen[n.ID] {
			seen[n.ID] = true
			a.nodes = append(a.nodes, n.ID)
		}
	}
	for _, e := range edges {
		if !seen[e.Source] {
			seen[e.Source] = true
			a.nodes = append(a.nodes, e.Source)
		}
		if !seen[e.Target] {
			seen[e.Target] = true
			a.nodes = append(a.nodes, e.Target)
		}
		a.successor[e.Source] = append(a.successor[e.Source], e.Target)
		a.predOf[e.Target] = append(a.predOf[e.Target], e.Source)
	}
	return a
}

// degree returns the total in+out degree of node, matching
// networkx's DiGraph.degree (in-degree plus out-degree, each edge
// counted once per endpoint).
func (a *adjacency) degree(node string) int {
	return len(a.successor[node]) + len(a.predOf[node])
}

// neighbors returns the deduplicated union of predecessors and
// successors of node.
func (a *adjacency) neighbors(node string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range a.predOf[node] {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range a.successor[node] {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// BetweennessCentrality computes normalized betweenness centrality for
// every node in the graph described by nodes/edges, via Brandes'
// algorithm for directed, unweighted graphs.
func BetweennessCentrality(nodes []Node, edges []Edge) map[string]float64 {
	a := buildAdjacency(nodes, edges)
	n := len(a.nodes)

	centrality := make(map[string]float64, n)
	for _, v := range a.nodes {
		centrality[v] = 0
	}
	if n < 3 {
		return centrality
	}

	for _, s := range a.nodes {
		stack := make([]string, 0, n)
		pred := make(map[string][]string, n)
		sigma := make(map[string]float64, n)
		dist := make(map[string]float64, n)
		for _, v := range a.nodes {
			sigma[v] = 0
			dist[v] = -1
		}
		sigma[s] = 1
		dist[s] = 0

		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range a.successor[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		delta := make(map[string]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}

	// Directed normalization: 1/((n-1)(n-2)) matches networkx's
	// betweenness_centrality(normalized=True) for a DiGraph with n>=3.
	// The 2/(...) factor is networkx's undirected rescaling; it does
	// not apply here since every pair is counted once per direction.
	scale := 1.0 / float64((n-1)*(n-2))
	for v := range centrality {
		centrality[v] *= scale
	}
	return centrality
}
