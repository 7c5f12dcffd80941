package graph

import (
	"sync"
	"time"
)

// MemoryStore is the in-process Store implementation, grounded on the
// SQLiteStore's upsert semantics minus persistence — useful for tests
// and short-lived deployments that don't need a restart-durable graph.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string]*Edge
}

// NewMemoryStore builds an empty in-memory graph store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

func edgeKey(source, target, relation string) string {
	return source + "\x00" + target + "\x00" + relation
}

// AddNode upserts a node, unioning labels and overwriting properties.
func (m *MemoryStore) AddNode(id string, labels []string, props map[string]string, ts time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.nodes[id]
	if !ok {
		m.nodes[id] = &Node{
			ID:         id,
			Labels:     dedupe(labels),
			Properties: orEmpty(props),
			LastSeen:   ts,
		}
		return nil
	}

	existing.Labels = dedupe(append(existing.Labels, labels...))
	if existing.Properties == nil {
		existing.Properties = map[string]string{}
	}
	for k, v := range props {
		existing.Properties[k] = v
	}
	existing.LastSeen = ts
	return nil
}

// AddEdge upserts an edge, accumulating byteCount and auto-creating
// missing endpoints with the Unknown label.
func (m *MemoryStore) AddEdge(source, target, relation string, props map[string]string, byteCount uint64, ts time.Time) error {
	m.mu.Lock()
	if _, ok := m.nodes[source]; !ok {
		m.nodes[source] = &Node{ID: source, Labels: []string{UnknownLabel}, Properties: map[string]string{}, LastSeen: ts}
	}
	if _, ok := m.nodes[target]; !ok {
		m.nodes[target] = &Node{ID: target, Labels: []string{UnknownLabel}, Properties: map[string]string{}, LastSeen: ts}
	}

	key := edgeKey(source, target, relation)
	existing, ok := m.edges[key]
	if !ok {
		m.edges[key] = &Edge{
			Source: source, Target: target, Relation: relation,
			Properties: orEmpty(props), ByteCount: byteCount, LastSeen: ts,
		}
		m.mu.Unlock()
		return nil
	}

	if existing.Properties == nil {
		existing.Properties = map[string]string{}
	}
	for k, v := range props {
		existing.Properties[k] = v
	}
	existing.ByteCount += byteCount
	existing.LastSeen = ts
	m.mu.Unlock()
	return nil
}

// GetAllNodes returns a snapshot of every node.
func (m *MemoryStore) GetAllNodes() ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, *n)
	}
	return out, nil
}

// GetAllEdges returns a snapshot of every edge.
func (m *MemoryStore) GetAllEdges() ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Edge, 0, len(m.edges))
	for _, e := range m.edges {
		out = append(out, *e)
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
