/**
 * Graph Store.
 *
 * Upsert-only node/edge storage for the network relationship graph
 * consumed by the centrality analyzer. Grounded on
 * original_source/pkg/infra/local/sqlite_store.py's SQLiteGraphStore
 * (schema, upsert shape), with the sql.Open + ON CONFLICT idiom this
 * codebase uses throughout its SQLite-backed stores. Edge byte_count
 * is accumulated across upserts rather than overwritten — see AddEdge.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package graph

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Node types mirrored from the FlowEvent destination classification.
const (
	NodeTypeInternal = "internal"
	NodeTypeExternal = "external"
	NodeTypeShadow   = "shadow"
	NodeTypeUnknown  = "unknown"
)

// UnknownLabel is applied to endpoints auto-created by AddEdge when
// the caller never separately upserted them as nodes.
const UnknownLabel = "Unknown"

// Node is a vertex in the network relationship graph.
type Node struct {
	ID         string
	Labels     []string
	Properties map[string]string
	LastSeen   time.Time
}

// Edge is a directed relationship between two nodes. ByteCount is the
// running total of bytes observed across every upsert of this triple.
type Edge struct {
	Source     string
	Target     string
	Relation   string
	Properties map[string]string
	ByteCount  uint64
	LastSeen   time.Time
}

// Store is the contract the centrality analyzer and the pipeline's
// graph writer depend on. Implementations must be concurrency-safe.
type Store interface {
	AddNode(id string, labels []string, props map[string]string, ts time.Time) error
	AddEdge(source, target, relation string, props map[string]string, byteCount uint64, ts time.Time) error
	GetAllNodes() ([]Node, error)
	GetAllEdges() ([]Edge, error)
	Close() error
}

// SQLiteStore is the disk-backed Store implementation, for long-running
// deployments where the graph should survive a restart.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS graph_nodes (
	id TEXT PRIMARY KEY,
	labels TEXT NOT NULL DEFAULT '[]',
	properties TEXT NOT NULL DEFAULT '{}',
	last_seen TIMESTAMP
);
CREATE TABLE IF NOT EXISTS graph_edges (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	relation TEXT NOT NULL,
	properties TEXT NOT NULL DEFAULT '{}',
	byte_count INTEGER NOT NULL DEFAULT 0,
	last_seen TIMESTAMP,
	PRIMARY KEY (source, target, relation)
);
CREATE INDEX IF NOT EXISTS idx_graph_edges_source ON graph_edges(source);
CREATE INDEX IF NOT EXISTS idx_graph_edges_target ON graph_edges(target);
`

// NewSQLiteStore opens (creating if necessary) a WAL-journaled SQLite
// graph store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("graph: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("graph: ping sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("graph: set WAL journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("graph: set synchronous pragma: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("graph: migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// AddNode upserts a node, unioning labels and overwriting properties
// by key.
func (s *SQLiteStore) AddNode(id string, labels []string, props map[string]string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var labelsJSON, propsJSON string
	row := s.db.QueryRow("SELECT labels, properties FROM graph_nodes WHERE id = ?", id)
	err := row.Scan(&labelsJSON, &propsJSON)

	switch {
	case err == sql.ErrNoRows:
		lb, _ := json.Marshal(dedupe(labels))
		pr, _ := json.Marshal(orEmpty(props))
		_, err = s.db.Exec(
			"INSERT INTO graph_nodes (id, labels, properties, last_seen) VALUES (?, ?, ?, ?)",
			id, string(lb), string(pr), ts,
		)
		return err
	case err != nil:
		return fmt.Errorf("graph: lookup node %s: %w", id, err)
	}

	var existingLabels []string
	var existingProps map[string]string
	_ = json.Unmarshal([]byte(labelsJSON), &existingLabels)
	_ = json.Unmarshal([]byte(propsJSON), &existingProps)
	if existingProps == nil {
		existingProps = map[string]string{}
	}
	merged := dedupe(append(existingLabels, labels...))
	for k, v := range props {
		existingProps[k] = v
	}
	lb, _ := json.Marshal(merged)
	pr, _ := json.Marshal(existingProps)
	_, err = s.db.Exec(
		"UPDATE graph_nodes SET labels = ?, properties = ?, last_seen = ? WHERE id = ?",
		string(lb), string(pr), ts, id,
	)
	return err
}

// AddEdge upserts an edge keyed by (source, target, relation). Missing
// endpoints are auto-created with the Unknown label. byteCount is
// added to the running total rather than replacing it; every other
// property is last-write-wins.
func (s *SQLiteStore) AddEdge(source, target, relation string, props map[string]string, byteCount uint64, ts time.Time) error {
	for _, id := range []string{source, target} {
		var exists int
		err := s.db.QueryRow("SELECT 1 FROM graph_nodes WHERE id = ?", id).Scan(&exists)
		if err == sql.ErrNoRows {
			if err := s.AddNode(id, []string{UnknownLabel}, nil, ts); err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("graph: lookup endpoint %s: %w", id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existingPropsJSON string
	var existingBytes uint64
	row := s.db.QueryRow(
		"SELECT properties, byte_count FROM graph_edges WHERE source = ? AND target = ? AND relation = ?",
		source, target, relation,
	)
	err := row.Scan(&existingPropsJSON, &existingBytes)

	pr, _ := json.Marshal(orEmpty(props))
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.Exec(
			`INSERT INTO graph_edges (source, target, relation, properties, byte_count, last_seen)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			source, target, relation, string(pr), byteCount, ts,
		)
		return err
	case err != nil:
		return fmt.Errorf("graph: lookup edge %s->%s: %w", source, target, err)
	}

	_, err = s.db.Exec(
		`UPDATE graph_edges SET properties = ?, byte_count = ?, last_seen = ?
		 WHERE source = ? AND target = ? AND relation = ?`,
		string(pr), existingBytes+byteCount, ts, source, target, relation,
	)
	return err
}

// GetAllNodes returns every node, ordered by ID for deterministic
// iteration by the centrality analyzer.
func (s *SQLiteStore) GetAllNodes() ([]Node, error) {
	rows, err := s.db.Query("SELECT id, labels, properties, last_seen FROM graph_nodes")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var n Node
		var labelsJSON, propsJSON string
		var lastSeen sql.NullTime
		if err := rows.Scan(&n.ID, &labelsJSON, &propsJSON, &lastSeen); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(labelsJSON), &n.Labels)
		_ = json.Unmarshal([]byte(propsJSON), &n.Properties)
		if lastSeen.Valid {
			n.LastSeen = lastSeen.Time
		}
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes, rows.Err()
}

// GetAllEdges returns every edge.
func (s *SQLiteStore) GetAllEdges() ([]Edge, error) {
	rows, err := s.db.Query("SELECT source, target, relation, properties, byte_count, last_seen FROM graph_edges")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var propsJSON string
		var lastSeen sql.NullTime
		if err := rows.Scan(&e.Source, &e.Target, &e.Relation, &propsJSON, &e.ByteCount, &lastSeen); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(propsJSON), &e.Properties)
		if lastSeen.Valid {
			e.LastSeen = lastSeen.Time
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func dedupe(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
