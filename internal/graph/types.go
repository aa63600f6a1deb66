package graph

import (
	"encoding/json"
	"fmt"
	"maps"
)

// NodeType is the type tag stored on every node.
type NodeType string

const (
	TypeConcept     NodeType = "concept"
	TypeRelation    NodeType = "relation"
	TypeFrame       NodeType = "frame"
	TypeSource      NodeType = "source"
	TypeAssertion   NodeType = "assertion"
	TypeConjunction NodeType = "conjunction"
	TypeWebConcept  NodeType = "web_concept"
)

// EdgeType is the relationship type of an edge.
type EdgeType string

const (
	EdgeRelation   EdgeType = "relation"
	EdgeArg        EdgeType = "arg"
	EdgeJustifies  EdgeType = "justifies"
	EdgeNormalized EdgeType = "normalized"
)

// Valid reports whether t is one of the known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeRelation, EdgeArg, EdgeJustifies, EdgeNormalized:
		return true
	}
	return false
}

// Direction selects edges by orientation relative to a node.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	case Both:
		return "both"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Property keys with fixed meaning.
const (
	PropType     = "type"
	PropURI      = "uri"
	PropName     = "name"
	PropLanguage = "language"
	PropScore    = "score"
	PropPosition = "position"
	PropWeight   = "weight"
	PropNodes    = "nodes"
	PropDisambig = "disambiguation"
)

// DefaultWeight is the justification weight used when callers have no
// better estimate.
const DefaultWeight = 1.0

// Properties is a flat attribute map carried by nodes and edges.
// Functions in this package never retain or mutate a caller's map.
type Properties map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	maps.Copy(out, p)
	return out
}

// Node is a graph node. ID is assigned by the store and only meaningful
// when Stored is set; zero is a valid identifier on some backends.
type Node struct {
	ID    int64      `json:"id,omitempty"`
	Type  NodeType   `json:"type"`
	URI   string     `json:"uri"`
	Props Properties `json:"props,omitempty"`

	// Stored is set by stores on every node they create or read. Nodes
	// planned but never persisted (bulk export) leave it false.
	Stored bool `json:"-"`
}

// Endpoint returns the node's identity as seen from an edge.
func (n Node) Endpoint() Endpoint {
	return Endpoint{ID: n.ID, Type: n.Type, URI: n.URI}
}

// Name returns the "name" property, if any.
func (n Node) Name() string {
	s, _ := n.Props[PropName].(string)
	return s
}

// Endpoint identifies one end of an edge.
type Endpoint struct {
	ID   int64    `json:"id,omitempty"`
	Type NodeType `json:"type,omitempty"`
	URI  string   `json:"uri"`
}

// Edge is a typed relationship between two nodes.
type Edge struct {
	ID    int64      `json:"id,omitempty"`
	Type  EdgeType   `json:"type"`
	Start Endpoint   `json:"start"`
	End   Endpoint   `json:"end"`
	Props Properties `json:"props,omitempty"`
}

// NodesKey is the derived "<startID>-<endID>" key stored on every edge and
// used for endpoint-pair lookup.
func NodesKey(startID, endID int64) string {
	return fmt.Sprintf("%d-%d", startID, endID)
}

// NodesKey returns the derived endpoint-pair key of e.
func (e Edge) NodesKey() string {
	return NodesKey(e.Start.ID, e.End.ID)
}

// Position returns the 1-based argument position of an arg edge.
func (e Edge) Position() (int, bool) {
	v, ok := numeric(e.Props[PropPosition])
	return int(v), ok
}

// Weight returns the weight of a justifies edge.
func (e Edge) Weight() (float64, bool) {
	return numeric(e.Props[PropWeight])
}

// numeric converts the number representations produced by the stores
// (JSON numbers, driver integers and floats) to float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
