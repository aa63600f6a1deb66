package neo4jstore

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/roach88/conceptgraph/internal/graph"
)

const nodeReturn = `id(n) AS id, properties(n) AS props`

const edgeReturn = `id(r) AS id, type(r) AS type, properties(r) AS props,
	id(s) AS sid, s.type AS stype, s.uri AS suri,
	id(t) AS tid, t.type AS ttype, t.uri AS turi`

// nodeProperties flattens a node into the property map stored on Neo4j.
func nodeProperties(n graph.Node) map[string]any {
	out := make(map[string]any, len(n.Props)+2)
	for k, v := range n.Props {
		out[k] = v
	}
	out[graph.PropType] = string(n.Type)
	out[graph.PropURI] = n.URI
	return out
}

// edgeProperties adds the nodes key to an edge's attributes.
func edgeProperties(start, end graph.Node, props graph.Properties) map[string]any {
	out := make(map[string]any, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	out[graph.PropNodes] = graph.NodesKey(start.ID, end.ID)
	return out
}

// nodeFromRecord decodes a row selected with nodeReturn.
func nodeFromRecord(rec *neo4j.Record) (graph.Node, error) {
	id, err := recordInt(rec, "id")
	if err != nil {
		return graph.Node{}, err
	}
	raw, err := recordMap(rec, "props")
	if err != nil {
		return graph.Node{}, err
	}

	n := graph.Node{ID: id, Props: graph.Properties{}, Stored: true}
	for k, v := range raw {
		switch k {
		case graph.PropType:
			s, _ := v.(string)
			n.Type = graph.NodeType(s)
		case graph.PropURI:
			n.URI, _ = v.(string)
		default:
			n.Props[k] = v
		}
	}
	return n, nil
}

// edgeFromRecord decodes a row selected with edgeReturn.
func edgeFromRecord(rec *neo4j.Record) (graph.Edge, error) {
	var (
		e   graph.Edge
		err error
	)
	if e.ID, err = recordInt(rec, "id"); err != nil {
		return graph.Edge{}, err
	}
	if e.Start.ID, err = recordInt(rec, "sid"); err != nil {
		return graph.Edge{}, err
	}
	if e.End.ID, err = recordInt(rec, "tid"); err != nil {
		return graph.Edge{}, err
	}
	e.Type = graph.EdgeType(recordString(rec, "type"))
	e.Start.Type = graph.NodeType(recordString(rec, "stype"))
	e.Start.URI = recordString(rec, "suri")
	e.End.Type = graph.NodeType(recordString(rec, "ttype"))
	e.End.URI = recordString(rec, "turi")

	raw, err := recordMap(rec, "props")
	if err != nil {
		return graph.Edge{}, err
	}
	e.Props = graph.Properties{}
	for k, v := range raw {
		if k != graph.PropNodes {
			e.Props[k] = v
		}
	}
	return e, nil
}

func recordInt(rec *neo4j.Record, key string) (int64, error) {
	v, ok := rec.Get(key)
	if !ok {
		return 0, fmt.Errorf("record has no %q", key)
	}
	id, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("record %q is %T, want int64", key, v)
	}
	return id, nil
}

func recordString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func recordMap(rec *neo4j.Record, key string) (map[string]any, error) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record %q is %T, want map", key, v)
	}
	return m, nil
}
