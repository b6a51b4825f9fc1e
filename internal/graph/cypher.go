package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// CypherOptions controls an ad-hoc query against the scene mirror.
type CypherOptions struct {
	// Write runs the query in a write transaction. Queries are read-only
	// otherwise, and the server rejects any that modify the graph.
	Write bool
	// Code is bound as $code unless the caller already set it.
	Code string
}

// RunCypher executes query and returns one map per record. Nodes,
// relationships and paths are flattened into plain maps so the rows
// encode cleanly as JSON.
func (c *Client) RunCypher(ctx context.Context, query string, params map[string]any, opts CypherOptions) ([]map[string]any, error) {
	mode := neo4j.AccessModeRead
	if opts.Write {
		mode = neo4j.AccessModeWrite
	}
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database, AccessMode: mode})
	defer session.Close(ctx)

	bound := cypherParams(params, opts.Code)
	work := func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, bound)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			rows = append(rows, recordRow(record))
		}
		return rows, nil
	}

	var result any
	var err error
	if opts.Write {
		result, err = session.ExecuteWrite(ctx, work)
	} else {
		result, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, fmt.Errorf("run cypher (write=%t): %w", opts.Write, err)
	}
	return result.([]map[string]any), nil
}

func cypherParams(params map[string]any, code string) map[string]any {
	bound := make(map[string]any, len(params)+1)
	for key, value := range params {
		bound[key] = value
	}
	if _, ok := bound["code"]; !ok && code != "" {
		bound["code"] = code
	}
	return bound
}

func recordRow(record *neo4j.Record) map[string]any {
	row := make(map[string]any, len(record.Keys))
	for i, key := range record.Keys {
		row[key] = plainValue(record.Values[i])
	}
	return row
}

func plainValue(value any) any {
	switch v := value.(type) {
	case neo4j.Node:
		return map[string]any{"labels": v.Labels, "props": plainMap(v.Props)}
	case neo4j.Relationship:
		return map[string]any{"type": v.Type, "props": plainMap(v.Props)}
	case neo4j.Path:
		nodes := make([]any, 0, len(v.Nodes))
		for _, node := range v.Nodes {
			nodes = append(nodes, plainValue(node))
		}
		rels := make([]any, 0, len(v.Relationships))
		for _, rel := range v.Relationships {
			rels = append(rels, plainValue(rel))
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plainValue(item)
		}
		return out
	case map[string]any:
		return plainMap(v)
	default:
		return value
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = plainValue(value)
	}
	return out
}
