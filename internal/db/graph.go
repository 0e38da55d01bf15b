package db

import (
	"context"
	"fmt"
	"time"
)

// RecordChain stores one resolution chain: names[0] redirected to names[1]
// and so on, and the whole chain resolved (or failed to resolve) to an
// infobox. Nodes are merged, so repeated chains are idempotent.
func (g *GraphDB) RecordChain(ctx context.Context, names []string, isInfobox bool) error {
	now := time.Now().UTC().Format(time.RFC3339)

	for _, name := range names {
		if err := g.ExecuteWrite(ctx, `
			MERGE (t:Template {name: $name})
			SET t.infobox = $infobox, t.resolved_at = $at
		`, map[string]any{
			"name":    name,
			"infobox": isInfobox,
			"at":      now,
		}); err != nil {
			return fmt.Errorf("record template %s: %w", name, err)
		}
	}

	for i := 0; i+1 < len(names); i++ {
		if err := g.ExecuteWrite(ctx, `
			MATCH (from:Template {name: $from})
			MATCH (to:Template {name: $to})
			MERGE (from)-[:REDIRECTS_TO]->(to)
		`, map[string]any{
			"from": names[i],
			"to":   names[i+1],
		}); err != nil {
			return fmt.Errorf("record redirect %s -> %s: %w", names[i], names[i+1], err)
		}
	}

	return nil
}

// NonInfoboxNames returns every template recorded as not resolving to an
// infobox, for warming the resolver's negative cache on startup.
func (g *GraphDB) NonInfoboxNames(ctx context.Context) ([]string, error) {
	records, err := g.Execute(ctx, `
		MATCH (t:Template)
		WHERE t.infobox = false
		RETURN t.name AS name
	`, nil)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for _, rec := range records {
		if name, ok := rec["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Chain follows recorded redirects outward from name, visited-guarded in
// case the stored graph contains a cycle.
func (g *GraphDB) Chain(ctx context.Context, name string) ([]string, error) {
	chain := []string{name}
	visited := map[string]struct{}{name: {}}

	current := name
	for {
		records, err := g.Execute(ctx, `
			MATCH (from:Template {name: $name})-[:REDIRECTS_TO]->(to:Template)
			RETURN to.name AS name
		`, map[string]any{"name": current})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return chain, nil
		}

		next, ok := records[0]["name"].(string)
		if !ok {
			return chain, nil
		}
		if _, seen := visited[next]; seen {
			return chain, nil
		}
		visited[next] = struct{}{}
		chain = append(chain, next)
		current = next
	}
}

// Schema describes the graph for clients that want to query it directly.
func Schema() map[string]any {
	return map[string]any{
		"nodes": map[string]any{
			"Template": map[string]string{
				"name":        "template page name, primary key",
				"infobox":     "whether the template resolves to an infobox",
				"resolved_at": "RFC 3339 time of the last resolution",
			},
		},
		"relationships": map[string]any{
			"REDIRECTS_TO": "Template -> Template, body starts with the target template",
		},
	}
}
