package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/skohara/wikibox/internal/db"
	"github.com/skohara/wikibox/internal/infobox"
)

// Helper functions

func createTempDir(t *testing.T, prefix string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// mapSource serves template pages from a map, counting fetches.
type mapSource struct {
	pages   map[string]string
	fetches int
}

func (m *mapSource) Fetch(ctx context.Context, title string) (string, bool, error) {
	m.fetches++
	source, ok := m.pages[title]
	return source, ok, nil
}

func setupTestMCPServer(t *testing.T, pages map[string]string) *MCPServer {
	t.Helper()
	dbPath := filepath.Join(createTempDir(t, "test_db_"), "test.lbug")

	graphDB, err := db.Open(db.Config{Path: dbPath})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { graphDB.Close() })

	source := &mapSource{pages: pages}
	resolver := infobox.New(infobox.Config{
		Source:   source,
		Recorder: graphDB,
	})

	return NewMCPServer(MCPConfig{
		Source:   source,
		Resolver: resolver,
		Graph:    graphDB,
	})
}

// ==================== Initialization Tests ====================

func TestMCPServerInitialization(t *testing.T) {
	mcpServer := setupTestMCPServer(t, nil)

	if mcpServer == nil {
		t.Fatal("MCP server should not be nil")
	}
	if mcpServer.server == nil {
		t.Error("Internal MCP server should not be nil")
	}
	if mcpServer.resolver == nil {
		t.Error("Resolver should not be nil")
	}
	if mcpServer.HTTPHandler() == nil {
		t.Error("HTTP handler should not be nil")
	}
}

func TestMCPServerWithoutClientOrGraph(t *testing.T) {
	resolver := infobox.New(infobox.Config{Source: &mapSource{}})
	mcpServer := NewMCPServer(MCPConfig{
		Source:   &mapSource{},
		Resolver: resolver,
	})

	if mcpServer == nil {
		t.Fatal("MCP server should not be nil")
	}
	if mcpServer.client != nil || mcpServer.graph != nil {
		t.Error("Client and graph should stay nil when not configured")
	}
}

// ==================== Tool Result Helper Tests ====================

func TestToolResultHelper(t *testing.T) {
	data := map[string]any{
		"success": true,
		"results": []string{"a", "b"},
	}

	result, err := toolResult(data)
	if err != nil {
		t.Fatalf("toolResult failed: %v", err)
	}

	if result == nil {
		t.Fatal("Result should not be nil")
	}
	if len(result.Content) != 1 {
		t.Errorf("Expected 1 content item, got %d", len(result.Content))
	}
}

func TestErrorResultHelper(t *testing.T) {
	testErr := os.ErrNotExist

	result, err := errorResult(testErr)
	if err != nil {
		t.Fatalf("errorResult failed: %v", err)
	}

	if result == nil {
		t.Fatal("Result should not be nil")
	}
}

// ==================== Resolver Wiring Tests ====================

func TestResolverRecordsChainsToGraph(t *testing.T) {
	mcpServer := setupTestMCPServer(t, map[string]string{
		"Template:Anime": "{{Infobox animanga/TVAnime}}",
	})
	ctx := context.Background()

	if !mcpServer.resolver.Resolve(ctx, "Anime") {
		t.Fatal("Anime should resolve to an infobox")
	}

	chain, err := mcpServer.graph.Chain(ctx, "Anime")
	if err != nil {
		t.Fatalf("Chain failed: %v", err)
	}
	if len(chain) != 2 || chain[1] != "Infobox animanga/TVAnime" {
		t.Errorf("chain = %v", chain)
	}
}

func TestResolverRecordsNegativeOutcome(t *testing.T) {
	mcpServer := setupTestMCPServer(t, nil)
	ctx := context.Background()

	if mcpServer.resolver.Resolve(ctx, "Cite web") {
		t.Fatal("Missing template should not resolve")
	}

	names, err := mcpServer.graph.NonInfoboxNames(ctx)
	if err != nil {
		t.Fatalf("NonInfoboxNames failed: %v", err)
	}
	if len(names) != 1 || names[0] != "Cite web" {
		t.Errorf("names = %v", names)
	}
}

func TestInfoboxesInThroughServer(t *testing.T) {
	mcpServer := setupTestMCPServer(t, map[string]string{
		"Template:Anime": "{{Infobox animanga/TVAnime}}",
	})
	ctx := context.Background()

	article := "{{Anime|タイトル=Example}} text {{Cite web|url=x}}"
	boxes, err := mcpServer.resolver.InfoboxesIn(ctx, article)
	if err != nil {
		t.Fatalf("InfoboxesIn failed: %v", err)
	}
	if len(boxes) != 1 || boxes[0].Name() != "Anime" {
		t.Errorf("boxes = %v", boxes)
	}
}

// ==================== Graph Schema Tests ====================

func TestGraphSchemaIsSerializable(t *testing.T) {
	schema := db.Schema()
	if schema == nil {
		t.Fatal("Graph schema should not be nil")
	}

	if _, ok := schema["nodes"]; !ok {
		t.Error("Schema should have 'nodes' key")
	}
	if _, ok := schema["relationships"]; !ok {
		t.Error("Schema should have 'relationships' key")
	}

	if _, err := json.Marshal(schema); err != nil {
		t.Errorf("Schema should be JSON serializable: %v", err)
	}
}
