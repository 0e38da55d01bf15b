// Package server provides the MCP and health server implementations.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skohara/wikibox/internal/db"
	"github.com/skohara/wikibox/internal/infobox"
	"github.com/skohara/wikibox/internal/tablegrid"
	"github.com/skohara/wikibox/internal/version"
	"github.com/skohara/wikibox/internal/wikiapi"
	"github.com/skohara/wikibox/internal/wikitext"
)

// MCPServer exposes wikibox operations over the MCP protocol.
type MCPServer struct {
	server   *mcp.Server
	client   *wikiapi.Client
	source   infobox.PageSource
	resolver *infobox.Resolver
	graph    *db.GraphDB
	logger   *slog.Logger
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	// Client is the MediaWiki API client. Nil disables search and page tools.
	Client *wikiapi.Client

	// Source provides page source for infobox resolution. Required.
	Source infobox.PageSource

	// Resolver resolves infobox chains. Required.
	Resolver *infobox.Resolver

	// Graph is the template graph database. Nil disables graph tools.
	Graph *db.GraphDB

	Logger *slog.Logger
}

// NewMCPServer creates a new MCP server instance.
func NewMCPServer(cfg MCPConfig) *MCPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: version.Name, Version: version.Version},
		nil,
	)

	m := &MCPServer{
		server:   server,
		client:   cfg.Client,
		source:   cfg.Source,
		resolver: cfg.Resolver,
		graph:    cfg.Graph,
		logger:   logger,
	}

	m.registerTools()
	return m
}

// HTTPHandler returns an http.Handler that serves the MCP protocol over HTTP
// using the streamable HTTP transport.
func (m *MCPServer) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return m.server
		},
		&mcp.StreamableHTTPOptions{
			JSONResponse: true,
			Logger:       m.logger,
		},
	)
}

func (m *MCPServer) registerTools() {
	// Page tools
	if m.client != nil {
		m.registerSearchPages()
		m.registerGetPageSource()
	}

	// Template tools
	m.registerListTemplates()
	m.registerExtractInfoboxes()
	m.registerResolveInfobox()
	m.registerExtractAnimeInfo()
	m.registerExtractTables()

	// Graph tools
	if m.graph != nil {
		m.registerCypherQuery()
		m.registerGetGraphSchema()
		m.logger.Info("graph tools enabled")
	}
}

// Tool result helper
func toolResult(data any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}

// Error result helper
func errorResult(err error) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}

// ============ Page Tools ============

type searchPagesInput struct {
	Keyword string `json:"keyword" jsonschema:"Search keyword or phrase"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
	Offset  int    `json:"offset,omitempty" jsonschema:"Result offset to start from"`
}

func (m *MCPServer) registerSearchPages() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "search_pages",
		Description: "Full-text search for wiki pages by keyword",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input searchPagesInput) (*mcp.CallToolResult, any, error) {
		limit := input.Limit
		if limit == 0 {
			limit = 10
		}

		cursor, total, err := m.client.Search(ctx, input.Keyword, limit)
		if err != nil {
			m.logger.Error("search failed", "keyword", input.Keyword, "error", err)
			res, _ := errorResult(err)
			return res, nil, nil
		}
		if input.Offset > 0 {
			cursor.Seek(input.Offset)
		}

		hits := make([]map[string]any, 0, limit)
		for len(hits) < limit {
			hit, ok, err := cursor.Next(ctx)
			if err != nil {
				res, _ := errorResult(err)
				return res, nil, nil
			}
			if !ok {
				break
			}
			hits = append(hits, map[string]any{
				"pageid": hit.PageID,
				"title":  hit.Title,
			})
		}

		res, _ := toolResult(map[string]any{
			"success":     true,
			"total_hits":  total,
			"results":     hits,
			"next_offset": cursor.Offset,
		})
		return res, nil, nil
	})
}

type getPageSourceInput struct {
	Title     string `json:"title" jsonschema:"Page title"`
	Unlink    bool   `json:"unlink,omitempty" jsonschema:"Replace internal links with their display text"`
	Redirects bool   `json:"redirects,omitempty" jsonschema:"Follow page redirects (default true when omitted)"`
}

func (m *MCPServer) registerGetPageSource() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "get_page_source",
		Description: "Fetch the wikitext source of a page",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input getPageSourceInput) (*mcp.CallToolResult, any, error) {
		page, err := m.client.FindPage(ctx, input.Title, input.Redirects)
		if err != nil {
			res, _ := errorResult(err)
			return res, nil, nil
		}

		if input.Unlink {
			page.Unlink()
		}

		res, _ := toolResult(map[string]any{
			"success": true,
			"page":    page,
		})
		return res, nil, nil
	})
}

// ============ Template Tools ============

type listTemplatesInput struct {
	Source string `json:"source" jsonschema:"Wikitext source to scan"`
	Filter string `json:"filter,omitempty" jsonschema:"Optional template name or name prefix to match"`
}

func (m *MCPServer) registerListTemplates() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "list_templates",
		Description: "List the top-level template invocations in wikitext source",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input listTemplatesInput) (*mcp.CallToolResult, any, error) {
		var filter any
		if input.Filter != "" {
			filter = func(name string) bool {
				return name == input.Filter || strings.HasPrefix(name, input.Filter)
			}
		}

		templates, err := wikitext.FindAll(input.Source, filter)
		if err != nil {
			res, _ := errorResult(err)
			return res, nil, nil
		}

		out := make([]map[string]any, len(templates))
		for i, tpl := range templates {
			params := make(map[string]string, tpl.Len())
			for _, item := range tpl.Items() {
				params[item.Key] = item.Value
			}
			out[i] = map[string]any{
				"name":   tpl.Name(),
				"params": params,
				"source": tpl.Source(),
			}
		}

		res, _ := toolResult(map[string]any{
			"success":   true,
			"count":     len(out),
			"templates": out,
		})
		return res, nil, nil
	})
}

type extractInfoboxesInput struct {
	Source string `json:"source" jsonschema:"Wikitext source to scan"`
}

func (m *MCPServer) registerExtractInfoboxes() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "extract_infoboxes",
		Description: "Extract the templates in wikitext source that resolve to infoboxes",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input extractInfoboxesInput) (*mcp.CallToolResult, any, error) {
		boxes, err := m.resolver.InfoboxesIn(ctx, input.Source)
		if err != nil {
			res, _ := errorResult(err)
			return res, nil, nil
		}

		out := make([]map[string]any, len(boxes))
		for i, tpl := range boxes {
			params := make(map[string]string, tpl.Len())
			for _, item := range tpl.Items() {
				params[item.Key] = item.Value
			}
			out[i] = map[string]any{
				"name":   tpl.Name(),
				"params": params,
			}
		}

		res, _ := toolResult(map[string]any{
			"success":   true,
			"count":     len(out),
			"infoboxes": out,
		})
		return res, nil, nil
	})
}

type resolveInfoboxInput struct {
	Name string `json:"name" jsonschema:"Template name to resolve"`
}

func (m *MCPServer) registerResolveInfobox() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "resolve_infobox",
		Description: "Resolve whether a template name redirects to an infobox template",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input resolveInfoboxInput) (*mcp.CallToolResult, any, error) {
		isInfobox := m.resolver.Resolve(ctx, input.Name)

		result := map[string]any{
			"success": true,
			"name":    input.Name,
			"infobox": isInfobox,
		}
		if m.graph != nil {
			if chain, err := m.graph.Chain(ctx, input.Name); err == nil && len(chain) > 1 {
				result["chain"] = chain
			}
		}

		res, _ := toolResult(result)
		return res, nil, nil
	})
}

type extractAnimeInfoInput struct {
	Source string `json:"source" jsonschema:"Wikitext source of an anime article"`
}

func (m *MCPServer) registerExtractAnimeInfo() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "extract_anime_info",
		Description: "Extract series, title, director, and studio from animanga infoboxes",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input extractAnimeInfoInput) (*mcp.CallToolResult, any, error) {
		info, err := infobox.ExtractAnime(input.Source)
		if err != nil {
			res, _ := errorResult(err)
			return res, nil, nil
		}

		res, _ := toolResult(map[string]any{
			"success": true,
			"count":   len(info),
			"works":   info,
		})
		return res, nil, nil
	})
}

type extractTablesInput struct {
	HTML string `json:"html" jsonschema:"HTML document containing tables"`
}

func (m *MCPServer) registerExtractTables() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "extract_tables",
		Description: "Flatten the HTML tables in a document to tab-separated text",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input extractTablesInput) (*mcp.CallToolResult, any, error) {
		tables, err := tablegrid.ParseTables(strings.NewReader(input.HTML))
		if err != nil {
			res, _ := errorResult(err)
			return res, nil, nil
		}

		out := make([]string, len(tables))
		for i, table := range tables {
			out[i] = table.String()
		}

		res, _ := toolResult(map[string]any{
			"success": true,
			"count":   len(out),
			"tables":  out,
		})
		return res, nil, nil
	})
}

// ============ Graph Tools ============

type cypherQueryInput struct {
	Query string `json:"query" jsonschema:"Cypher query string"`
}

func (m *MCPServer) registerCypherQuery() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "cypher_query",
		Description: "Execute a Cypher query against the template graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input cypherQueryInput) (*mcp.CallToolResult, any, error) {
		results, err := m.graph.Execute(ctx, input.Query, nil)
		if err != nil {
			m.logger.Error("cypher query failed", "error", err)
			res, _ := errorResult(err)
			return res, nil, nil
		}
		res, _ := toolResult(map[string]any{
			"success": true,
			"results": results,
		})
		return res, nil, nil
	})
}

func (m *MCPServer) registerGetGraphSchema() {
	mcp.AddTool(m.server, &mcp.Tool{
		Name:        "get_graph_schema",
		Description: "Get the template graph schema for constructing Cypher queries",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
		res, _ := toolResult(map[string]any{
			"success": true,
			"schema":  db.Schema(),
		})
		return res, nil, nil
	})
}
