// Copyright (C) 2025-2026 Kraklabs. All rights reserved.
// Use of this source code is governed by the AGPL-3.0
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kraklabs/quadmind/pkg/tools"
)

const (
	mcpVersion    = "0.1.0"
	mcpServerName = "quadmind"
)

// JSON-RPC 2.0 types for MCP protocol.

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type mcpServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type mcpCapabilities struct {
	Tools map[string]any `json:"tools,omitempty"`
}

type mcpInitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    mcpCapabilities `json:"capabilities"`
	ServerInfo      mcpServerInfo   `json:"serverInfo"`
}

type mcpTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type mcpToolsListResult struct {
	Tools []mcpTool `json:"tools"`
}

type mcpToolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type mcpToolResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// mcpServer maintains state for the running MCP server instance.
type mcpServer struct {
	service *tools.Service
	// storePath, when set, pins every tool call without an explicit
	// "store" argument to one store for the whole session.
	storePath string
}

// toolHandler is the signature for MCP tool handlers.
type toolHandler func(ctx context.Context, args map[string]any) (*tools.ToolResult, error)

// handlers maps tool names to service methods.
func (s *mcpServer) handlers() map[string]toolHandler {
	svc := s.service
	return map[string]toolHandler{
		"qm_create_store":        svc.CreateStore,
		"qm_open_store":          svc.OpenStore,
		"qm_close_store":         svc.CloseStore,
		"qm_backup_store":        svc.BackupStore,
		"qm_restore_store":       svc.RestoreStore,
		"qm_optimize_store":      svc.OptimizeStore,
		"qm_list_stores":         svc.ListStores,
		"qm_set_default_store":   svc.SetDefaultStore,
		"qm_create_entities":     svc.CreateEntities,
		"qm_create_relations":    svc.CreateRelations,
		"qm_add_observations":    svc.AddObservations,
		"qm_delete_entities":     svc.DeleteEntities,
		"qm_delete_observations": svc.DeleteObservations,
		"qm_delete_relations":    svc.DeleteRelations,
		"qm_read_graph":          svc.ReadGraph,
		"qm_search_nodes":        svc.SearchNodes,
		"qm_open_nodes":          svc.OpenNodes,
		"qm_add_quad":            svc.AddQuad,
		"qm_remove_quad":         svc.RemoveQuad,
		"qm_match_quads":         svc.MatchQuads,
		"qm_query":               svc.Query,
		"qm_update":              svc.Update,
	}
}

// runMCPServer starts the quadmind MCP server on stdin/stdout.
func runMCPServer(configPath string, globals GlobalFlags) {
	cfg := loadConfigOrDefault(configPath)
	logger := newLogger(cfg, globals)

	reg := newRegistry(cfg, logger)
	defer reg.CloseAll()

	server := &mcpServer{
		service:   tools.NewService(reg, logger),
		storePath: cfg.Store.Path,
	}

	fmt.Fprintf(os.Stderr, "quadmind MCP server v%s starting...\n", mcpVersion)
	fmt.Fprintf(os.Stderr, "  Registry: %s\n", cfg.Registry.File)
	if cfg.Store.Path != "" {
		fmt.Fprintf(os.Stderr, "  Store: %s\n", cfg.Store.Path)
	}

	if err := server.serve(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: stdin read error: %v\n", err)
		os.Exit(ExitGeneral)
	}
}

// serve runs the JSON-RPC read loop, reading requests from r and writing responses to w.
func (s *mcpServer) serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var req jsonRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: invalid JSON-RPC request: %v\n", err)
			continue
		}

		ctx := context.Background()
		resp := s.handleRequest(ctx, req)

		if resp.ID == nil && resp.Result == nil && resp.Error == nil {
			continue
		}

		respBytes, err := json.Marshal(resp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot encode response: %v\n", err)
			continue
		}

		_, _ = fmt.Fprintf(w, "%s\n", respBytes)
	}

	return scanner.Err()
}

// handleRequest dispatches a JSON-RPC request to the appropriate handler.
func (s *mcpServer) handleRequest(ctx context.Context, req jsonRPCRequest) jsonRPCResponse {
	switch req.Method {
	case "initialize":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpInitializeResult{
				ProtocolVersion: "2024-11-05",
				Capabilities: mcpCapabilities{
					Tools: map[string]any{"listChanged": true},
				},
				ServerInfo: mcpServerInfo{
					Name:    mcpServerName,
					Version: mcpVersion,
				},
			},
		}

	case "notifications/initialized":
		return jsonRPCResponse{}

	case "tools/list":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpToolsListResult{
				Tools: s.getTools(),
			},
		}

	case "tools/call":
		var params mcpToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error: &rpcError{
					Code:    -32602,
					Message: "Invalid params",
					Data:    err.Error(),
				},
			}
		}

		result, err := s.handleToolCall(ctx, params)
		if err != nil {
			return jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error: &rpcError{
					Code:    -32603,
					Message: "Internal error",
					Data:    err.Error(),
				},
			}
		}

		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  result,
		}

	default:
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &rpcError{
				Code:    -32601,
				Message: "Method not found",
				Data:    req.Method,
			},
		}
	}
}

// handleToolCall dispatches a tool call to the registered handler.
func (s *mcpServer) handleToolCall(ctx context.Context, params mcpToolCallParams) (*mcpToolResult, error) {
	handler, ok := s.handlers()[params.Name]
	if !ok {
		return &mcpToolResult{
			Content: []mcpContent{{Type: "text", Text: fmt.Sprintf("Unknown tool: %s", params.Name)}},
			IsError: true,
		}, nil
	}

	args := params.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if s.storePath != "" {
		if _, ok := args["store"]; !ok {
			args["store"] = s.storePath
		}
	}

	result, err := handler(ctx, args)
	if err != nil {
		return &mcpToolResult{
			Content: []mcpContent{{Type: "text", Text: fmt.Sprintf("Error in %s: %v", params.Name, err)}},
			IsError: true,
		}, nil
	}

	return &mcpToolResult{
		Content: []mcpContent{{Type: "text", Text: result.Text}},
		IsError: result.IsError,
	}, nil
}

// Shared schema fragments.

func storeProp() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Store path to operate on. Omit for the active default store.",
	}
}

func termSchema(desc string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": desc,
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []string{"named_node", "blank_node", "literal"},
			},
			"value":    map[string]any{"type": "string"},
			"datatype": map[string]any{"type": "string", "description": "Datatype IRI (literals only)"},
			"language": map[string]any{"type": "string", "description": "Language tag (literals only)"},
		},
		"required": []string{"type", "value"},
	}
}

// getTools returns the list of all quadmind MCP tool definitions.
func (s *mcpServer) getTools() []mcpTool {
	return []mcpTool{
		{
			Name:        "qm_create_store",
			Description: "Create a new graph store at the given path and track it. The first store created becomes the default.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string", "description": "Filesystem path for the new store, or ':memory:' for an ephemeral one"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "qm_open_store",
			Description: "Track an existing store file, optionally read-only.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":      map[string]any{"type": "string", "description": "Path to an existing store file"},
					"read_only": map[string]any{"type": "boolean", "default": false},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "qm_close_store",
			Description: "Release a tracked store. If it was the default, another tracked store becomes the default.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "qm_backup_store",
			Description: "Write a consistent copy of a tracked store to a destination file.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path":        map[string]any{"type": "string", "description": "Tracked store to back up"},
					"destination": map[string]any{"type": "string", "description": "Backup file to create"},
				},
				"required": []string{"path", "destination"},
			},
		},
		{
			Name:        "qm_restore_store",
			Description: "Copy a backup file into a new tracked store.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"source":      map[string]any{"type": "string", "description": "Backup file to restore from"},
					"destination": map[string]any{"type": "string", "description": "Path for the restored store"},
				},
				"required": []string{"source", "destination"},
			},
		},
		{
			Name:        "qm_optimize_store",
			Description: "Run engine maintenance (statistics refresh and compaction) on a tracked store.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "qm_list_stores",
			Description: "List all tracked stores and mark the active default.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name:        "qm_set_default_store",
			Description: "Make a tracked store the active default for operations without an explicit store.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{"type": "string"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "qm_create_entities",
			Description: "Create entities in the knowledge graph. Each entity has a name, a type, and optional observations. Records missing name or type are skipped.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"entities": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"name":       map[string]any{"type": "string"},
								"entityType": map[string]any{"type": "string"},
								"observations": map[string]any{
									"type":  "array",
									"items": map[string]any{"type": "string"},
								},
							},
							"required": []string{"name", "entityType"},
						},
					},
					"store": storeProp(),
				},
				"required": []string{"entities"},
			},
		},
		{
			Name:        "qm_create_relations",
			Description: "Create typed, directed relations between entities identified by name.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"relations": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"from":         map[string]any{"type": "string"},
								"relationType": map[string]any{"type": "string"},
								"to":           map[string]any{"type": "string"},
							},
							"required": []string{"from", "relationType", "to"},
						},
					},
					"store": storeProp(),
				},
				"required": []string{"relations"},
			},
		},
		{
			Name:        "qm_add_observations",
			Description: "Append free-text observations to an existing entity.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"entityName": map[string]any{"type": "string"},
					"contents": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"store": storeProp(),
				},
				"required": []string{"entityName", "contents"},
			},
		},
		{
			Name:        "qm_delete_entities",
			Description: "Delete entities and every quad referencing them, including their observations.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"entityNames": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"store": storeProp(),
				},
				"required": []string{"entityNames"},
			},
		},
		{
			Name:        "qm_delete_observations",
			Description: "Delete specific observations from entities by exact content match. Each match removes exactly one observation.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"deletions": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"entityName": map[string]any{"type": "string"},
								"observations": map[string]any{
									"type":  "array",
									"items": map[string]any{"type": "string"},
								},
							},
							"required": []string{"entityName", "observations"},
						},
					},
					"store": storeProp(),
				},
				"required": []string{"deletions"},
			},
		},
		{
			Name:        "qm_delete_relations",
			Description: "Delete exact relation edges. Missing edges are ignored.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"relations": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"from":         map[string]any{"type": "string"},
								"relationType": map[string]any{"type": "string"},
								"to":           map[string]any{"type": "string"},
							},
							"required": []string{"from", "relationType", "to"},
						},
					},
					"store": storeProp(),
				},
				"required": []string{"relations"},
			},
		},
		{
			Name:        "qm_read_graph",
			Description: "Read the entire knowledge graph: all entities with their observations, and all relations.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"store": storeProp(),
				},
				"required": []string{},
			},
		},
		{
			Name:        "qm_search_nodes",
			Description: "Search entities by case-insensitive substring against names and observation contents. Returns matches plus relations between them.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"store": storeProp(),
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "qm_open_nodes",
			Description: "Look up entities by exact name. Unknown names are silently dropped.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"names": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"store": storeProp(),
				},
				"required": []string{"names"},
			},
		},
		{
			Name:        "qm_add_quad",
			Description: "Add one raw RDF quad to the store's default graph.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"subject":   termSchema("Subject term"),
					"predicate": termSchema("Predicate term"),
					"object":    termSchema("Object term"),
					"store":     storeProp(),
				},
				"required": []string{"subject", "predicate", "object"},
			},
		},
		{
			Name:        "qm_remove_quad",
			Description: "Remove one raw RDF quad from the store's default graph.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"subject":   termSchema("Subject term"),
					"predicate": termSchema("Predicate term"),
					"object":    termSchema("Object term"),
					"store":     storeProp(),
				},
				"required": []string{"subject", "predicate", "object"},
			},
		},
		{
			Name:        "qm_match_quads",
			Description: "Return quads matching a pattern. Omitted terms are wildcards.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"subject":   termSchema("Subject term (optional)"),
					"predicate": termSchema("Predicate term (optional)"),
					"object":    termSchema("Object term (optional)"),
					"store":     storeProp(),
				},
				"required": []string{},
			},
		},
		{
			Name:        "qm_query",
			Description: "Forward a raw SPARQL query to the store engine. Built-in engines have no SPARQL evaluator and report an error.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"store": storeProp(),
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "qm_update",
			Description: "Forward a raw SPARQL update to the store engine. Built-in engines have no SPARQL evaluator and report an error.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"update": map[string]any{"type": "string"},
					"store":  storeProp(),
				},
				"required": []string{"update"},
			},
		},
	}
}
