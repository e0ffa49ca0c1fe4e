package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ebaenamar/wikidata-mcp-mirror/internal/wikidata"
)

// Backend is the knowledge-base collaborator the dispatcher calls into.
// *wikidata.Client satisfies it; tests substitute deterministic stubs.
type Backend interface {
	SearchEntity(ctx context.Context, query string) (string, error)
	SearchProperty(ctx context.Context, query string) (string, error)
	EntityMetadata(ctx context.Context, entityID string) (wikidata.Metadata, error)
	EntityProperties(ctx context.Context, entityID string) (json.RawMessage, error)
	ExecuteSPARQL(ctx context.Context, query string) (json.RawMessage, error)
}

type Dispatcher struct {
	backend Backend
	logger  *slog.Logger
}

func NewDispatcher(backend Backend, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{backend: backend, logger: logger}
}

// Initialize answers the handshake with the server's capability description.
func (d *Dispatcher) Initialize(req *Request) *Response {
	return NewResult(req.ID, map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "Wikidata Knowledge",
			"version": "1.0.0",
		},
	})
}

var errUnknownMethod = errors.New("unknown method")

type invalidParamsError struct{ msg string }

func (e *invalidParamsError) Error() string { return e.msg }

// Dispatch routes one post-handshake message. Nil is returned for
// notifications, which never produce a response. Backend failures are
// embedded in the result payload; only protocol-level problems become
// JSON-RPC error responses.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	if req.Method == "notifications/initialized" {
		return nil
	}
	result, err := d.call(ctx, req)
	if err != nil {
		if req.IsNotification() {
			d.logger.Warn("dropping failed notification", "method", req.Method, "error", err)
			return nil
		}
		switch {
		case errors.Is(err, errUnknownMethod):
			return NewError(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
		case errors.As(err, new(*invalidParamsError)):
			return NewError(req.ID, CodeInvalidParams, err.Error())
		default:
			return NewError(req.ID, CodeInternalError, err.Error())
		}
	}
	if req.IsNotification() {
		return nil
	}
	return NewResult(req.ID, result)
}

func (d *Dispatcher) call(ctx context.Context, req *Request) (any, error) {
	switch req.Method {
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": toolCatalog}, nil
	case "tools/call":
		return d.callTool(ctx, req.Params)
	case "resources/list":
		return map[string]any{"resources": resourceCatalog}, nil
	case "resources/read":
		return d.readResource(req.Params)
	case "prompts/list":
		return map[string]any{"prompts": promptCatalog}, nil
	case "prompts/get":
		return d.getPrompt(req.Params)
	}

	args, err := decodeParams(req.Params)
	if err != nil {
		return nil, err
	}
	result, err := d.invokeOperation(ctx, req.Method, args)
	if errors.Is(err, errUnknownMethod) {
		return nil, errUnknownMethod
	}
	return result, err
}

// callTool unwraps an MCP tools/call envelope and re-wraps the operation
// result as a content block list.
func (d *Dispatcher) callTool(ctx context.Context, params json.RawMessage) (any, error) {
	var envelope struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &envelope); err != nil {
			return nil, &invalidParamsError{msg: "tools/call params must be an object"}
		}
	}
	if envelope.Name == "" {
		return nil, &invalidParamsError{msg: "tools/call requires a tool name"}
	}
	if envelope.Arguments == nil {
		envelope.Arguments = map[string]any{}
	}
	result, err := d.invokeOperation(ctx, envelope.Name, envelope.Arguments)
	if errors.Is(err, errUnknownMethod) {
		return nil, &invalidParamsError{msg: fmt.Sprintf("unknown tool: %s", envelope.Name)}
	}
	if err != nil {
		return nil, err
	}
	text, ok := result.(string)
	if !ok {
		encoded, merr := json.Marshal(result)
		if merr != nil {
			return nil, merr
		}
		text = string(encoded)
	}
	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	}, nil
}

// invokeOperation runs one backend-facing operation. Backend errors are
// converted to structured records in the returned value; the error return
// is reserved for bad arguments and unknown operations.
func (d *Dispatcher) invokeOperation(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search_entity", "search_wikidata_entity":
		query, err := stringArg(args, "query")
		if err != nil {
			return nil, err
		}
		id, serr := d.backend.SearchEntity(ctx, query)
		if errors.Is(serr, wikidata.ErrNoEntityFound) {
			return "No entity found", nil
		}
		if serr != nil {
			return fmt.Sprintf("Error searching for entity: %s", serr), nil
		}
		return id, nil

	case "search_property", "search_wikidata_property":
		query, err := stringArg(args, "query")
		if err != nil {
			return nil, err
		}
		id, serr := d.backend.SearchProperty(ctx, query)
		if errors.Is(serr, wikidata.ErrNoPropertyFound) {
			return "No property found", nil
		}
		if serr != nil {
			return fmt.Sprintf("Error searching for property: %s", serr), nil
		}
		return id, nil

	case "get_entity_metadata", "get_wikidata_metadata":
		entityID, err := stringArg(args, "entity_id")
		if err != nil {
			return nil, err
		}
		md, merr := d.backend.EntityMetadata(ctx, entityID)
		if merr != nil {
			return map[string]any{"error": fmt.Sprintf("Error retrieving entity metadata: %s", merr)}, nil
		}
		return md, nil

	case "get_entity_properties", "get_wikidata_properties":
		entityID, err := stringArg(args, "entity_id")
		if err != nil {
			return nil, err
		}
		rows, perr := d.backend.EntityProperties(ctx, entityID)
		if perr != nil {
			return sparqlErrorRecord(perr), nil
		}
		return rows, nil

	case "execute_sparql", "execute_wikidata_sparql":
		query, err := stringArg(args, "sparql_query", "query")
		if err != nil {
			return nil, err
		}
		rows, qerr := d.backend.ExecuteSPARQL(ctx, query)
		if qerr != nil {
			return sparqlErrorRecord(qerr), nil
		}
		return rows, nil

	case "find_entity_facts":
		return d.findEntityFacts(ctx, args)

	case "get_related_entities":
		return d.relatedEntities(ctx, args)
	}
	return nil, errUnknownMethod
}

// sparqlErrorRecord shapes a backend failure the way clients expect: the
// message up front, the query context behind it, and a hint.
func sparqlErrorRecord(err error) map[string]any {
	var qerr *wikidata.QueryError
	if errors.As(err, &qerr) {
		return map[string]any{
			"error":      qerr.Message,
			"details":    fmt.Sprintf("Error Type: %s\nQuery: %s", qerr.Kind, qerr.Query),
			"suggestion": "Try simplifying your query or check for syntax errors.",
		}
	}
	return map[string]any{"error": fmt.Sprintf("Error executing SPARQL query: %s", err)}
}

func decodeParams(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &invalidParamsError{msg: "params must be an object"}
	}
	return args, nil
}

// stringArg fetches a required string argument under any of the given keys.
func stringArg(args map[string]any, keys ...string) (string, error) {
	for _, key := range keys {
		if v, ok := args[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", &invalidParamsError{msg: fmt.Sprintf("missing required argument %q", keys[0])}
}

func optionalStringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
