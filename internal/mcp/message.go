// Package mcp implements the JSON-RPC protocol surface of the bridge:
// message framing, the capability catalogs and method dispatch into the
// Wikidata backend.
package mcp

import (
	"encoding/json"
	"errors"
	"strings"
)

const ProtocolVersion = "2024-11-05"

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id and therefore
// must not produce a response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes, plus the MCP convention for calls made before the
// initialize handshake.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotInitialized = -32002
)

// ParseRequest decodes one protocol message. It only rejects payloads that
// are not protocol messages at all; semantic problems (wrong version,
// unknown method) are left for dispatch so they become correlated error
// responses rather than transport rejections.
func ParseRequest(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Method) == "" {
		return nil, errors.New("protocol message has no method")
	}
	return &req, nil
}

func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: "2.0", ID: normalizeID(id), Result: result}
}

func NewError(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: "2.0", ID: normalizeID(id), Error: &ErrorDetail{Code: code, Message: message}}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}
