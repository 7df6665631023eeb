package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

const protocolVersion = "2024-11-05"

func (s *MCPServer) handleMessage(ctx context.Context, msg *MCPMessage) {
	switch {
	case msg.IsRequest():
		s.handleRequest(ctx, msg)
	case msg.IsNotification():
		// Notifications (e.g. "initialized") require no response.
	default:
		s.logger.Debug("ignoring unrecognized message", map[string]interface{}{"method": msg.Method})
	}
}

func (s *MCPServer) handleRequest(ctx context.Context, msg *MCPMessage) {
	var result interface{}
	var err error

	switch msg.Method {
	case "initialize":
		result = s.handleInitialize()
	case "tools/list":
		result = s.handleToolsList()
	case "tools/call":
		result, err = s.handleToolsCall(ctx, msg.Params)
	case "resources/list":
		result = map[string]interface{}{"resources": []interface{}{}}
	case "resources/read":
		err = fmt.Errorf("no resources are exposed by this server")
	default:
		_ = s.writeError(msg.Id, MethodNotFound, fmt.Sprintf("unknown method %q", msg.Method))
		return
	}

	if err != nil {
		_ = s.writeError(msg.Id, InternalError, err.Error())
		return
	}
	_ = s.writeResult(msg.Id, result)
}

func (s *MCPServer) handleInitialize() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]interface{}{
			"name":    "ckb",
			"version": s.version,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
}

func (s *MCPServer) handleToolsList() map[string]interface{} {
	defs := toolDefinitions()
	return map[string]interface{}{"tools": defs}
}

type toolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (s *MCPServer) handleToolsCall(ctx context.Context, rawParams interface{}) (interface{}, error) {
	data, err := json.Marshal(rawParams)
	if err != nil {
		return nil, fmt.Errorf("invalid tools/call params: %w", err)
	}
	var params toolCallParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("invalid tools/call params: %w", err)
	}

	if _, ok := s.tools[params.Name]; !ok {
		return nil, fmt.Errorf("unknown tool %q", params.Name)
	}

	handler, ok := s.toolHandlers(ctx)[params.Name]
	if !ok {
		return nil, fmt.Errorf("tool %q has no handler", params.Name)
	}

	result, err := handler(params.Arguments)
	if err != nil {
		return map[string]interface{}{
			"isError": true,
			"content": []map[string]interface{}{
				{"type": "text", "text": err.Error()},
			},
		}, nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return map[string]interface{}{
		"isError": false,
		"content": []map[string]interface{}{
			{"type": "text", "text": string(payload)},
		},
	}, nil
}
