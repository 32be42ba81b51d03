// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the engine as MCP tools.
package tool

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/notariaproj/notaria-mcp/internal/engine"
)

// ServerName is announced to MCP clients.
const ServerName = "notaria-mcp"

// Tools holds the handlers. Every handler is safe for concurrent calls.
type Tools struct {
	engine *engine.Engine
	logger *zap.Logger
}

// New creates the tool handlers over e. A nil logger discards output.
func New(e *engine.Engine, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{engine: e, logger: logger}
}

// NewServer registers every tool on a new MCP server.
func NewServer(e *engine.Engine, logger *zap.Logger, version string) *mcp.Server {
	t := New(e, logger)
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	mcp.AddTool(server, MetadataListDocumentTypes, t.ListDocumentTypes)
	mcp.AddTool(server, MetadataClassifyTemplate, t.ClassifyTemplate)
	mcp.AddTool(server, MetadataMapPlaceholders, t.MapPlaceholders)
	mcp.AddTool(server, MetadataValidateExtraction, t.ValidateExtraction)
	mcp.AddTool(server, MetadataEvaluateOperation, t.EvaluateOperation)
	return server
}

// observe logs one tool call once it returns.
func (t *Tools) observe(ctx context.Context, name string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("tool", name),
		zap.Duration("duration", time.Since(start)),
	}
	if ctx.Err() != nil {
		fields = append(fields, zap.NamedError("context", ctx.Err()))
	}
	if err != nil {
		t.logger.Warn("tool.call", append(fields, zap.Error(err))...)
		return
	}
	t.logger.Info("tool.call", fields...)
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func stringListProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": description,
	}
}
