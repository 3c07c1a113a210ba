// Package mcp exposes the diagnosis hub to assistants as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/medimaging-diagnosis-hub/internal/domain"
	"github.com/medimaging-diagnosis-hub/internal/middleware"
	"github.com/medimaging-diagnosis-hub/internal/service"
	"github.com/medimaging-diagnosis-hub/pkg/external"
)

// ToolObserver records tool invocations.
type ToolObserver interface {
	ObserveToolCall(tool string, err error)
}

// Server represents the diagnosis hub MCP server
type Server struct {
	mcpServer *mcp.Server
	service   *service.MedicalService
	observer  ToolObserver
	token     string
	userKey   string
	tools     []string
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance and registers every tool.
// observer may be nil.
func NewServer(configManager domain.ConfigManager, svc *service.MedicalService, observer ToolObserver, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	serverInfo := &mcp.Implementation{
		Name:    cfg.MCP.ServerName,
		Version: cfg.MCP.ServerVersion,
	}

	s := &Server{
		mcpServer: mcp.NewServer(serverInfo, nil),
		service:   svc,
		observer:  observer,
		token:     cfg.Backend.Token,
		logger:    logger,
	}
	if s.token != "" {
		s.userKey = middleware.NewUserKeys(cfg.Auth).FromToken(s.token)
	}

	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"tools":         len(s.tools),
		"authenticated": s.token != "",
	}).Info("Starting MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Tools lists the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// withCaller attaches the configured backend token so per-user caches and
// the remote clients see the same identity as an HTTP caller would.
func (s *Server) withCaller(ctx context.Context) context.Context {
	if s.token == "" {
		return ctx
	}
	ctx = external.WithBearerToken(ctx, s.token)
	return domain.WithUserKey(ctx, s.userKey)
}
