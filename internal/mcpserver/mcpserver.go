// Package mcpserver exposes the repair engine as an MCP tool server,
// publishing run_code and repair_code tools that any MCP-capable client can
// drive over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/controller"
)

// RunCodeInput is the run_code tool's argument schema.
type RunCodeInput struct {
	Source         string `json:"source" jsonschema:"the Go source file to execute"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"sandbox timeout in seconds, default 10"`
}

// RunCodeOutput is what run_code returns.
type RunCodeOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// RepairCodeInput is the repair_code tool's argument schema.
type RepairCodeInput struct {
	Source        string `json:"source" jsonschema:"the broken Go source file"`
	UserPrompt    string `json:"user_prompt,omitempty" jsonschema:"optional natural-language fix instructions"`
	MaxIterations int    `json:"max_iterations,omitempty" jsonschema:"iteration budget, default 5"`
}

// RepairCodeOutput is what repair_code returns.
type RepairCodeOutput struct {
	FinalStatus string `json:"final_status"`
	FinalSource string `json:"final_source"`
	Iterations  int    `json:"iterations"`
}

// Server wraps a Controller as an MCP tool server.
type Server struct {
	mcp        *mcp.Server
	controller *controller.Controller
	logger     *logrus.Logger
}

// New builds an MCP server exposing run_code and repair_code, backed by c.
func New(c *controller.Controller, exec autofix.Executor, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	impl := &mcp.Implementation{Name: "autofix-engine", Version: "v1.0.0"}
	srv := mcp.NewServer(impl, nil)

	s := &Server{mcp: srv, controller: c, logger: logger}
	s.registerRunCode(exec)
	s.registerRepairCode()
	return s
}

func (s *Server) registerRunCode(exec autofix.Executor) {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "run_code",
		Description: "Execute a Go source file in the sandbox and return its stdout/stderr.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in RunCodeInput) (*mcp.CallToolResult, RunCodeOutput, error) {
		out, err := runCode(ctx, exec, in)
		return nil, out, err
	})
}

func (s *Server) registerRepairCode() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "repair_code",
		Description: "Run the iterative repair loop against a broken Go source file and return the final result.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in RepairCodeInput) (*mcp.CallToolResult, RepairCodeOutput, error) {
		return nil, repairCode(ctx, s.controller, in), nil
	})
}

// runCode is the run_code tool body, split out from registerRunCode so it
// can be exercised directly in tests without going through the MCP wire
// protocol.
func runCode(ctx context.Context, exec autofix.Executor, in RunCodeInput) (RunCodeOutput, error) {
	timeout := 10 * time.Second
	if in.TimeoutSeconds > 0 {
		timeout = time.Duration(in.TimeoutSeconds) * time.Second
	}
	stdout, stderr, err := exec.Run(ctx, autofix.Source(in.Source), "go", timeout)
	if err != nil {
		return RunCodeOutput{}, fmt.Errorf("run_code: %w", err)
	}
	return RunCodeOutput{Stdout: stdout, Stderr: stderr}, nil
}

// repairCode is the repair_code tool body, split out for the same reason.
func repairCode(ctx context.Context, c *controller.Controller, in RepairCodeInput) RepairCodeOutput {
	maxIterations := in.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}
	result := c.Run(ctx, autofix.Source(in.Source), in.UserPrompt, maxIterations)
	return RepairCodeOutput{
		FinalStatus: result.FinalStatus,
		FinalSource: string(result.FinalSource),
		Iterations:  result.Report.TotalIterations,
	}
}

// Serve runs the server over stdio until the transport closes or ctx is
// cancelled, mirroring mcp_client.go's CommandTransport idiom from the other
// side of the pipe.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
