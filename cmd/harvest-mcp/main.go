// Command harvest-mcp exposes the extraction engine as an MCP stdio tool
// so agent runtimes can call it without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/extract"
	"github.com/use-agent/harvest/models"
)

func main() {
	// Stdio transport owns stdout; logs must go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	cfg := config.Load()
	orchestrator := extract.NewOrchestrator(cfg)

	s := server.NewMCPServer("harvest", "0.1.0")

	fetchTool := mcp.NewTool("fetch_content",
		mcp.WithDescription("Fetch a URL and return its content as markdown. "+
			"Races HTTP, browser rendering, OCR, and document parsing, and returns the best-scoring result."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL to fetch"),
		),
		mcp.WithBoolean("raw",
			mcp.Description("Return the raw underlying payload instead of markdown"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Overall extraction budget in milliseconds (default 30000)"),
		),
	)

	s.AddTool(fetchTool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := req.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		opts := models.FetchOptions{
			Raw:     req.GetBool("raw", false),
			Timeout: time.Duration(req.GetInt("timeout_ms", 0)) * time.Millisecond,
		}

		content, err := orchestrator.FetchContent(ctx, url, opts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(content), nil
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "harvest-mcp: %v\n", err)
		os.Exit(1)
	}
}
