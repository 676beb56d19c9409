package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for reinfect resources.
	uriScheme = "reinfect://"

	defaultHistoryLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "Evidence index statistics",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Most recent literature questions and answers",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "history/{limit}",
		Name:        "history-limit",
		Description: "The given number of most recent questions and answers",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleIndexResource returns evidence index statistics.
func (s *Server) handleIndexResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type indexInfo struct {
		Abstracts int    `json:"abstracts"`
		Chunks    int    `json:"chunks"`
		Embedded  int    `json:"embedded"`
		BuiltAt   string `json:"built_at,omitempty"`
		Ready     bool   `json:"ready"`
	}

	var info indexInfo
	if s.ports.Index != nil {
		stats, err := s.ports.Index.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading index stats: %w", err)
		}
		info = indexInfo{
			Abstracts: stats.Abstracts,
			Chunks:    stats.Chunks,
			Embedded:  stats.Embedded,
			Ready:     stats.Ready(),
		}
		if !stats.BuiltAt.IsZero() {
			info.BuiltAt = stats.BuiltAt.UTC().Format("2006-01-02T15:04:05Z")
		}
	}

	return jsonResource(req.Params.URI, info)
}

// handleHistoryResource returns recent question/answer entries.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	limit, ok := extractHistoryLimit(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entries := []domain.QnALogEntry{}
	if s.ports.History != nil {
		recent, err := s.ports.History.Recent(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		entries = append(entries, recent...)
	}

	return jsonResource(req.Params.URI, entries)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractHistoryLimit reads the limit from reinfect://history or
// reinfect://history/{limit}.
func extractHistoryLimit(uri string) (int, bool) {
	const base = uriScheme + "history"

	if uri == base {
		return defaultHistoryLimit, true
	}

	raw, ok := strings.CutPrefix(uri, base+"/")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
