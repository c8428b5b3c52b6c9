package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpmcp "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/time/rate"

	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
	projectsvc "github.com/ons3/Pfe-Project-Final/internal/service/project"
)

// RegisterTools registers all MCP tools on the server.
func RegisterTools(s *mcpserver.MCPServer, projectSvc *projectsvc.Service, limiter *rate.Limiter) {
	s.AddTool(mcpmcp.NewTool("list_projects",
		mcpmcp.WithDescription("List every project with its teams. Served from the cache when the policy allows it."),
		mcpmcp.WithString("policy",
			mcpmcp.Description("Cache policy. Defaults to the server's configured policy."),
			mcpmcp.Enum(
				string(fetch.PolicyCacheFirst),
				string(fetch.PolicyNetworkOnly),
				string(fetch.PolicyCacheAndNetwork),
				string(fetch.PolicyCacheOnly),
			),
		),
	), listProjectsHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("get_project",
		mcpmcp.WithDescription("Returns one cached project with its teams. Call list_projects first if the cache is empty."),
		mcpmcp.WithString("project_id", mcpmcp.Required(), mcpmcp.Description("Project ID")),
	), getProjectHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("get_team",
		mcpmcp.WithDescription("Returns one cached team."),
		mcpmcp.WithString("team_id", mcpmcp.Required(), mcpmcp.Description("Team ID")),
	), getTeamHandler(projectSvc))

	s.AddTool(mcpmcp.NewTool("refetch_projects",
		mcpmcp.WithDescription("Fetch the project list from the data source now and refresh the cache."),
	), refetchProjectsHandler(projectSvc, limiter))
}

// ── Tool handlers ─────────────────────────────────────────────────────────

type listResult struct {
	State     fetch.State             `json:"state"`
	FromCache bool                    `json:"from_cache"`
	Projects  []domainproject.Project `json:"projects"`
}

func listProjectsHandler(projectSvc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		var policy fetch.Policy
		if raw := mcpmcp.ParseString(req, "policy", ""); raw != "" {
			p, err := fetch.ParsePolicy(raw)
			if err != nil {
				return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
			}
			policy = p
		}
		return awaitHandle(ctx, projectSvc.FetchProjects(ctx, policy))
	}
}

func refetchProjectsHandler(projectSvc *projectsvc.Service, limiter *rate.Limiter) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, _ mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		if limiter != nil && !limiter.Allow() {
			return mcpmcp.NewToolResultText("error: refetch rate limit exceeded, try again shortly"), nil
		}
		return awaitHandle(ctx, projectSvc.Refetch(ctx))
	}
}

func getProjectHandler(projectSvc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := mcpmcp.ParseString(req, "project_id", "")
		if id == "" {
			return mcpmcp.NewToolResultText("error: project_id is required"), nil
		}
		p, err := projectSvc.Project(ctx, id)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		return jsonResult(p)
	}
}

func getTeamHandler(projectSvc *projectsvc.Service) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcpmcp.CallToolRequest) (*mcpmcp.CallToolResult, error) {
		id := mcpmcp.ParseString(req, "team_id", "")
		if id == "" {
			return mcpmcp.NewToolResultText("error: team_id is required"), nil
		}
		t, err := projectSvc.Team(ctx, id)
		if err != nil {
			return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
		}
		return jsonResult(t)
	}
}

func awaitHandle(ctx context.Context, h *projectsvc.Handle) (*mcpmcp.CallToolResult, error) {
	snap, err := h.Wait(ctx)
	if err != nil {
		h.Cancel()
		return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", err)), nil
	}
	if snap.State == fetch.StateError {
		return mcpmcp.NewToolResultText(fmt.Sprintf("error: %s", snap.Err)), nil
	}
	return jsonResult(listResult{State: snap.State, FromCache: snap.FromCache, Projects: snap.Projects})
}

func jsonResult(v any) (*mcpmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcpmcp.NewToolResultText(string(data)), nil
}
