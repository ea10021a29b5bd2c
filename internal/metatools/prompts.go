package metatools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"gatemini/internal/registry"
)

// serverPrompts returns the three prompts spec.md §4.7 names.
func (p *Provider) serverPrompts() []server.ServerPrompt {
	return []server.ServerPrompt{
		{
			Prompt: mcp.Prompt{
				Name:        "discover",
				Description: "Scripted guidance for how to find and use tools through the meta-tool surface.",
			},
			Handler: p.handleDiscoverPrompt,
		},
		{
			Prompt: mcp.Prompt{
				Name:        "find_tool",
				Description: "Search for a tool matching a task and show its full schema.",
				Arguments: []mcp.PromptArgument{
					{Name: "task", Description: "What you're trying to do", Required: true},
				},
			},
			Handler: p.handleFindToolPrompt,
		},
		{
			Prompt: mcp.Prompt{
				Name:        "backend_status",
				Description: "Render a health table of every configured and dynamically registered backend.",
			},
			Handler: p.handleBackendStatusPrompt,
		},
	}
}

func (p *Provider) handleDiscoverPrompt(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Progressive-disclosure discovery workflow",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(discoveryGuidance)},
		},
	}, nil
}

func (p *Provider) handleFindToolPrompt(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := req.Params.Arguments["task"]
	if task == "" {
		return nil, fmt.Errorf("find_tool: task argument is required")
	}

	results := p.registry.Search(task, 1, registry.ModeAuto)
	if len(results) == 0 {
		return &mcp.GetPromptResult{
			Messages: []mcp.PromptMessage{
				{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(fmt.Sprintf("No tool found for %q.", task))},
			},
		}, nil
	}

	top := results[0].Tool
	full, err := p.toolInfo(top.FQN(), "full")
	if err != nil {
		return nil, fmt.Errorf("find_tool: %w", err)
	}
	schema, err := json.Marshal(full)
	if err != nil {
		return nil, fmt.Errorf("find_tool: %w", err)
	}
	text := string(schema)

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Top match for %q", task),
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(fmt.Sprintf("Best match: %s (%s)\n\n%s", top.Name, top.Backend, text))},
		},
	}, nil
}

func (p *Provider) handleBackendStatusPrompt(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	statuses := p.engine.ListBackends()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	t := table.NewWriter()
	var rendered strings.Builder
	t.SetOutputMirror(&rendered)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"BACKEND", "TRANSPORT", "STATE", "DYNAMIC"})
	for _, s := range statuses {
		t.AppendRow(table.Row{s.Name, string(s.Transport), s.State.String(), s.IsDynamic})
	}
	t.Render()

	return &mcp.GetPromptResult{
		Description: "Backend health table",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(rendered.String())},
		},
	}, nil
}
