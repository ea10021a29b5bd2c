package metatools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"gatemini/internal/registry"
)

// serverTools returns the seven meta-tools as mcp-go server.ServerTool
// registrations (spec.md §4.7), using the mcp.NewTool builder-option syntax
// and returning results via mcp.NewToolResultText/mcp.NewToolResultError.
func (p *Provider) serverTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("search_tools",
				mcp.WithDescription("Search for tools across every connected backend by task description"),
				mcp.WithString("task_description",
					mcp.Required(),
					mcp.Description("Short description of the task you want a tool for"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of results (default 10, max 50)"),
				),
				mcp.WithBoolean("brief",
					mcp.Description("Return abbreviated results (default true)"),
				),
				mcp.WithString("mode",
					mcp.Description(`"auto" (default; fuses semantic search when available) or "bm25_only"`),
				),
			),
			Handler: p.handleSearchTools,
		},
		{
			Tool: mcp.NewTool("list_tools_meta",
				mcp.WithDescription("Page through every known tool, ordered by usage then name"),
				mcp.WithString("cursor",
					mcp.Description("Opaque cursor from a previous call's next_cursor"),
				),
				mcp.WithNumber("page_size",
					mcp.Description("Page size (default 50)"),
				),
			),
			Handler: p.handleListToolsMeta,
		},
		{
			Tool: mcp.NewTool("tool_info",
				mcp.WithDescription("Get information about one tool by name"),
				mcp.WithString("tool_name",
					mcp.Required(),
					mcp.Description("Fully-qualified (backend.tool) or unambiguous bare tool name"),
				),
				mcp.WithString("detail",
					mcp.Description(`"brief" (default) or "full"`),
				),
			),
			Handler: p.handleToolInfo,
		},
		{
			Tool: mcp.NewTool("get_required_keys_for_tool",
				mcp.WithDescription("List the environment keys a tool's backend declares as required"),
				mcp.WithString("tool_name",
					mcp.Required(),
					mcp.Description("Fully-qualified (backend.tool) or unambiguous bare tool name"),
				),
			),
			Handler: p.handleRequiredKeysForTool,
		},
		{
			Tool: mcp.NewTool("call_tool_chain",
				mcp.WithDescription("Execute one or more tool calls expressed as JSON, a single call expression, or a short script"),
				mcp.WithString("code",
					mcp.Required(),
					mcp.Description(`Either {"tool":"backend.tool","arguments":{...}}, a "backend.tool({...})" expression, or a JS snippet calling backend tools`),
				),
			),
			Handler: p.handleCallToolChain,
		},
		{
			Tool: mcp.NewTool("register_manual",
				mcp.WithDescription("Register a new backend at runtime from a config fragment"),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Name for the new backend"),
				),
				mcp.WithObject("config",
					mcp.Description("Backend config fragment (transport, command/url, args, env, timeout, required_keys, ...)"),
				),
			),
			Handler: p.handleRegisterManual,
		},
		{
			Tool: mcp.NewTool("deregister_manual",
				mcp.WithDescription("Remove a runtime-registered backend"),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Name of the backend to remove"),
				),
			),
			Handler: p.handleDeregisterManual,
		},
	}
}

func (p *Provider) handleSearchTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(req.Params.Arguments)
	task := argString(args, "task_description")
	if task == "" {
		return mcp.NewToolResultError("task_description is required"), nil
	}
	mode := registry.ModeAuto
	if argString(args, "mode") == "bm25_only" {
		mode = registry.ModeBM25Only
	}
	result := p.searchTools(task, argInt(args, "limit", 0), argBool(args, "brief", true), mode)
	return jsonResult(result)
}

func (p *Provider) handleListToolsMeta(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(req.Params.Arguments)
	result := p.listToolsMeta(argString(args, "cursor"), argInt(args, "page_size", 0))
	return jsonResult(result)
}

func (p *Provider) handleToolInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(req.Params.Arguments)
	toolName := argString(args, "tool_name")
	if toolName == "" {
		return mcp.NewToolResultError("tool_name is required"), nil
	}
	detail := argString(args, "detail")
	if detail == "" {
		detail = "brief"
	}
	result, err := p.toolInfo(toolName, detail)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tool_info: %v", err)), nil
	}
	return jsonResult(result)
}

func (p *Provider) handleRequiredKeysForTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(req.Params.Arguments)
	toolName := argString(args, "tool_name")
	if toolName == "" {
		return mcp.NewToolResultError("tool_name is required"), nil
	}
	result, err := p.requiredKeysForTool(toolName)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get_required_keys_for_tool: %v", err)), nil
	}
	return jsonResult(result)
}

func (p *Provider) handleCallToolChain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(req.Params.Arguments)
	code := argString(args, "code")
	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}
	output, err := p.callToolChain(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("call_tool_chain: %v", err)), nil
	}
	return mcp.NewToolResultText(output), nil
}

func (p *Provider) handleRegisterManual(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(req.Params.Arguments)
	if argString(args, "name") == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	fragment := argObject(args, "config")
	if fragment == nil {
		fragment = map[string]any{}
	}
	fragment["name"] = argString(args, "name")
	return jsonResult(p.registerManual(ctx, fragment))
}

func (p *Provider) handleDeregisterManual(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := requestArgs(req.Params.Arguments)
	name := argString(args, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	return jsonResult(p.deregisterManual(ctx, name))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
