package metatools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const resourceMIMEJSON = "application/json"

// serverResources returns the three fixed, read-only resources (overview,
// backend list, all-tools index); serverResourceTemplates supplies the
// per-tool, per-backend, and name-completion templates. Construction follows a richer resource/resource-template
// pattern than a bare mcp.Resource{} literal, using mcp.NewResource's
// option builder for MIME type and description.
func (p *Provider) serverResources() []server.ServerResource {
	return []server.ServerResource{
		{
			Resource: mcp.NewResource(
				"gatemini://overview",
				"Gatemini Overview",
				mcp.WithMIMEType(resourceMIMEJSON),
				mcp.WithResourceDescription(firstSentence(discoveryGuidance, resourceSummaryMaxLen)),
			),
			Handler: p.handleOverviewResource,
		},
		{
			Resource: mcp.NewResource(
				"gatemini://backends",
				"Backend List",
				mcp.WithMIMEType(resourceMIMEJSON),
				mcp.WithResourceDescription("Every configured and dynamically registered backend with its current state."),
			),
			Handler: p.handleBackendListResource,
		},
		{
			Resource: mcp.NewResource(
				"gatemini://tools",
				"All-Tools Index",
				mcp.WithMIMEType(resourceMIMEJSON),
				mcp.WithResourceDescription("Compact name/backend/first-sentence index of every indexed tool."),
			),
			Handler: p.handleAllToolsIndexResource,
		},
	}
}

// resourceTemplateReg pairs a resource template with its handler. mcp-go's
// MCPServer.AddResourceTemplate takes these individually (unlike
// AddResources' batch form), so provider.go registers each one in a loop.
type resourceTemplateReg struct {
	Template mcp.ResourceTemplate
	Handler  func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)
}

// serverResourceTemplates returns the per-tool, per-backend, and
// prefix-completion templates.
func (p *Provider) serverResourceTemplates() []resourceTemplateReg {
	return []resourceTemplateReg{
		{
			Template: mcp.NewResourceTemplate(
				"gatemini://tools/{fqn}",
				"Tool Full Schema",
				mcp.WithTemplateMIMEType(resourceMIMEJSON),
				mcp.WithTemplateDescription("Full description and input schema for one tool, addressed by its backend.tool name."),
			),
			Handler: p.handleToolSchemaResource,
		},
		{
			Template: mcp.NewResourceTemplate(
				"gatemini://backends/{name}",
				"Backend Detail",
				mcp.WithTemplateMIMEType(resourceMIMEJSON),
				mcp.WithTemplateDescription("Transport, state, and dynamic/static status for one backend."),
			),
			Handler: p.handleBackendDetailResource,
		},
		{
			Template: mcp.NewResourceTemplate(
				"gatemini://backends/{name}/tools",
				"Backend Tool List",
				mcp.WithTemplateMIMEType(resourceMIMEJSON),
				mcp.WithTemplateDescription("Every tool currently attributed to one backend."),
			),
			Handler: p.handleBackendToolListResource,
		},
		{
			// spec.md §4.7 calls for "prefix-completion over tool and
			// backend names" as a resource-level concern; no mcp-go
			// protocol-level completion API (CompleteRequest / WithCompletion
			// / a completion capability) appears anywhere in the corpus, so
			// this is expressed as an ordinary queryable resource template
			// rather than a speculative protocol extension (see DESIGN.md).
			Template: mcp.NewResourceTemplate(
				"gatemini://complete{?prefix}",
				"Name Completion",
				mcp.WithTemplateMIMEType(resourceMIMEJSON),
				mcp.WithTemplateDescription("Tool and backend names starting with prefix."),
			),
			Handler: p.handleCompletionResource,
		},
	}
}

func (p *Provider) handleOverviewResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload := map[string]any{
		"name":        "gatemini",
		"tool_count":  p.registry.Len(),
		"backend_count": len(p.engine.ListBackends()),
		"guidance":    discoveryGuidance,
	}
	return jsonResourceContents(request.Params.URI, payload)
}

func (p *Provider) handleBackendListResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	statuses := p.engine.ListBackends()
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	type backendEntry struct {
		Name      string `json:"name"`
		Transport string `json:"transport"`
		State     string `json:"state"`
		IsDynamic bool   `json:"is_dynamic"`
	}
	out := make([]backendEntry, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, backendEntry{
			Name:      s.Name,
			Transport: string(s.Transport),
			State:     s.State.String(),
			IsDynamic: s.IsDynamic,
		})
	}
	return jsonResourceContents(request.Params.URI, out)
}

func (p *Provider) handleAllToolsIndexResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all := p.registry.All()
	sort.Slice(all, func(i, j int) bool { return all[i].FQN() < all[j].FQN() })

	type indexEntry struct {
		Name        string `json:"name"`
		Backend     string `json:"backend"`
		Description string `json:"description"`
	}
	out := make([]indexEntry, 0, len(all))
	for _, t := range all {
		out = append(out, indexEntry{
			Name:        t.Name,
			Backend:     t.Backend,
			Description: firstSentence(t.Description, resourceSummaryMaxLen),
		})
	}
	return jsonResourceContents(request.Params.URI, out)
}

func (p *Provider) handleToolSchemaResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	fqn := templateArg(request, "fqn")
	t, err := p.registry.Get(fqn)
	if err != nil {
		return nil, fmt.Errorf("tool schema resource: %w", err)
	}
	return jsonResourceContents(request.Params.URI, toolInfoFull{
		Name:        t.Name,
		Backend:     t.Backend,
		Description: t.Description,
		InputSchema: t.InputSchema,
	})
}

func (p *Provider) handleBackendDetailResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := templateArg(request, "name")
	for _, s := range p.engine.ListBackends() {
		if s.Name != name {
			continue
		}
		return jsonResourceContents(request.Params.URI, map[string]any{
			"name":       s.Name,
			"transport":  string(s.Transport),
			"state":      s.State.String(),
			"is_dynamic": s.IsDynamic,
		})
	}
	return nil, fmt.Errorf("backend detail resource: backend %q not found", name)
}

func (p *Provider) handleBackendToolListResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := templateArg(request, "name")
	all := p.registry.All()
	out := make([]string, 0)
	for _, t := range all {
		if t.Backend == name {
			out = append(out, t.Name)
		}
	}
	sort.Strings(out)
	return jsonResourceContents(request.Params.URI, map[string]any{"backend": name, "tools": out})
}

func (p *Provider) handleCompletionResource(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	prefix := templateArg(request, "prefix")

	var tools, backends []string
	for _, t := range p.registry.All() {
		if strings.HasPrefix(t.Name, prefix) {
			tools = append(tools, t.Name)
		}
	}
	for _, s := range p.engine.ListBackends() {
		if strings.HasPrefix(s.Name, prefix) {
			backends = append(backends, s.Name)
		}
	}
	sort.Strings(tools)
	sort.Strings(backends)
	return jsonResourceContents(request.Params.URI, map[string]any{"tools": tools, "backends": backends})
}

// templateArg reads a resource-template variable out of the request's
// argument map, following browserNerd/mcp-server's argString pattern.
func templateArg(request mcp.ReadResourceRequest, key string) string {
	if request.Params.Arguments == nil {
		return ""
	}
	v, ok := request.Params.Arguments[key]
	if !ok {
		return ""
	}
	switch value := v.(type) {
	case string:
		return value
	case []string:
		if len(value) == 0 {
			return ""
		}
		return value[0]
	default:
		return fmt.Sprintf("%v", value)
	}
}

func jsonResourceContents(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: resourceMIMEJSON,
			Text:     string(data),
		},
	}, nil
}
