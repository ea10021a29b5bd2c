package metatools

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"gopkg.in/yaml.v3"

	"gatemini/internal/backend"
	"gatemini/internal/config"
	"gatemini/internal/registry"
)

// searchTools implements search_tools (spec.md §4.7). brief selects which
// projection of each hit is returned; mode forces BM25-only search or lets
// the registry fuse in semantic search when an embedder is configured
// (spec.md §4.5 "search(query, limit, mode)").
func (p *Provider) searchTools(taskDescription string, limit int, brief bool, mode registry.SearchMode) any {
	if limit <= 0 {
		limit = p.defaultSearchLimit
	}
	if limit > p.maxSearchLimit {
		limit = p.maxSearchLimit
	}

	results := p.registry.Search(taskDescription, limit, mode)
	if brief {
		out := make([]searchToolsBriefItem, 0, len(results))
		for _, r := range results {
			out = append(out, searchToolsBriefItem{
				Name:        r.Tool.Name,
				Backend:     r.Tool.Backend,
				Description: firstSentence(r.Tool.Description, toolSummaryMaxLen),
				Score:       r.Score,
			})
		}
		return out
	}
	out := make([]searchToolsFullItem, 0, len(results))
	for _, r := range results {
		out = append(out, searchToolsFullItem{
			Name:        r.Tool.Name,
			Backend:     r.Tool.Backend,
			Description: r.Tool.Description,
			Score:       r.Score,
		})
	}
	return out
}

// listToolsMeta implements list_tools_meta, paging every indexed tool
// ordered by descending usage then ascending name (spec.md §4.7).
func (p *Provider) listToolsMeta(cursor string, pageSize int) listToolsMetaResult {
	all := p.registry.All()
	sort.Slice(all, func(i, j int) bool {
		fi, fj := all[i].FQN(), all[j].FQN()
		ui, uj := p.usage.get(fi), p.usage.get(fj)
		if ui != uj {
			return ui > uj
		}
		return fi < fj
	})

	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.FQN()
	}

	start := 0
	if cursor != "" {
		if decoded, err := decodeCursor(cursor); err == nil {
			for i, n := range names {
				if n == decoded {
					start = i + 1
					break
				}
			}
		}
	}

	if pageSize <= 0 {
		pageSize = p.defaultPageSize
	}
	if start > len(names) {
		start = len(names)
	}
	end := start + pageSize
	if end > len(names) {
		end = len(names)
	}

	page := names[start:end]
	result := listToolsMetaResult{Tools: page}
	if end < len(names) {
		result.NextCursor = encodeCursor(page[len(page)-1])
	}
	return result
}

// toolInfo implements tool_info for both detail levels.
func (p *Provider) toolInfo(toolName, detail string) (any, error) {
	t, err := p.registry.Get(toolName)
	if err != nil {
		return nil, err
	}
	if detail == "full" {
		return toolInfoFull{
			Name:        t.Name,
			Backend:     t.Backend,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}, nil
	}
	return toolInfoBrief{
		Name:          t.Name,
		Backend:       t.Backend,
		FirstSentence: firstSentence(t.Description, toolSummaryMaxLen),
		Parameters:    parameterNames(t.InputSchema),
	}, nil
}

// requiredKeysForTool implements get_required_keys_for_tool.
func (p *Provider) requiredKeysForTool(toolName string) (requiredKeysResult, error) {
	t, err := p.registry.Get(toolName)
	if err != nil {
		return requiredKeysResult{}, err
	}
	bc, ok := p.engine.BackendConfig(t.Backend)
	if !ok {
		return requiredKeysResult{Tool: t.Name, Backend: t.Backend}, nil
	}
	return requiredKeysResult{Tool: t.Name, Backend: t.Backend, RequiredKeys: bc.RequiredKeys}, nil
}

// callToolChain implements call_tool_chain by delegating to the sandbox
// dispatcher (spec.md §4.8) and feeding list_tools_meta's usage ordering
// with whatever tools the dispatch actually invoked.
func (p *Provider) callToolChain(ctx context.Context, code string) (string, error) {
	if p.dispatcher == nil {
		return "", errors.New("call_tool_chain: sandbox dispatcher not wired")
	}
	output, toolsCalled, err := p.dispatcher.Dispatch(ctx, code)
	for _, fqn := range toolsCalled {
		p.usage.record(fqn)
	}
	return output, err
}

// registerManual implements register_manual. args is the decoded JSON
// object the tool call received; it is re-marshaled to bytes and decoded as
// YAML into config.BackendConfig, which is valid because YAML is a JSON
// superset — the config loader's own struct tags are yaml-only, so this is
// the bridge between register_manual's necessarily-JSON MCP argument and
// the engine's native config type.
func (p *Provider) registerManual(ctx context.Context, args map[string]any) registerManualResult {
	name := argString(args, "name")
	raw, err := json.Marshal(args)
	if err != nil {
		return registerManualResult{Status: "invalid", Message: err.Error()}
	}

	var bc config.BackendConfig
	if err := yaml.Unmarshal(raw, &bc); err != nil {
		return registerManualResult{Status: "invalid", Message: err.Error()}
	}
	bc.Name = name
	if bc.Timeout == 0 {
		bc.Timeout = config.DefaultBackendTimeout
	}

	if err := p.engine.RegisterDynamic(ctx, &bc); err != nil {
		return registerManualResult{Status: "invalid", Message: err.Error()}
	}
	return registerManualResult{Status: "registered", Name: bc.Name}
}

// deregisterManual implements deregister_manual.
func (p *Provider) deregisterManual(ctx context.Context, name string) deregisterManualResult {
	err := p.engine.DeregisterDynamic(ctx, name)
	switch {
	case err == nil:
		return deregisterManualResult{Status: "deregistered", Name: name}
	case errors.Is(err, backend.ErrBackendNotFound):
		return deregisterManualResult{Status: "not found", Name: name}
	case errors.Is(err, backend.ErrBackendNotDynamic):
		return deregisterManualResult{Status: "protected", Name: name}
	default:
		return deregisterManualResult{Status: "error", Name: name}
	}
}
