package sandbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"

	"gatemini/internal/backend"
)

// callToolBridge binds __call_tool into a goja runtime. Every call pumps
// back to the async runtime via the engine, blocking this (dedicated)
// sandbox OS thread until the backend responds (spec.md §4.9 step 5).
type callToolBridge struct {
	ctx         context.Context
	vm          *goja.Runtime
	engine      *backend.Engine
	toolsCalled []string
}

func (b *callToolBridge) call(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 2 {
		panic(b.vm.NewTypeError("__call_tool requires at least (backend, tool)"))
	}

	backendName := call.Arguments[0].String()
	toolName := call.Arguments[1].String()

	args := map[string]any{}
	if len(call.Arguments) >= 3 && !goja.IsUndefined(call.Arguments[2]) && !goja.IsNull(call.Arguments[2]) {
		if err := b.vm.ExportTo(call.Arguments[2], &args); err != nil {
			panic(b.vm.NewGoError(fmt.Errorf("__call_tool: decode arguments: %w", err)))
		}
	}

	result, err := b.engine.Call(b.ctx, backendName, toolName, args)
	if err != nil {
		panic(b.vm.NewGoError(fmt.Errorf("%s.%s: %w", backendName, toolName, err)))
	}
	b.toolsCalled = append(b.toolsCalled, backendName+"."+toolName)
	if result.IsError {
		panic(b.vm.NewGoError(fmt.Errorf("%s.%s: %s", backendName, toolName, string(result.Content))))
	}

	var parsed any
	if err := json.Unmarshal(result.Content, &parsed); err != nil {
		return b.vm.ToValue(string(result.Content))
	}
	return b.vm.ToValue(parsed)
}
