package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"time"

	"github.com/dop251/goja"

	"gatemini/pkg/logging"
)

// errSandboxTimeout is the interrupt value delivered to a script that runs
// past its wall-clock budget (spec.md §4.9 step 6, "timeout ... yields a
// structured error").
var errSandboxTimeout = errors.New("sandbox: wall clock timeout exceeded")

// hasMainFunction detects a top-level "function main(" (sync or async) so
// user code that already defines its own entry point is left untouched
// (spec.md §4.9 step 4).
var hasMainFunction = regexp.MustCompile(`(?m)^\s*(async\s+)?function\s+main\s*\(`)

type scriptResult struct {
	output      string
	toolsCalled []string
	err         error
}

// runScript is tier 3: the JavaScript sandbox. Each invocation gets its own
// isolate on a dedicated goroutine pinned to an OS thread, since goja
// runtimes cannot migrate between threads.
func (d *Dispatcher) runScript(ctx context.Context, code string) (string, []string, error) {
	resultCh := make(chan scriptResult, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		resultCh <- d.executeOnThread(ctx, code)
	}()

	select {
	case res := <-resultCh:
		return res.output, res.toolsCalled, res.err
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
}

func (d *Dispatcher) executeOnThread(ctx context.Context, code string) scriptResult {
	vm := goja.New()

	heapLimit := d.cfg.HeapLimitBytes
	if heapLimit <= 0 {
		heapLimit = 50 * 1024 * 1024
	}
	vm.SetMemoryLimit(uint64(heapLimit))

	wallClock := d.cfg.WallClockTimeout
	if wallClock <= 0 {
		wallClock = 30 * time.Second
	}
	timer := time.AfterFunc(wallClock, func() {
		vm.Interrupt(errSandboxTimeout)
	})
	defer timer.Stop()

	bridge := &callToolBridge{ctx: ctx, vm: vm, engine: d.engine}
	if err := vm.Set("__call_tool", bridge.call); err != nil {
		return scriptResult{err: fmt.Errorf("sandbox: bind __call_tool: %w", err)}
	}

	preamble, err := preambleSource(d.registry.All())
	if err != nil {
		return scriptResult{err: fmt.Errorf("sandbox: build preamble: %w", err)}
	}
	if _, err := vm.RunString(preamble); err != nil {
		return scriptResult{err: fmt.Errorf("sandbox: load preamble: %w", err)}
	}

	body := code
	if !hasMainFunction.MatchString(code) {
		body = "async function main() {\n" + code + "\n}"
	}
	if _, err := vm.RunString(body); err != nil {
		return scriptResult{toolsCalled: bridge.toolsCalled, err: wrapScriptError(err)}
	}

	mainFn, ok := goja.AssertFunction(vm.Get("main"))
	if !ok {
		return scriptResult{toolsCalled: bridge.toolsCalled, err: errors.New("sandbox: script does not define main")}
	}

	resultVal, err := mainFn(goja.Undefined())
	if err != nil {
		return scriptResult{toolsCalled: bridge.toolsCalled, err: wrapScriptError(err)}
	}

	resolved, err := resolvePromise(resultVal)
	if err != nil {
		return scriptResult{toolsCalled: bridge.toolsCalled, err: err}
	}

	output := exportResult(resolved)
	return scriptResult{output: output, toolsCalled: bridge.toolsCalled}
}

// resolvePromise unwraps the Promise an async main() always returns. Since
// __call_tool is synchronous and nothing in the sandbox ever waits on a
// genuine external event, goja settles every promise created during the
// call before mainFn returns (spec.md §4.9: "no JS-level event loop is
// required"); a still-pending promise at this point means the script
// suspended on something that will never be driven forward.
func resolvePromise(v goja.Value) (goja.Value, error) {
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return v, nil
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result(), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("sandbox: script error: %v", p.Result())
	default:
		return nil, errors.New("sandbox: script left an unresolved promise with no event loop to drive it")
	}
}

func exportResult(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	if s, ok := v.Export().(string); ok {
		return s
	}
	return v.String()
}

func wrapScriptError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		logging.Warn(subsystem, "script interrupted: %v", err)
		return errSandboxTimeout
	}
	return fmt.Errorf("sandbox: script error: %w", err)
}
