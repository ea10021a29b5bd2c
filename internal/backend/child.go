package backend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"gatemini/internal/config"
	"gatemini/internal/registry"
	"gatemini/pkg/logging"
	pstrings "gatemini/pkg/strings"
)

// stderrTailLen bounds how much of a child's stderr line is logged, mirroring
// the sandbox's output-truncation approach (DESIGN.md open question #2).
const stderrTailLen = 400

// ChildPeer is a stdio-transport backend: a plain child process speaking
// MCP over its own stdin/stdout.
//
// Unlike calling client.NewStdioMCPClient and letting mcp-go spawn the
// process itself, ChildPeer builds the exec.Cmd directly so it can set
// SysProcAttr{Setpgid: true} — this is the one place gatemini bypasses
// mcp-go's convenience constructor, in exchange for process-group control
// over the whole tree the child may spawn (spec.md §4.3 "process-group
// isolation").
type ChildPeer struct {
	basePeer

	cfg *config.BackendConfig

	mu     sync.RWMutex
	cmd    *exec.Cmd
	client client.MCPClient

	// stopRequested distinguishes a caller-driven Stop from the process
	// exiting on its own, so the reaper goroutine only logs and restarts on
	// the latter (spec.md §4.3 "reaper task").
	stopRequested atomic.Bool
	reaperDone    chan struct{}
}

// NewChildPeer constructs a peer for a stdio-transport backend. It does not
// start the process; call Start for that.
func NewChildPeer(cfg *config.BackendConfig) *ChildPeer {
	return &ChildPeer{
		basePeer: newBasePeer(cfg.Name, cfg.Timeout),
		cfg:      cfg,
	}
}

func (p *ChildPeer) buildCommand(ctx context.Context, command string, args, env []string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = env
	if p.cfg.Cwd != "" {
		cmd.Dir = p.cfg.Cwd
	}
	// Put the child in its own process group so Stop can signal the whole
	// tree (the child and anything it spawns) rather than just the direct
	// child (spec.md §8 test 6 "process-group kill").
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	return cmd, nil
}

// Start performs the MCP initialize handshake and discovers tools.
func (p *ChildPeer) Start(ctx context.Context) ([]registry.ToolDescriptor, error) {
	env := os.Environ()
	for k, v := range p.cfg.Env {
		env = append(env, k+"="+v)
	}

	t := transport.NewStdioWithOptions(p.cfg.Command, env, p.cfg.Args,
		transport.WithCommandFunc(p.buildCommand),
	)

	cl := client.NewClient(t)
	if err := cl.Start(ctx); err != nil {
		p.setState(StateStopped)
		return nil, fmt.Errorf("backend %s: start: %w", p.name, err)
	}

	p.mu.Lock()
	cmd := p.cmd
	p.reaperDone = make(chan struct{})
	p.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		go p.reap(cmd)
	} else {
		close(p.reaperDone)
	}

	initCtx, cancel := p.callDeadline(ctx)
	defer cancel()

	if _, err := cl.Initialize(initCtx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "gatemini",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}); err != nil {
		_ = cl.Close()
		p.setState(StateStopped)
		return nil, fmt.Errorf("backend %s: initialize: %w", p.name, err)
	}

	p.mu.Lock()
	p.client = cl
	p.mu.Unlock()

	if stderr, ok := client.GetStderr(cl); ok {
		go p.drainStderr(stderr)
	}

	tools, err := p.discoverTools(ctx, cl)
	if err != nil {
		_ = cl.Close()
		p.setState(StateStopped)
		return nil, err
	}

	p.setState(StateHealthy)
	return tools, nil
}

// reap awaits the child process's exit and, when that exit was not the
// result of a caller-driven Stop, transitions the peer to Stopped so the
// health supervisor's restart path (which only ever fires on Stopped) picks
// it up (spec.md §4.3 "Start a reaper task that awaits process exit and, on
// unexpected exit, transitions to Stopped"). It is the sole caller of
// cmd.Process.Wait for this peer; Stop waits on reaperDone instead of
// calling Wait itself, since Wait may not be called concurrently from two
// goroutines on the same process.
func (p *ChildPeer) reap(cmd *exec.Cmd) {
	_, _ = cmd.Process.Wait()
	close(p.reaperDone)
	if !p.stopRequested.Load() {
		logging.Warn("Backend-"+p.name, "process exited unexpectedly")
		p.setState(StateStopped)
	}
}

// ReaperDone implements Reaper.
func (p *ChildPeer) ReaperDone() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reaperDone
}

func (p *ChildPeer) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		logging.Debug("Backend-"+p.name, "stderr: %s", pstrings.TruncateDescription(scanner.Text(), stderrTailLen))
	}
}

func (p *ChildPeer) discoverTools(ctx context.Context, cl client.MCPClient) ([]registry.ToolDescriptor, error) {
	listCtx, cancel := p.callDeadline(ctx)
	defer cancel()

	result, err := cl.ListTools(listCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("backend %s: list tools: %w", p.name, err)
	}

	descs := make([]registry.ToolDescriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			schema = []byte("{}")
		}
		descs = append(descs, registry.ToolDescriptor{
			Name:        t.Name,
			Backend:     p.name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return descs, nil
}

// DiscoverTools re-lists tools against the already-connected client.
func (p *ChildPeer) DiscoverTools(ctx context.Context) ([]registry.ToolDescriptor, error) {
	p.mu.RLock()
	cl := p.client
	p.mu.RUnlock()
	if cl == nil {
		return nil, ErrBackendNotHealthy
	}
	return p.discoverTools(ctx, cl)
}

// CallTool issues one MCP tools/call against the child process.
func (p *ChildPeer) CallTool(ctx context.Context, tool string, args map[string]any) (CallResult, error) {
	if p.State() != StateHealthy {
		return CallResult{}, ErrBackendNotHealthy
	}

	p.mu.RLock()
	cl := p.client
	p.mu.RUnlock()
	if cl == nil {
		return CallResult{}, ErrBackendNotHealthy
	}

	callCtx, cancel := p.callDeadline(ctx)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	result, err := cl.CallTool(callCtx, req)
	if err != nil {
		return CallResult{}, fmt.Errorf("backend %s: call %s: %w", p.name, tool, err)
	}

	content, err := marshalToolResult(result)
	if err != nil {
		return CallResult{}, err
	}
	return CallResult{Content: content, IsError: result.IsError}, nil
}

// Ping issues one MCP ping, used by the health supervisor's cycle.
func (p *ChildPeer) Ping(ctx context.Context) error {
	p.mu.RLock()
	cl := p.client
	p.mu.RUnlock()
	if cl == nil {
		return ErrBackendNotHealthy
	}

	pingCtx, cancel := p.callDeadline(ctx)
	defer cancel()
	return cl.Ping(pingCtx)
}

// Stop terminates the child process: SIGTERM to the whole process group,
// then a bounded wait, then a forced kill of the direct child (spec.md §4.3
// "graceful drain", §8 test 6 "process-group kill"). Callers are expected to
// have already drained in-flight calls via the engine's CallRecord counter.
func (p *ChildPeer) Stop(ctx context.Context) error {
	p.stopRequested.Store(true)
	p.setState(StateStopped)

	p.mu.Lock()
	cl := p.client
	cmd := p.cmd
	done := p.reaperDone
	p.mu.Unlock()

	if cl != nil {
		_ = cl.Close()
	}

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if done == nil {
		// Start never got far enough to arm the reaper; there is nothing to
		// wait on beyond a best-effort kill.
		_ = cmd.Process.Kill()
		return nil
	}

	pgid := cmd.Process.Pid
	_ = syscall.Kill(-pgid, syscall.SIGTERM)

	select {
	case <-done:
		return nil
	case <-time.After(200 * time.Millisecond):
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
		_ = cmd.Process.Kill()
		<-done
		return nil
	}
}

var _ Peer = (*ChildPeer)(nil)
var _ Reaper = (*ChildPeer)(nil)

func marshalToolResult(result *mcp.CallToolResult) ([]byte, error) {
	var sb strings.Builder
	for i, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(tc.Text)
		}
	}
	return []byte(sb.String()), nil
}
