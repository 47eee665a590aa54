// Package module owns the function table, the static-variable table and
// the invocation path that ties the IR to the interpreter.
package module

import (
	"io"
	"os"
	"runtime/debug"
	"sync"

	"github.com/maekoos/dex-ir/internal/dexconfig"
	"github.com/maekoos/dex-ir/internal/dexerr"
	"github.com/maekoos/dex-ir/internal/dexlog"
	"github.com/maekoos/dex-ir/runtime"
)

// Module is a loaded program: interpreted and native functions under one
// flat namespace, plus the module-scoped statics. The statics map is
// guarded so callees can read and write it mid-call through the shared
// module reference.
type Module struct {
	name string

	mu      sync.Mutex
	statics map[string]runtime.Value

	functions map[string]Function

	// Out receives everything the program prints. Defaults to stdout.
	Out io.Writer

	// TypeMatches decides whether a thrown exception type is caught by a
	// handler's declared type. The default is exact string equality; a
	// class-hierarchy subsystem can swap in an is-subtype-of predicate.
	TypeMatches func(thrown, handler string) bool

	cfg dexconfig.Config
}

func New(name string, opts ...dexconfig.Option) *Module {
	return &Module{
		name:        name,
		statics:     make(map[string]runtime.Value),
		functions:   make(map[string]Function),
		Out:         os.Stdout,
		TypeMatches: func(thrown, handler string) bool { return thrown == handler },
		cfg:         dexconfig.New(opts...),
	}
}

func (m *Module) Name() string { return m.name }

// AddFunction registers a function under its flat method key.
func (m *Module) AddFunction(name string, fn Function) {
	m.functions[name] = fn
}

// AddStatic declares a static variable, initialised to Void.
func (m *Module) AddStatic(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statics[name] = runtime.VVoid{}
}

// GetStatic reads a static variable. The second return value is false if
// the static was never declared or written.
func (m *Module) GetStatic(name string) (runtime.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.statics[name]
	return v, ok
}

// SetStatic writes a static variable, declaring it if needed.
func (m *Module) SetStatic(name string, v runtime.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statics[name] = v
}

// Run is the public entry point: it builds a fresh two-level call stack
// [root, name] and invokes. When GC pacing is configured the collector is
// paused for the duration of the call, the same trick interpreter hot
// loops use to keep allocation pauses out of the dispatch path.
func (m *Module) Run(name string, params []runtime.Value) InvokeResult {
	if m.cfg.GCPacing {
		defer debug.SetGCPercent(m.cfg.GCPercent)
		debug.SetGCPercent(-1)
	}

	cs := Extend(name, NewCallStack())
	return m.Invoke(name, cs, params)
}

// Invoke dispatches by flat name. Used internally by the interpreter's
// Invoke instruction and by natives that call back into the module.
func (m *Module) Invoke(name string, cs *CallStack, params []runtime.Value) InvokeResult {
	fn, ok := m.functions[name]
	if !ok {
		return runtimeErr(dexerr.NewInvokeOnNonExistingFunction(name), cs)
	}

	dexlog.Debugf("Running function %q", name)
	return fn.run(params, cs, m)
}
