// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jogster/Honeycomb/depsched"
)

// RootName is the canonical entry module name. Other modules participate
// in a run by being transitive dependencies of root.
const RootName = "root"

// Module is an application-level composite owning one scheduler task.
type Module struct {
	id   depsched.Id
	name string
	task *depsched.Task
}

// NewModule creates a module whose task body is fn and whose predecessors
// are the named dependency modules.
func NewModule(name string, fn func(context.Context) error, deps ...string) *Module {
	ids := make([]depsched.Id, 0, len(deps))
	for _, d := range deps {
		ids = append(ids, depsched.NewId(d))
	}
	return &Module{
		id:   depsched.NewId(name),
		name: name,
		task: depsched.NewTask(name, fn, ids...),
	}
}

// Id returns the module's name id.
func (m *Module) Id() depsched.Id { return m.id }

// Name returns the module's name.
func (m *Module) Name() string { return m.name }

// Task returns the module's scheduler task.
func (m *Module) Task() *depsched.Task { return m.task }

// Registry is the set of modules of an application run, keyed by name id.
type Registry struct {
	mu      sync.Mutex
	modules map[depsched.Id]*Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[depsched.Id]*Module)}
}

// Register adds a module. Fails on a duplicate name.
func (r *Registry) Register(m *Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[m.id]; ok {
		return fmt.Errorf("app: duplicate module %q", m.name)
	}
	r.modules[m.id] = m
	return nil
}

// Get returns the module with the given id, or nil.
func (r *Registry) Get(id depsched.Id) *Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modules[id]
}

// Root returns the canonical root module, or nil when absent.
func (r *Registry) Root() *Module { return r.Get(depsched.NewId(RootName)) }

// Modules returns the registered modules in name order.
func (r *Registry) Modules() []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
