// Copyright The bincheck Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analysis wires the analysis modules of the tool together: the
// module registry, the shared per-project state and the report types.
package analysis

import (
	"fmt"
	"sort"
	"time"
)

// A Module is one registerable analysis pass.
type Module struct {
	// Name identifies the module in configuration and reports.
	Name string

	// Version is reported alongside every warning the module emits.
	Version string

	// Run executes the module against the shared state.
	Run func(state *State) ([]LogMessage, []Warning)
}

// A Registry holds the modules available to one invocation of the tool.
// Registries are plain values handed to the caller; there is no process
// global, so tests can assemble registries independently.
type Registry struct {
	modules []Module
	byName  map[string]Module
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Module{}}
}

// Register adds a module. Module names must be unique within a registry.
func (r *Registry) Register(m Module) error {
	if m.Name == "" {
		return fmt.Errorf("module has no name")
	}
	if m.Run == nil {
		return fmt.Errorf("module %s has no run function", m.Name)
	}
	if _, ok := r.byName[m.Name]; ok {
		return fmt.Errorf("module %s registered twice", m.Name)
	}
	r.byName[m.Name] = m
	r.modules = append(r.modules, m)
	return nil
}

// Get returns the module with the given name.
func (r *Registry) Get(name string) (Module, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// Modules returns the registered modules sorted by name.
func (r *Registry) Modules() []Module {
	modules := make([]Module, len(r.modules))
	copy(modules, r.modules)
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules
}

// RunAll runs every registered module in name order against the shared
// state, logs the messages the modules produced and returns the collected
// warnings.
func (r *Registry) RunAll(state *State) []Warning {
	var warnings []Warning
	for _, m := range r.Modules() {
		state.Logger.Infof("Running %s ...", m.Name)
		start := time.Now()
		messages, moduleWarnings := m.Run(state)
		for _, msg := range messages {
			msg.Log(state.Logger)
		}
		warnings = append(warnings, moduleWarnings...)
		state.Logger.Infof("%s done (%.2f s).", m.Name, time.Since(start).Seconds())
	}
	return warnings
}
