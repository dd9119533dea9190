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

package analysis

import (
	"fmt"
	"strings"

	"github.com/bincheck/bincheck/analysis/cfg"
	"github.com/bincheck/bincheck/analysis/config"
	"github.com/bincheck/bincheck/analysis/ir"
)

// State is the shared per-project state every module runs against.
type State struct {
	// Config is the parsed configuration file.
	Config *config.Config

	// Logger writes the leveled log output of the tool.
	Logger *config.LogGroup

	// Project is the lifted binary under analysis.
	Project *ir.Project

	// MemoryImage gives read access to the binary's data segments.
	MemoryImage *ir.RuntimeMemoryImage

	// Graph is the interprocedural control-flow graph of the project.
	Graph *cfg.Graph
}

// NewState assembles the shared state for one project. The control-flow
// graph is built once here and shared by all modules.
func NewState(cfg *config.Config, logger *config.LogGroup, project *ir.Project, memory *ir.RuntimeMemoryImage) (*State, error) {
	graph, err := buildGraph(project)
	if err != nil {
		return nil, fmt.Errorf("could not build control-flow graph: %w", err)
	}
	return &State{
		Config:      cfg,
		Logger:      logger,
		Project:     project,
		MemoryImage: memory,
		Graph:       graph,
	}, nil
}

func buildGraph(project *ir.Project) (*cfg.Graph, error) {
	return cfg.NewGraph(&project.Program.Term)
}

// A Warning is one finding reported to the user.
type Warning struct {
	// Name identifies the kind of finding, e.g. "StringAbstraction".
	Name string `json:"name"`

	// Version is the version of the module that produced the finding.
	Version string `json:"version"`

	// Addresses are the binary addresses the finding points at.
	Addresses []string `json:"addresses"`

	// Tids are the IR terms the finding points at.
	Tids []string `json:"tids"`

	// Description is the human-readable report line.
	Description string `json:"description"`
}

func (w Warning) String() string {
	if len(w.Addresses) == 0 {
		return fmt.Sprintf("[%s] %s", w.Name, w.Description)
	}
	return fmt.Sprintf("[%s] %s (%s)", w.Name, w.Description, strings.Join(w.Addresses, ", "))
}

// A LogMessage is a leveled message a module hands back to the driver
// instead of writing output itself, so module runs stay pure.
type LogMessage struct {
	Level config.LogLevel
	Text  string
}

// Log writes the message to the matching level of the log group.
func (m LogMessage) Log(logger *config.LogGroup) {
	switch m.Level {
	case config.ErrLevel:
		logger.Errorf("%s", m.Text)
	case config.WarnLevel:
		logger.Warnf("%s", m.Text)
	case config.DebugLevel:
		logger.Debugf("%s", m.Text)
	case config.TraceLevel:
		logger.Tracef("%s", m.Text)
	default:
		logger.Infof("%s", m.Text)
	}
}
