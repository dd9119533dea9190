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

// Package config defines the yaml configuration of the tool and the
// leveled logger the analyses report through.
package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// DomainBricks and the other domain names select which abstract string
// domain the string analysis tracks.
const (
	DomainBricks             = "bricks"
	DomainCharacterInclusion = "character-inclusion"
	DomainStringLength       = "string-length"
)

// DefaultMaxFixpointSteps bounds the number of node updates the fixpoint
// solver performs before giving up on convergence.
const DefaultMaxFixpointSteps = 100000

// Config is the parsed configuration file.
// If some field is not defined in the config file, it will be empty/zero
// in the struct. Private fields are not populated from a yaml file, but
// computed after initialization.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// StringAnalysisProblems lists the string analysis specifications.
	StringAnalysisProblems []StringSpec `yaml:"string-analysis-problems"`
}

// StringSpec configures one run of the abstract string analysis.
type StringSpec struct {
	// Domain selects the abstract string domain. One of DomainBricks,
	// DomainCharacterInclusion or DomainStringLength; defaults to bricks.
	Domain string `yaml:"domain"`

	// ExtractionTargets lists the names of external symbols whose string
	// arguments the analysis reports, e.g. system or sprintf.
	ExtractionTargets []string `yaml:"extraction-targets"`

	// NormalizeAfterMerge requests normalization of bricks values after
	// every merge instead of only at report time. Slower, more precise.
	NormalizeAfterMerge bool `yaml:"normalize-after-merge"`
}

// Options are the settings shared by all analyses.
type Options struct {
	// ReportsDir is the directory where reports will be stored. If empty
	// and a Report* option is set, a temporary directory is created next
	// to the config file.
	ReportsDir string `yaml:"reports-dir"`

	// ReportStates requests a dump of the abstract state at every program
	// point into ReportsDir.
	ReportStates bool `yaml:"report-states"`

	// MaxFixpointSteps bounds the solver. Values <= 0 select the default.
	MaxFixpointSteps int `yaml:"max-fixpoint-steps"`

	// LogLevel controls the verbosity of the tool.
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warning output.
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:             "",
		StringAnalysisProblems: nil,
		Options: Options{
			ReportsDir:       "",
			ReportStates:     false,
			MaxFixpointSteps: DefaultMaxFixpointSteps,
			LogLevel:         int(InfoLevel),
			SilenceWarn:      false,
		},
	}
}

// Load reads a configuration from a yaml file.
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := LoadFromBytes(b)
	if err != nil {
		return nil, err
	}
	cfg.sourceFile = filename
	if cfg.ReportStates {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadFromBytes reads a configuration from yaml data.
func LoadFromBytes(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.MaxFixpointSteps <= 0 {
		cfg.MaxFixpointSteps = DefaultMaxFixpointSteps
	}

	for i := range cfg.StringAnalysisProblems {
		spec := &cfg.StringAnalysisProblems[i]
		if spec.Domain == "" {
			spec.Domain = DomainBricks
		}
		switch spec.Domain {
		case DomainBricks, DomainCharacterInclusion, DomainStringLength:
		default:
			return nil, fmt.Errorf("unknown string domain %q", spec.Domain)
		}
	}
	return cfg, nil
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
		return nil
	}
	if err := os.Mkdir(c.ReportsDir, 0750); err != nil && !os.IsExist(err) {
		return fmt.Errorf("could not create directory %s", c.ReportsDir)
	}
	return nil
}

// RelPath returns filename path relative to the config source file.
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}
