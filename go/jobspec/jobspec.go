// Copyright 2025 The Pipecfg Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jobspec models pipeline job specification documents: the nested
// JSON (or YAML) structure that carries a pipeline's schema version, its
// declared input parameters and an optional pre-existing runtime
// configuration section.
package jobspec

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// JobSpec is the top-level job specification document.
type JobSpec struct {
	RuntimeConfig *RuntimeConfig `json:"runtimeConfig,omitempty" yaml:"runtimeConfig,omitempty"`
	PipelineSpec  *PipelineSpec  `json:"pipelineSpec,omitempty" yaml:"pipelineSpec,omitempty"`
}

// RuntimeConfig is the runtime configuration section of a job spec. Exactly
// one of ParameterValues (modern schema, native values) or Parameters
// (legacy schema, typed-value wrappers) is populated in practice; a nil map
// means the key was absent from the document, which is distinct from an
// empty map.
type RuntimeConfig struct {
	GCSOutputDirectory string                    `json:"gcsOutputDirectory,omitempty" yaml:"gcsOutputDirectory,omitempty"`
	ParameterValues    map[string]any            `json:"parameterValues,omitempty" yaml:"parameterValues,omitempty"`
	Parameters         map[string]map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	FailurePolicy      string                    `json:"failurePolicy,omitempty" yaml:"failurePolicy,omitempty"`
}

// PipelineSpec is the pipeline definition section of a job spec. Only the
// fields the runtime config compiler needs are modeled.
type PipelineSpec struct {
	SchemaVersion string         `json:"schemaVersion,omitempty" yaml:"schemaVersion,omitempty"`
	Root          *ComponentSpec `json:"root,omitempty" yaml:"root,omitempty"`
}

// ComponentSpec is the root component of a pipeline.
type ComponentSpec struct {
	InputDefinitions *InputDefinitions `json:"inputDefinitions,omitempty" yaml:"inputDefinitions,omitempty"`
}

// InputDefinitions declares the root component's inputs.
type InputDefinitions struct {
	Parameters map[string]ParameterSpec `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// ParameterSpec declares a single pipeline parameter. ParameterType is the
// current field name; Type is its pre-rename spelling, kept for documents
// produced before the schema migration.
type ParameterSpec struct {
	ParameterType string `json:"parameterType,omitempty" yaml:"parameterType,omitempty"`
	Type          string `json:"type,omitempty" yaml:"type,omitempty"`
}

// DeclaredType returns the parameter's type tag, preferring the current
// parameterType field and falling back to the legacy type field.
func (p ParameterSpec) DeclaredType() string {
	if p.ParameterType != "" {
		return p.ParameterType
	}
	return p.Type
}

// Parse decodes a JSON job specification document.
func Parse(data []byte) (*JobSpec, error) {
	var spec JobSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse job spec JSON: %w", err)
	}
	return &spec, nil
}

// ParseYAML decodes a YAML job specification document.
func ParseYAML(data []byte) (*JobSpec, error) {
	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse job spec YAML: %w", err)
	}
	return &spec, nil
}

// FromMap decodes a job specification that has already been unmarshaled
// into a generic map, e.g. an API response body or a section of a larger
// configuration document. Field names follow the JSON spelling.
func FromMap(doc map[string]any) (*JobSpec, error) {
	var spec JobSpec
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &spec,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode job spec document: %w", err)
	}
	return &spec, nil
}
