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

// Package runtimeconfig builds versioned pipeline runtime configuration
// documents. A Builder accumulates the pipeline root, parameter values,
// input artifacts and failure policy, then Build produces the wire document
// for a job submission request. Schema versions up to 2.0.0 use the legacy
// typed-value envelope format; later versions write native values.
package runtimeconfig

import (
	"errors"
	"fmt"

	"github.com/blang/semver/v4"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pipecfg/pipecfg/go/jobspec"
)

// ErrMissingPipelineRoot is returned by Build when no pipeline root has
// been supplied either at construction or through UpdatePipelineRoot.
var ErrMissingPipelineRoot = errors.New("pipeline root must be specified, either at compile time or at runtime")

// BuilderParams carries the inputs of a directly constructed Builder.
// SchemaVersion and ParameterTypes are required; everything else may be
// zero and supplied later through the update methods.
type BuilderParams struct {
	// PipelineRoot is the base output location. It may be left empty here
	// and set later, but Build fails while it is empty.
	PipelineRoot string

	// SchemaVersion selects the wire format. It is fixed for the lifetime
	// of the builder.
	SchemaVersion string

	// ParameterTypes declares the type tag of every parameter the pipeline
	// accepts. It is treated as read-only reference data: values merged
	// later must name a declared parameter or Build fails.
	ParameterTypes map[string]ParameterType

	// ParameterValues optionally seeds the runtime parameter values.
	ParameterValues map[string]any

	// InputArtifacts optionally seeds the input artifact bindings
	// (parameter name to artifact resource identifier).
	InputArtifacts map[string]string

	// FailurePolicy optionally sets the initial failure policy.
	FailurePolicy FailurePolicy
}

// Builder assembles a pipeline runtime configuration. It is not safe for
// concurrent use; callers that share a Builder must serialize access.
type Builder struct {
	pipelineRoot    string
	schemaVersion   semver.Version
	parameterTypes  map[string]ParameterType
	parameterValues map[string]*structpb.Value
	inputArtifacts  map[string]string
	failurePolicy   FailurePolicy
}

// NewBuilder constructs a Builder from explicit parts. All caller-supplied
// maps are copied, so mutating them afterwards does not affect the builder.
func NewBuilder(params BuilderParams) (*Builder, error) {
	version, err := parseSchemaVersion(params.SchemaVersion)
	if err != nil {
		return nil, err
	}

	types := make(map[string]ParameterType, len(params.ParameterTypes))
	for name, t := range params.ParameterTypes {
		types[name] = t
	}

	values, err := newValueMap(params.ParameterValues)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = make(map[string]*structpb.Value)
	}

	artifacts := make(map[string]string, len(params.InputArtifacts))
	for name, id := range params.InputArtifacts {
		artifacts[name] = id
	}

	return &Builder{
		pipelineRoot:    params.PipelineRoot,
		schemaVersion:   version,
		parameterTypes:  types,
		parameterValues: values,
		inputArtifacts:  artifacts,
		failurePolicy:   params.FailurePolicy,
	}, nil
}

// FromJobSpec derives a Builder from an existing job specification
// document: the schema version and parameter declarations come from the
// pipeline spec section, and any pre-existing runtime configuration section
// seeds the pipeline root, parameter values and failure policy.
func FromJobSpec(spec *jobspec.JobSpec) (*Builder, error) {
	if spec == nil || spec.PipelineSpec == nil {
		return nil, errors.New("job spec has no pipelineSpec section")
	}

	params := BuilderParams{
		SchemaVersion:  spec.PipelineSpec.SchemaVersion,
		ParameterTypes: declaredParameterTypes(spec.PipelineSpec),
	}

	var legacyParameters map[string]map[string]any
	if rc := spec.RuntimeConfig; rc != nil {
		params.PipelineRoot = rc.GCSOutputDirectory
		params.ParameterValues = rc.ParameterValues
		legacyParameters = rc.Parameters

		policy, err := FailurePolicyFromWire(rc.FailurePolicy)
		if err != nil {
			return nil, err
		}
		params.FailurePolicy = policy
	}

	b, err := NewBuilder(params)
	if err != nil {
		return nil, err
	}

	// Modern documents carry parameterValues, which NewBuilder has already
	// converted. Legacy documents carry typed-value wrappers instead; they
	// only apply when no parameterValues map is present.
	if params.ParameterValues == nil && legacyParameters != nil {
		for name, wrapper := range legacyParameters {
			v, err := decodeLegacyParameter(wrapper)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", name, err)
			}
			b.parameterValues[name] = v
		}
	}

	return b, nil
}

func declaredParameterTypes(spec *jobspec.PipelineSpec) map[string]ParameterType {
	if spec.Root == nil || spec.Root.InputDefinitions == nil {
		return nil
	}
	types := make(map[string]ParameterType, len(spec.Root.InputDefinitions.Parameters))
	for name, p := range spec.Root.InputDefinitions.Parameters {
		types[name] = ParameterType(p.DeclaredType())
	}
	return types
}

// UpdatePipelineRoot overwrites the pipeline root. An empty argument is a
// no-op so callers can pass through an optional override unconditionally.
func (b *Builder) UpdatePipelineRoot(root string) {
	if root != "" {
		b.pipelineRoot = root
	}
}

// UpdateRuntimeParameters merges parameter values into the builder,
// last-write-wins per key. Under legacy schema versions, map, list and
// boolean values are stored as JSON strings because the legacy wire format
// has no native slot for them. The builder is left unchanged if any value
// cannot be converted.
func (b *Builder) UpdateRuntimeParameters(values map[string]any) error {
	if len(values) == 0 {
		return nil
	}

	merged, err := newValueMap(values)
	if err != nil {
		return err
	}
	if usesLegacyWireFormat(b.schemaVersion) {
		for name, v := range merged {
			if !isComposite(v) {
				continue
			}
			s, err := stringifyComposite(v)
			if err != nil {
				return fmt.Errorf("parameter %q: %w", name, err)
			}
			merged[name] = s
		}
	}

	for name, v := range merged {
		b.parameterValues[name] = v
	}
	return nil
}

// UpdateInputArtifacts merges input artifact bindings into the builder,
// last-write-wins per key.
func (b *Builder) UpdateInputArtifacts(artifacts map[string]string) {
	for name, id := range artifacts {
		b.inputArtifacts[name] = id
	}
}

// UpdateFailurePolicy sets the failure policy from its user-facing alias,
// "slow" or "fast". An empty alias is a no-op and preserves any policy set
// earlier.
func (b *Builder) UpdateFailurePolicy(alias string) error {
	if alias == "" {
		return nil
	}
	policy, err := ParseFailurePolicy(alias)
	if err != nil {
		return err
	}
	b.failurePolicy = policy
	return nil
}

// Build assembles the runtime configuration wire document. It is
// side-effect free and may be called repeatedly. Null-valued parameters are
// dropped; every remaining parameter must be declared in the type map.
func (b *Builder) Build() (map[string]any, error) {
	if b.pipelineRoot == "" {
		return nil, ErrMissingPipelineRoot
	}

	parameters := make(map[string]any, len(b.parameterValues))
	for name, v := range b.parameterValues {
		if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
			continue
		}
		encoded, err := b.encodeParameter(name, v)
		if err != nil {
			return nil, err
		}
		parameters[name] = encoded
	}

	artifacts := make(map[string]any, len(b.inputArtifacts))
	for name, id := range b.inputArtifacts {
		artifacts[name] = map[string]any{"artifactId": id}
	}

	parameterKey := "parameterValues"
	if usesLegacyWireFormat(b.schemaVersion) {
		parameterKey = "parameters"
	}

	doc := map[string]any{
		"gcsOutputDirectory": b.pipelineRoot,
		parameterKey:         parameters,
		"inputArtifacts":     artifacts,
	}
	if b.failurePolicy != FailurePolicyUnspecified {
		doc["failurePolicy"] = b.failurePolicy.String()
	}
	return doc, nil
}

// encodeParameter produces the wire form of a single parameter value.
func (b *Builder) encodeParameter(name string, v *structpb.Value) (any, error) {
	if v == nil || v.GetKind() == nil {
		return nil, fmt.Errorf("pipeline parameter %q value must not be null", name)
	}
	declared, ok := b.parameterTypes[name]
	if !ok {
		return nil, fmt.Errorf("pipeline parameter %q is not found in the pipeline job input definitions", name)
	}
	if !usesLegacyWireFormat(b.schemaVersion) {
		return v.AsInterface(), nil
	}
	return encodeLegacyParameter(v, declared)
}
