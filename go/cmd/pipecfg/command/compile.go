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

package command

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipecfg/pipecfg/go/runtimeconfig"
)

// compileOptions holds the resolved inputs of a single compile run.
type compileOptions struct {
	jobSpecPath    string
	pipelineRoot   string
	params         []string
	inputArtifacts []string
	failurePolicy  string
}

var compileOpts compileOptions

var (
	compileFormat string
	compileOutput string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a job spec into a runtime configuration document",
	Long: `Compile reads a pipeline job specification, merges runtime overrides from
the command line, and emits the runtime configuration document the job's
schema version requires.

Parameter values given with --param are parsed as JSON first, so numbers,
booleans, lists and objects keep their types; anything that is not valid
JSON is taken as a plain string.

Examples:
  # Compile with the values already present in the job spec
  pipecfg compile --job-spec pipeline.json

  # Override the output location and two parameters
  pipecfg compile --job-spec pipeline.json \
    --pipeline-root gs://bucket/run-42 \
    --param learning_rate=0.01 \
    --param layers='[64,32]'

  # Bind an input artifact and stop scheduling on first failure
  pipecfg compile --job-spec pipeline.yaml \
    --input-artifact dataset=projects/p/locations/l/metadataStores/m/artifacts/42 \
    --failure-policy fast -o runtime-config.json`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	Root.AddCommand(compileCmd)

	compileCmd.Flags().StringVar(&compileOpts.jobSpecPath, "job-spec", "", "Path to the job specification file (JSON or YAML)")
	compileCmd.Flags().StringVar(&compileOpts.pipelineRoot, "pipeline-root", "", "Base output location for the pipeline run")
	compileCmd.Flags().StringArrayVar(&compileOpts.params, "param", nil, "Runtime parameter override, name=value (repeatable)")
	compileCmd.Flags().StringArrayVar(&compileOpts.inputArtifacts, "input-artifact", nil, "Input artifact binding, name=resource (repeatable)")
	compileCmd.Flags().StringVar(&compileOpts.failurePolicy, "failure-policy", "", "Failure policy, 'slow' or 'fast'")
	compileCmd.Flags().StringVar(&compileFormat, "format", "", "Output format, json or yaml (default json)")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Write the document to this path instead of stdout")

	_ = compileCmd.MarkFlagRequired("job-spec")
}

func runCompile(cmd *cobra.Command, args []string) error {
	opts := compileOpts
	applyConfigDefaults(&opts)

	doc, err := compileRuntimeConfig(fs, opts)
	if err != nil {
		return err
	}

	format := compileFormat
	if format == "" {
		format = viper.GetString("format")
	}
	return writeDocument(cmd, doc, format, compileOutput)
}

// applyConfigDefaults fills unset options from the loaded config file.
func applyConfigDefaults(opts *compileOptions) {
	if opts.pipelineRoot == "" {
		opts.pipelineRoot = viper.GetString("pipeline-root")
	}
	if opts.failurePolicy == "" {
		opts.failurePolicy = viper.GetString("failure-policy")
	}
}

// compileRuntimeConfig builds the runtime configuration document for a job
// spec file plus command-line overrides.
func compileRuntimeConfig(fs afero.Fs, opts compileOptions) (map[string]any, error) {
	spec, err := loadJobSpec(fs, opts.jobSpecPath)
	if err != nil {
		return nil, err
	}

	builder, err := runtimeconfig.FromJobSpec(spec)
	if err != nil {
		return nil, err
	}

	builder.UpdatePipelineRoot(opts.pipelineRoot)

	params, err := parseParamFlags(opts.params)
	if err != nil {
		return nil, err
	}
	if err := builder.UpdateRuntimeParameters(params); err != nil {
		return nil, err
	}

	artifacts, err := parseArtifactFlags(opts.inputArtifacts)
	if err != nil {
		return nil, err
	}
	builder.UpdateInputArtifacts(artifacts)

	if err := builder.UpdateFailurePolicy(opts.failurePolicy); err != nil {
		return nil, err
	}

	slog.Debug("Compiling runtime config",
		"jobSpec", opts.jobSpecPath,
		"params", len(params),
		"artifacts", len(artifacts))
	return builder.Build()
}

// parseParamFlags turns repeated name=value flags into a parameter map.
// Values are decoded as JSON when possible and fall back to plain strings.
func parseParamFlags(flags []string) (map[string]any, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(flags))
	for _, flag := range flags {
		name, raw, err := splitNameValue(flag)
		if err != nil {
			return nil, fmt.Errorf("invalid --param %q: %w", flag, err)
		}
		params[name] = parseParamValue(raw)
	}
	return params, nil
}

func parseArtifactFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	artifacts := make(map[string]string, len(flags))
	for _, flag := range flags {
		name, resource, err := splitNameValue(flag)
		if err != nil {
			return nil, fmt.Errorf("invalid --input-artifact %q: %w", flag, err)
		}
		artifacts[name] = resource
	}
	return artifacts, nil
}

func splitNameValue(s string) (string, string, error) {
	name, value, found := strings.Cut(s, "=")
	if !found || name == "" {
		return "", "", fmt.Errorf("expected name=value")
	}
	return name, value, nil
}

// parseParamValue decodes a flag value as JSON so numeric, boolean and
// composite overrides keep their types. Values that are not valid JSON are
// plain strings.
func parseParamValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
