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
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pipecfg/pipecfg/go/jobspec"
)

var describeJobSpecPath string

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show the declared parameters and runtime bindings of a job spec",
	Long: `Describe prints a job spec's schema version, its declared input parameters
and any parameter values already bound in its runtime configuration section.

Examples:
  pipecfg describe --job-spec pipeline.json`,
	Args: cobra.NoArgs,
	RunE: runDescribe,
}

func init() {
	Root.AddCommand(describeCmd)

	describeCmd.Flags().StringVar(&describeJobSpecPath, "job-spec", "", "Path to the job specification file (JSON or YAML)")
	_ = describeCmd.MarkFlagRequired("job-spec")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	spec, err := loadJobSpec(fs, describeJobSpecPath)
	if err != nil {
		return err
	}
	return describeJobSpec(cmd.OutOrStdout(), spec)
}

func describeJobSpec(out io.Writer, spec *jobspec.JobSpec) error {
	if spec.PipelineSpec == nil {
		return fmt.Errorf("job spec has no pipelineSpec section")
	}

	fmt.Fprintf(out, "Schema version: %s\n", spec.PipelineSpec.SchemaVersion)

	declared := map[string]jobspec.ParameterSpec{}
	if spec.PipelineSpec.Root != nil && spec.PipelineSpec.Root.InputDefinitions != nil {
		declared = spec.PipelineSpec.Root.InputDefinitions.Parameters
	}

	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(out, "Parameters (%d):\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s: %s", name, declared[name].DeclaredType())
		if value, ok := boundValue(spec.RuntimeConfig, name); ok {
			fmt.Fprintf(out, " = %s", value)
		}
		fmt.Fprintln(out)
	}

	if rc := spec.RuntimeConfig; rc != nil {
		if rc.GCSOutputDirectory != "" {
			fmt.Fprintf(out, "Pipeline root: %s\n", rc.GCSOutputDirectory)
		}
		if rc.FailurePolicy != "" {
			fmt.Fprintf(out, "Failure policy: %s\n", rc.FailurePolicy)
		}
	}
	return nil
}

// boundValue renders the value bound to a parameter in the runtime config
// section, from either the modern or the legacy parameter map.
func boundValue(rc *jobspec.RuntimeConfig, name string) (string, bool) {
	if rc == nil {
		return "", false
	}
	if v, ok := rc.ParameterValues[name]; ok {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), true
		}
		return string(data), true
	}
	if wrapper, ok := rc.Parameters[name]; ok {
		data, err := json.Marshal(wrapper)
		if err != nil {
			return fmt.Sprintf("%v", wrapper), true
		}
		return string(data), true
	}
	return "", false
}
