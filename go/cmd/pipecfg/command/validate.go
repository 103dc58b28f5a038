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
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pipecfg/pipecfg/go/runtimeconfig"
)

var validateJobSpecPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that a job spec compiles into a valid runtime configuration",
	Long: `Validate parses a job specification, derives its runtime configuration and
verifies that it would compile: the pipeline root is set, every parameter
value names a declared parameter, and legacy type tags are recognized.

Examples:
  pipecfg validate --job-spec pipeline.json

  # Use in scripts
  if pipecfg validate --job-spec pipeline.yaml; then
    echo "ready to submit"
  fi`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	Root.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateJobSpecPath, "job-spec", "", "Path to the job specification file (JSON or YAML)")
	_ = validateCmd.MarkFlagRequired("job-spec")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := validateJobSpec(fs, validateJobSpecPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: job spec compiles to a valid runtime config\n", validateJobSpecPath)
	return nil
}

func validateJobSpec(fs afero.Fs, path string) error {
	spec, err := loadJobSpec(fs, path)
	if err != nil {
		return err
	}
	builder, err := runtimeconfig.FromJobSpec(spec)
	if err != nil {
		return err
	}
	_, err = builder.Build()
	return err
}
