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

// Package command implements the pipecfg command tree.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pipecfg/pipecfg/go/jobspec"
)

// fs is the filesystem all commands read from and write to. The compile and
// validate helpers take it as a parameter so tests can use an in-memory
// filesystem.
var fs afero.Fs = afero.NewOsFs()

var (
	logLevel    string
	configPaths []string
)

// Root is the pipecfg root command.
var Root = &cobra.Command{
	Use:   "pipecfg",
	Short: "Compile pipeline runtime configuration documents",
	Long: `pipecfg turns a pipeline job specification into the runtime configuration
document an execution backend consumes. It reads the pipeline's declared
parameters and schema version from the job spec, merges runtime overrides
supplied on the command line, and emits the wire document in the format the
schema version requires.

Get started with:
  pipecfg compile --job-spec pipeline.json     # Compile a runtime config
  pipecfg validate --job-spec pipeline.json    # Check a job spec compiles

Configuration:
  pipecfg looks for an optional 'pipecfg' config file (.yaml, .yml, .json or
  .toml) in the directories given by --config-path, defaulting to the current
  working directory. The config file can set defaults for pipeline-root,
  failure-policy and format.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silence usage for application errors, but allow it for flag errors.
		cmd.SilenceUsage = true

		if err := setupLogging(logLevel); err != nil {
			return err
		}
		return loadConfig()
	},
}

func init() {
	Root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	Root.PersistentFlags().StringSliceVar(&configPaths, "config-path", []string{"."}, "Directories to search for a pipecfg config file")
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

func loadConfig() error {
	viper.SetConfigName("pipecfg")
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults")
		return nil
	}
	slog.Debug("Loaded config file", "file", viper.ConfigFileUsed())
	return nil
}

// loadJobSpec reads and parses a job specification file, choosing the
// decoder by file extension.
func loadJobSpec(fs afero.Fs, path string) (*jobspec.JobSpec, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job spec %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return jobspec.ParseYAML(data)
	default:
		return jobspec.Parse(data)
	}
}

// writeDocument renders a compiled document as JSON or YAML and writes it
// to the given path, or to out when path is empty.
func writeDocument(cmd *cobra.Command, doc map[string]any, format, path string) error {
	rendered, err := renderDocument(doc, format)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	}
	if err := afero.WriteFile(fs, path, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("Wrote runtime config", "path", path)
	return nil
}

func renderDocument(doc map[string]any, format string) (string, error) {
	switch format {
	case "", "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal runtime config: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(doc)
		if err != nil {
			return "", fmt.Errorf("failed to marshal runtime config: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}
