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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJobSpec(t *testing.T) {
	tests := []struct {
		name          string
		spec          string
		expectError   bool
		errorContains string
	}{
		{
			name: "valid job spec",
			spec: testJobSpec,
		},
		{
			name: "missing pipeline root",
			spec: `{
			  "runtimeConfig": {},
			  "pipelineSpec": {"schemaVersion": "2.1.0"}
			}`,
			expectError:   true,
			errorContains: "pipeline root must be specified",
		},
		{
			name: "undeclared parameter value",
			spec: `{
			  "runtimeConfig": {
			    "gcsOutputDirectory": "gs://bucket/root",
			    "parameterValues": {"ghost": 1}
			  },
			  "pipelineSpec": {"schemaVersion": "2.1.0"}
			}`,
			expectError:   true,
			errorContains: `"ghost"`,
		},
		{
			name:          "malformed document",
			spec:          "{not json",
			expectError:   true,
			errorContains: "failed to parse job spec JSON",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			memFs := afero.NewMemMapFs()
			writeTestFile(t, memFs, "pipeline.json", tc.spec)

			err := validateJobSpec(memFs, "pipeline.json")
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorContains)
				return
			}
			require.NoError(t, err)
		})
	}
}
