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

package jobspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modernJSON = `{
  "runtimeConfig": {
    "gcsOutputDirectory": "gs://bucket/root",
    "parameterValues": {
      "count": 3,
      "name": "training-run",
      "layers": [64, 32]
    },
    "failurePolicy": "FAIL_SLOW"
  },
  "pipelineSpec": {
    "schemaVersion": "2.1.0",
    "root": {
      "inputDefinitions": {
        "parameters": {
          "count": {"parameterType": "NUMBER_INTEGER"},
          "name": {"parameterType": "STRING"},
          "layers": {"parameterType": "LIST"}
        }
      }
    }
  }
}`

func TestParseModernDocument(t *testing.T) {
	spec, err := Parse([]byte(modernJSON))
	require.NoError(t, err)

	require.NotNil(t, spec.RuntimeConfig)
	assert.Equal(t, "gs://bucket/root", spec.RuntimeConfig.GCSOutputDirectory)
	assert.Equal(t, "FAIL_SLOW", spec.RuntimeConfig.FailurePolicy)
	assert.Equal(t, map[string]any{
		"count":  float64(3),
		"name":   "training-run",
		"layers": []any{float64(64), float64(32)},
	}, spec.RuntimeConfig.ParameterValues)
	assert.Nil(t, spec.RuntimeConfig.Parameters)

	require.NotNil(t, spec.PipelineSpec)
	assert.Equal(t, "2.1.0", spec.PipelineSpec.SchemaVersion)
	require.NotNil(t, spec.PipelineSpec.Root)
	require.NotNil(t, spec.PipelineSpec.Root.InputDefinitions)
	assert.Equal(t, "STRING", spec.PipelineSpec.Root.InputDefinitions.Parameters["name"].DeclaredType())
}

func TestParseLegacyDocument(t *testing.T) {
	data := []byte(`{
	  "runtimeConfig": {
	    "gcsOutputDirectory": "gs://bucket/root",
	    "parameters": {
	      "x": {"intValue": 5},
	      "y": {"stringValue": "hello"}
	    }
	  },
	  "pipelineSpec": {
	    "schemaVersion": "2.0.0",
	    "root": {
	      "inputDefinitions": {
	        "parameters": {
	          "x": {"type": "INT"},
	          "y": {"type": "STRING"}
	        }
	      }
	    }
	  }
	}`)

	spec, err := Parse(data)
	require.NoError(t, err)

	require.NotNil(t, spec.RuntimeConfig)
	assert.Nil(t, spec.RuntimeConfig.ParameterValues)
	assert.Equal(t, map[string]map[string]any{
		"x": {"intValue": float64(5)},
		"y": {"stringValue": "hello"},
	}, spec.RuntimeConfig.Parameters)

	// The pre-rename type field is still readable.
	assert.Equal(t, "INT", spec.PipelineSpec.Root.InputDefinitions.Parameters["x"].DeclaredType())
}

func TestParseAbsentVersusEmptyParameterValues(t *testing.T) {
	absent, err := Parse([]byte(`{"runtimeConfig": {}, "pipelineSpec": {"schemaVersion": "2.1.0"}}`))
	require.NoError(t, err)
	assert.Nil(t, absent.RuntimeConfig.ParameterValues)

	empty, err := Parse([]byte(`{"runtimeConfig": {"parameterValues": {}}, "pipelineSpec": {"schemaVersion": "2.1.0"}}`))
	require.NoError(t, err)
	require.NotNil(t, empty.RuntimeConfig.ParameterValues)
	assert.Empty(t, empty.RuntimeConfig.ParameterValues)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse job spec JSON")
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
runtimeConfig:
  gcsOutputDirectory: gs://bucket/root
  parameterValues:
    count: 3
    name: training-run
pipelineSpec:
  schemaVersion: 2.1.0
  root:
    inputDefinitions:
      parameters:
        count:
          parameterType: NUMBER_INTEGER
        name:
          parameterType: STRING
`)

	spec, err := ParseYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "gs://bucket/root", spec.RuntimeConfig.GCSOutputDirectory)
	assert.Equal(t, "training-run", spec.RuntimeConfig.ParameterValues["name"])
	assert.Equal(t, "2.1.0", spec.PipelineSpec.SchemaVersion)
	assert.Equal(t, "NUMBER_INTEGER", spec.PipelineSpec.Root.InputDefinitions.Parameters["count"].DeclaredType())
}

func TestFromMap(t *testing.T) {
	doc := map[string]any{
		"runtimeConfig": map[string]any{
			"gcsOutputDirectory": "gs://bucket/root",
			"parameterValues":    map[string]any{"x": "value"},
		},
		"pipelineSpec": map[string]any{
			"schemaVersion": "2.1.0",
			"root": map[string]any{
				"inputDefinitions": map[string]any{
					"parameters": map[string]any{
						"x": map[string]any{"parameterType": "STRING"},
					},
				},
			},
		},
	}

	spec, err := FromMap(doc)
	require.NoError(t, err)

	assert.Equal(t, "gs://bucket/root", spec.RuntimeConfig.GCSOutputDirectory)
	assert.Equal(t, map[string]any{"x": "value"}, spec.RuntimeConfig.ParameterValues)
	assert.Equal(t, "STRING", spec.PipelineSpec.Root.InputDefinitions.Parameters["x"].DeclaredType())
}
