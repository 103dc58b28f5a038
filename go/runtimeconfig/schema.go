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

package runtimeconfig

import (
	"fmt"

	"github.com/blang/semver/v4"
)

// ParameterType is the declared type tag of a pipeline parameter. Legacy
// schema versions (<= 2.0.0) only know the three tags below; newer schema
// versions may declare arbitrary tags since values are written natively.
type ParameterType string

const (
	ParameterTypeInt    ParameterType = "INT"
	ParameterTypeDouble ParameterType = "DOUBLE"
	ParameterTypeString ParameterType = "STRING"
)

// legacySchemaCutoff is the last schema version that uses the typed-value
// envelope wire format ("parameters" key, intValue/doubleValue/stringValue
// wrappers, composite values carried as JSON strings).
var legacySchemaCutoff = semver.MustParse("2.0.0")

// parseSchemaVersion parses a runtime config schema version. Ordering must
// be semantic: "10.0.0" sorts after "2.0.0", which a string comparison gets
// wrong.
func parseSchemaVersion(version string) (semver.Version, error) {
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return semver.Version{}, fmt.Errorf("invalid schema version %q: %w", version, err)
	}
	return v, nil
}

// usesLegacyWireFormat reports whether the given schema version writes the
// legacy typed-value envelope format.
func usesLegacyWireFormat(v semver.Version) bool {
	return v.LTE(legacySchemaCutoff)
}
