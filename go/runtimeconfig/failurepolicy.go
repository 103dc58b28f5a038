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

import "fmt"

// FailurePolicy controls whether a pipeline keeps scheduling independent
// tasks after a task failure (FailSlow) or stops scheduling new tasks as
// soon as a failure is observed (FailFast).
type FailurePolicy int

const (
	// FailurePolicyUnspecified means no policy was set. It is never
	// written to the wire document.
	FailurePolicyUnspecified FailurePolicy = iota
	FailSlow
	FailFast
)

// wire names, as accepted and produced in runtime config documents.
const (
	failSlowWire = "FAIL_SLOW"
	failFastWire = "FAIL_FAST"
)

// ParseFailurePolicy maps the user-facing aliases "slow" and "fast" to a
// policy. The aliases are case-sensitive; anything else is rejected with an
// error that echoes the input.
func ParseFailurePolicy(alias string) (FailurePolicy, error) {
	switch alias {
	case "slow":
		return FailSlow, nil
	case "fast":
		return FailFast, nil
	default:
		return FailurePolicyUnspecified, fmt.Errorf("failure_policy should be either 'slow' or 'fast', but got: %q", alias)
	}
}

// FailurePolicyFromWire maps the wire-format enum name back to a policy.
// Empty input means unspecified.
func FailurePolicyFromWire(name string) (FailurePolicy, error) {
	switch name {
	case "":
		return FailurePolicyUnspecified, nil
	case failSlowWire:
		return FailSlow, nil
	case failFastWire:
		return FailFast, nil
	default:
		return FailurePolicyUnspecified, fmt.Errorf("unknown failure policy: %q", name)
	}
}

// String returns the wire-format enum name.
func (p FailurePolicy) String() string {
	switch p {
	case FailSlow:
		return failSlowWire
	case FailFast:
		return failFastWire
	default:
		return "FAILURE_POLICY_UNSPECIFIED"
	}
}
