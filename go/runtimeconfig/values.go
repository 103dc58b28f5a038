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
	"encoding/json"
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// newValue converts a plain JSON-like Go value (nil, bool, number, string,
// []any, map[string]any) into its structpb representation. The conversion
// allocates fresh structures, so the builder never aliases caller-owned
// maps or slices.
func newValue(v any) (*structpb.Value, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported parameter value %v: %w", v, err)
	}
	return pv, nil
}

// newValueMap converts a map of plain values. A nil input yields a nil map.
func newValueMap(values map[string]any) (map[string]*structpb.Value, error) {
	if values == nil {
		return nil, nil
	}
	out := make(map[string]*structpb.Value, len(values))
	for name, v := range values {
		pv, err := newValue(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		out[name] = pv
	}
	return out, nil
}

// stringifyComposite returns the JSON string form of a composite or boolean
// value. The legacy wire format has no native slot for maps, lists or
// booleans, so they travel as encoded strings.
func stringifyComposite(v *structpb.Value) (*structpb.Value, error) {
	data, err := json.Marshal(v.AsInterface())
	if err != nil {
		return nil, fmt.Errorf("cannot encode composite value as JSON: %w", err)
	}
	return structpb.NewStringValue(string(data)), nil
}

// isComposite reports whether a value needs JSON-string encoding on the
// legacy path: struct, list and bool values all do.
func isComposite(v *structpb.Value) bool {
	switch v.GetKind().(type) {
	case *structpb.Value_StructValue, *structpb.Value_ListValue, *structpb.Value_BoolValue:
		return true
	default:
		return false
	}
}

// decodeLegacyParameter reconstructs a plain value from a legacy typed-value
// wrapper. The keys are checked in a fixed priority order (int, double,
// string); a wrapper with none of them is rejected.
func decodeLegacyParameter(wrapper map[string]any) (*structpb.Value, error) {
	if raw, ok := wrapper["intValue"]; ok {
		n, err := coerceInt(raw)
		if err != nil {
			return nil, err
		}
		return structpb.NewNumberValue(float64(n)), nil
	}
	if raw, ok := wrapper["doubleValue"]; ok {
		f, err := coerceFloat(raw)
		if err != nil {
			return nil, err
		}
		return structpb.NewNumberValue(f), nil
	}
	if raw, ok := wrapper["stringValue"]; ok {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("got unknown type of value: %v", raw)
		}
		return structpb.NewStringValue(s), nil
	}
	return nil, fmt.Errorf("got unknown type of value: %v", wrapper)
}

// encodeLegacyParameter wraps a value in the typed-value envelope selected
// by the parameter's declared type.
func encodeLegacyParameter(v *structpb.Value, declared ParameterType) (map[string]any, error) {
	switch declared {
	case ParameterTypeInt:
		return map[string]any{"intValue": asWireNumber(v, true)}, nil
	case ParameterTypeDouble:
		return map[string]any{"doubleValue": asWireNumber(v, false)}, nil
	case ParameterTypeString:
		return map[string]any{"stringValue": v.AsInterface()}, nil
	default:
		return nil, fmt.Errorf("got unknown type of value: %v", declared)
	}
}

// asWireNumber unwraps a value for a numeric envelope. Integer-typed
// parameters are written as int64 when the stored number is whole, so the
// document serializes as 5 rather than 5.0. Non-numeric values pass through
// unchanged, mirroring the permissive envelope assembly of the legacy
// format.
func asWireNumber(v *structpb.Value, integral bool) any {
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return v.AsInterface()
	}
	if integral && nv.NumberValue == float64(int64(nv.NumberValue)) {
		return int64(nv.NumberValue)
	}
	return nv.NumberValue
}

func coerceInt(raw any) (int64, error) {
	switch n := raw.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("got unknown type of value: %v", raw)
	}
}

func coerceFloat(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("got unknown type of value: %v", raw)
	}
}
