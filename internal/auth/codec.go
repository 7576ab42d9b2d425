// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package auth

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
)

const bufferType = "Buffer"

// bufferEnvelope is the JSON shape of a binary value.
type bufferEnvelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Encode returns a copy of v in which every []byte leaf is replaced by a
// Buffer envelope. Maps with string keys, slices and arrays of any element
// type are walked recursively; other values pass through untouched.
func Encode(v any) any {
	switch x := v.(type) {
	case []byte:
		return bufferEnvelope{Type: bufferType, Data: base64.StdEncoding.EncodeToString(x)}
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Encode(val)
		}
		return out
	case Credentials:
		return Encode(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Encode(val)
		}
		return out
	default:
		return encodeReflect(v)
	}
}

var byteType = reflect.TypeFor[byte]()

func encodeReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		if rv.Type().Elem() == byteType {
			return Encode(rv.Bytes())
		}
		fallthrough
	case reflect.Array:
		if rv.Type().Elem() == byteType {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return Encode(b)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Encode(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Encode(iter.Value().Interface())
		}
		return out
	default:
		return v
	}
}

// Normalize returns v in the form it takes after a persist and load cycle:
// numbers become float64, containers become map[string]any and []any, and
// binary leaves stay []byte.
func Normalize(v any) (any, error) {
	data, err := MarshalValue(v)
	if err != nil {
		return nil, err
	}
	return UnmarshalValue(data)
}

// Decode is the inverse of Encode for values produced by json.Unmarshal into
// an interface. Envelopes carrying base64 data, or the byte array form that
// other runtimes emit, are revived as []byte.
func Decode(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if b, ok := reviveBuffer(x); ok {
			return b
		}
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Decode(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Decode(val)
		}
		return out
	default:
		return v
	}
}

func reviveBuffer(m map[string]any) ([]byte, bool) {
	if len(m) != 2 || m["type"] != bufferType {
		return nil, false
	}
	switch data := m["data"].(type) {
	case string:
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, false
		}
		return b, true
	case []any:
		b := make([]byte, len(data))
		for i, n := range data {
			f, ok := n.(float64)
			if !ok || f < 0 || f > 255 || f != float64(int(f)) {
				return nil, false
			}
			b[i] = byte(f)
		}
		return b, true
	}
	return nil, false
}

// MarshalValue encodes v to JSON with Buffer envelopes.
func MarshalValue(v any) ([]byte, error) {
	return json.Marshal(Encode(v))
}

// UnmarshalValue decodes JSON produced by MarshalValue.
func UnmarshalValue(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return Decode(raw), nil
}
