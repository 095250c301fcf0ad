// Package jsonutil centralises JSON encode/decode behind sonic, matching
// the teacher's convention of importing its own encoding/json wrapper
// rather than the standard library package directly at every call site.
package jsonutil

import (
	stdjson "encoding/json"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) { return api.Marshal(v) }

// Unmarshal decodes JSON data into v.
func Unmarshal(data []byte, v any) error { return api.Unmarshal(data, v) }

// RawMessage is an uninterpreted JSON value, mirroring encoding/json.RawMessage.
type RawMessage = stdjson.RawMessage
