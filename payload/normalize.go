// Package payload converts diagnostic data attached to a test into stable text for reports.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Indent is the number of spaces used for nested structured payloads
const Indent = 2

// Normalize returns the textual form of a payload.
//
// Absent payloads become types.NoDataPayload, strings are returned unchanged and
// structured values (mappings, sequences, structs, raw JSON documents) are rendered
// as indented YAML. Raw JSON and ordered maps keep their key order, plain Go maps
// are emitted with sorted keys. If a value cannot be serialized the result falls
// back to its fmt representation, or to its type name when that representation
// would contain addresses (funcs, channels) that change between runs.
func Normalize(v any) (out string) {
	if isNil(v) {
		return types.NoDataPayload
	}

	defer func() {
		if r := recover(); r != nil {
			out = fallback(v)
		}
	}()

	switch p := v.(type) {
	case string:
		return p
	case json.RawMessage:
		return normalizeJSON(p)
	case []byte:
		return string(p)
	case *orderedmap.OrderedMap[string, any]:
		node, err := orderedNode(p)
		if err != nil {
			return fallback(v)
		}
		return encode(node, v)
	case yaml.Node:
		return encode(&p, v)
	case *yaml.Node:
		return encode(p, v)
	case error:
		return p.Error()
	case fmt.Stringer:
		return p.String()
	}

	if isStructured(v) {
		return encode(v, v)
	}
	return fallback(v)
}

// normalizeJSON re-encodes a JSON document as YAML keeping the original key order.
// Invalid documents are returned verbatim.
func normalizeJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return types.NoDataPayload
	}
	if !json.Valid(trimmed) {
		return string(raw)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return string(raw)
	}
	resetStyle(&node)
	return encode(&node, string(raw))
}

// resetStyle switches flow/quoted JSON styles to block style so the output is indented
func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}

func orderedNode(om *orderedmap.OrderedMap[string, any]) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		key := &yaml.Node{}
		if err := key.Encode(pair.Key); err != nil {
			return nil, err
		}
		value, err := valueNode(pair.Value)
		if err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

func valueNode(v any) (*yaml.Node, error) {
	if om, ok := v.(*orderedmap.OrderedMap[string, any]); ok {
		return orderedNode(om)
	}
	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return node, nil
}

func encode(v any, original any) string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(Indent)
	if err := enc.Encode(v); err != nil {
		return fallback(original)
	}
	if err := enc.Close(); err != nil {
		return fallback(original)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// maxUnstableDepth bounds the search for address-valued fields
const maxUnstableDepth = 8

func fallback(v any) string {
	if hasUnstableValue(reflect.ValueOf(v), 0) {
		return fmt.Sprintf("%T", v)
	}
	return fmt.Sprintf("%+v", v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface,
		reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

// hasUnstableValue reports whether rv holds a func, channel or unsafe pointer,
// whose fmt form is a memory address
func hasUnstableValue(rv reflect.Value, depth int) bool {
	if !rv.IsValid() || depth > maxUnstableDepth {
		return false
	}
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return hasUnstableValue(rv.Elem(), depth+1)
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if hasUnstableValue(iter.Key(), depth+1) || hasUnstableValue(iter.Value(), depth+1) {
				return true
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if hasUnstableValue(rv.Index(i), depth+1) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if hasUnstableValue(rv.Field(i), depth+1) {
				return true
			}
		}
	}
	return false
}

func isStructured(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}
