/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Index maps associate a record type with its DynamoDB key templates
// (e.g. PK "CLIENT#{ClientID}", SK "SUMMARY"). Macros in braces are expanded
// from the record's fields at persist time.

var (
	indexMapRegistry = make(map[reflect.Type]map[string]string)
	mu               sync.RWMutex
)

// RegisterIndexMap associates record type T with its key templates.
func RegisterIndexMap[T any](idxMap map[string]string) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.Lock()
	defer mu.Unlock()
	indexMapRegistry[t] = idxMap
}

// GetIndexMap retrieves the index map for type T, if any.
func GetIndexMap[T any]() (map[string]string, bool) {
	var zero T
	t := reflect.TypeOf(zero)

	mu.RLock()
	defer mu.RUnlock()
	m, ok := indexMapRegistry[t]
	return m, ok
}

// DecodeFunc turns a raw DynamoDB item back into a typed record.
type DecodeFunc func(item map[string]types.AttributeValue) (interface{}, error)

var (
	decodeRegistry = make(map[string]DecodeFunc)
	decodeMu       sync.RWMutex
)

// RegisterRecordType registers a decode function under a record-type tag
// (the RecordType attribute injected at persist time). Registering the same
// tag twice panics to prevent accidental overrides.
func RegisterRecordType(tag string, fn DecodeFunc) {
	decodeMu.Lock()
	defer decodeMu.Unlock()
	if _, exists := decodeRegistry[tag]; exists {
		panic(fmt.Sprintf("registry: record type %q already registered", tag))
	}
	decodeRegistry[tag] = fn
}

// GetDecodeFunc returns the decode function registered for the given tag.
func GetDecodeFunc(tag string) (DecodeFunc, error) {
	decodeMu.RLock()
	defer decodeMu.RUnlock()
	fn, ok := decodeRegistry[tag]
	if !ok {
		return nil, fmt.Errorf("registry: no record type registered for tag %q", tag)
	}
	return fn, nil
}
