/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package registry

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	ID string
}

type otherRecord struct {
	ID string
}

func TestIndexMapRoundTrip(t *testing.T) {
	RegisterIndexMap[sampleRecord](map[string]string{
		"PK": "SAMPLE#{ID}",
		"SK": "SAMPLE",
	})

	m, ok := GetIndexMap[sampleRecord]()
	require.True(t, ok)
	assert.Equal(t, "SAMPLE#{ID}", m["PK"])

	_, ok = GetIndexMap[otherRecord]()
	assert.False(t, ok)
}

func TestDecodeRegistry(t *testing.T) {
	RegisterRecordType("Sample", func(item map[string]types.AttributeValue) (interface{}, error) {
		return &sampleRecord{ID: "decoded"}, nil
	})

	fn, err := GetDecodeFunc("Sample")
	require.NoError(t, err)

	rec, err := fn(nil)
	require.NoError(t, err)
	assert.Equal(t, &sampleRecord{ID: "decoded"}, rec)

	_, err = GetDecodeFunc("Missing")
	assert.Error(t, err)
}

func TestDuplicateRecordTypePanics(t *testing.T) {
	RegisterRecordType("Dup", func(map[string]types.AttributeValue) (interface{}, error) { return nil, nil })
	assert.Panics(t, func() {
		RegisterRecordType("Dup", func(map[string]types.AttributeValue) (interface{}, error) { return nil, nil })
	})
}
