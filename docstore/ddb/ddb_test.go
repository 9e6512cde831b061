/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package ddb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clansou/medallion/registry"
	"github.com/clansou/medallion/storagemodels"
)

func TestExpandMacros(t *testing.T) {
	indexMap, ok := registry.GetIndexMap[storagemodels.ClientSummary]()
	require.True(t, ok)

	record := storagemodels.ClientSummary{ClientID: 42, Name: "Alice Martin"}
	expanded, err := expandMacros(indexMap, record)
	require.NoError(t, err)

	assert.Equal(t, "CLIENTS", expanded["PK"])
	assert.Equal(t, "CLIENT#42", expanded["SK"])
}

func TestExpandMacrosUnknownField(t *testing.T) {
	expanded, err := expandMacros(map[string]string{"SK": "X#{NoSuchField}"}, storagemodels.ProductStats{})
	require.NoError(t, err)
	assert.Equal(t, "X#", expanded["SK"])
}

func TestMarshalRecordInjectsKeysAndRecordType(t *testing.T) {
	record := storagemodels.MonthlySales{Month: "2024-03", Revenue: 1234.56}

	item, err := marshalRecord(record, recordTypeMonthly)
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: "MONTHLY_SALES"}, item["PK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "MONTH#2024-03"}, item["SK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: recordTypeMonthly}, item["RecordType"])
}

func TestDecodeRegisteredRecordType(t *testing.T) {
	item, err := marshalRecord(storagemodels.ProductStats{Product: "Laptop Pro", ProductID: 3, Revenue: 99.5}, recordTypeProduct)
	require.NoError(t, err)

	fn, err := registry.GetDecodeFunc(recordTypeProduct)
	require.NoError(t, err)

	decoded, err := fn(item)
	require.NoError(t, err)
	product, ok := decoded.(*storagemodels.ProductStats)
	require.True(t, ok)
	assert.Equal(t, "Laptop Pro", product.Product)
	assert.Equal(t, 99.5, product.Revenue)
}
