/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package ddb implements the publish sink against a single DynamoDB table.
// Each collection lives in its own partition (PK = collection tag, SK =
// record key expanded from the registered index map), so a full replace is a
// partition sweep followed by a batch load.
package ddb

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clansou/medallion/config"
	mederrors "github.com/clansou/medallion/errors"
	"github.com/clansou/medallion/registry"
	"github.com/clansou/medallion/storagemodels"
)

// Record type tags stored in the RecordType attribute of every item.
const (
	recordTypeClient   = "ClientSummary"
	recordTypeProduct  = "ProductStats"
	recordTypeMonthly  = "MonthlySales"
	recordTypeMetadata = "RefreshMetadata"
)

const (
	maxBatchSize = 25
	maxRetries   = 2
	retryDelay   = 500 * time.Millisecond
)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

func init() {
	registry.RegisterIndexMap[storagemodels.ClientSummary](map[string]string{
		"PK": "CLIENTS",
		"SK": "CLIENT#{ClientID}",
	})
	registry.RegisterIndexMap[storagemodels.ProductStats](map[string]string{
		"PK": "PRODUCTS",
		"SK": "PRODUCT#{ProductID}",
	})
	registry.RegisterIndexMap[storagemodels.MonthlySales](map[string]string{
		"PK": "MONTHLY_SALES",
		"SK": "MONTH#{Month}",
	})
	registry.RegisterIndexMap[storagemodels.RefreshMetadata](map[string]string{
		"PK": "METADATA",
		"SK": "REFRESH_INFO",
	})

	registry.RegisterRecordType(recordTypeClient, decodeAs[storagemodels.ClientSummary])
	registry.RegisterRecordType(recordTypeProduct, decodeAs[storagemodels.ProductStats])
	registry.RegisterRecordType(recordTypeMonthly, decodeAs[storagemodels.MonthlySales])
	registry.RegisterRecordType(recordTypeMetadata, decodeAs[storagemodels.RefreshMetadata])
}

func decodeAs[T any](item map[string]types.AttributeValue) (interface{}, error) {
	out := new(T)
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return out, nil
}

// Sink is a DynamoDB-backed publish sink.
type Sink struct {
	client    *sdk.Client
	tableName string
}

// NewSink builds a Sink from static credentials.
func NewSink(ctx context.Context, cfg config.DynamoDB) (*Sink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS configuration: %w", err)
	}

	return &Sink{
		client:    sdk.NewFromConfig(awsCfg),
		tableName: cfg.Table,
	}, nil
}

// ReplaceClients replaces the clients partition.
func (s *Sink) ReplaceClients(ctx context.Context, records []storagemodels.ClientSummary) (storagemodels.CollectionLoad, error) {
	return replacePartition(ctx, s, config.CollectionClients, recordTypeClient, records)
}

// ReplaceProducts replaces the products partition.
func (s *Sink) ReplaceProducts(ctx context.Context, records []storagemodels.ProductStats) (storagemodels.CollectionLoad, error) {
	return replacePartition(ctx, s, config.CollectionProducts, recordTypeProduct, records)
}

// ReplaceMonthlySales replaces the monthly sales partition.
func (s *Sink) ReplaceMonthlySales(ctx context.Context, records []storagemodels.MonthlySales) (storagemodels.CollectionLoad, error) {
	return replacePartition(ctx, s, config.CollectionMonthlySales, recordTypeMonthly, records)
}

// PutRefreshMetadata writes the refresh record under its fixed key.
func (s *Sink) PutRefreshMetadata(ctx context.Context, meta storagemodels.RefreshMetadata) error {
	item, err := marshalRecord(meta, recordTypeMetadata)
	if err != nil {
		return err
	}
	return s.withRetry(ctx, "PutItem", func() error {
		_, err := s.client.PutItem(ctx, &sdk.PutItemInput{
			TableName: &s.tableName,
			Item:      item,
		})
		return err
	})
}

// replacePartition sweeps the previous generation out of the record type's
// partition, then batch-writes the new records.
func replacePartition[T any](ctx context.Context, s *Sink, collection, recordType string, records []T) (storagemodels.CollectionLoad, error) {
	start := time.Now()
	load := storagemodels.CollectionLoad{Collection: collection}

	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return load, mederrors.ErrNoIndexMap
	}
	pk := indexMap["PK"]

	if err := s.deletePartition(ctx, pk); err != nil {
		return load, fmt.Errorf("clear partition %s: %w", pk, err)
	}

	items := make([]map[string]types.AttributeValue, 0, len(records))
	for _, r := range records {
		item, err := marshalRecord(r, recordType)
		if err != nil {
			return load, err
		}
		items = append(items, item)
	}
	if err := s.batchWrite(ctx, items); err != nil {
		return load, fmt.Errorf("load partition %s: %w", pk, err)
	}

	load.Count = len(records)
	load.ElapsedSeconds = time.Since(start).Seconds()
	return load, nil
}

// marshalRecord marshals a record, expands its index map into PK/SK
// attributes and tags it with its RecordType.
func marshalRecord[T any](record T, recordType string) (map[string]types.AttributeValue, error) {
	indexMap, ok := registry.GetIndexMap[T]()
	if !ok {
		return nil, mederrors.ErrNoIndexMap
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}

	expanded, err := expandMacros(indexMap, record)
	if err != nil {
		return nil, err
	}
	for k, v := range expanded {
		av[k] = &types.AttributeValueMemberS{Value: v}
	}
	av["RecordType"] = &types.AttributeValueMemberS{Value: recordType}

	return av, nil
}

// expandMacros fills {Field} placeholders in the key templates from the
// record's marshaled attributes.
func expandMacros(indexMap map[string]string, record any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("marshal record for key expansion: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for field, template := range indexMap {
		expanded := macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			key := strings.Trim(macro, "{}")
			val, ok := av[key]
			if !ok {
				return ""
			}
			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
		res[field] = expanded
	}
	return res, nil
}

// deletePartition queries all keys under a PK and batch-deletes them.
func (s *Sink) deletePartition(ctx context.Context, pk string) error {
	keyCond := "PK = :pk"
	projection := "PK, SK"

	var keys []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		var out *sdk.QueryOutput
		err := s.withRetry(ctx, "Query", func() error {
			var qErr error
			out, qErr = s.client.Query(ctx, &sdk.QueryInput{
				TableName:              &s.tableName,
				KeyConditionExpression: &keyCond,
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":pk": &types.AttributeValueMemberS{Value: pk},
				},
				ProjectionExpression: &projection,
				ExclusiveStartKey:    startKey,
			})
			return qErr
		})
		if err != nil {
			return err
		}

		for _, item := range out.Items {
			keys = append(keys, map[string]types.AttributeValue{
				"PK": item["PK"],
				"SK": item["SK"],
			})
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	for start := 0; start < len(keys); start += maxBatchSize {
		end := min(start+maxBatchSize, len(keys))
		requests := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}
		if err := s.flushBatch(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// batchWrite loads items in chunks of the BatchWriteItem limit.
func (s *Sink) batchWrite(ctx context.Context, items []map[string]types.AttributeValue) error {
	for start := 0; start < len(items); start += maxBatchSize {
		end := min(start+maxBatchSize, len(items))
		requests := make([]types.WriteRequest, 0, end-start)
		for _, item := range items[start:end] {
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}
		if err := s.flushBatch(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// flushBatch sends one batch, re-submitting unprocessed items until done.
func (s *Sink) flushBatch(ctx context.Context, requests []types.WriteRequest) error {
	pending := requests
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt > maxRetries {
			return fmt.Errorf("batch write: %d items still unprocessed after %d attempts", len(pending), attempt)
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}

		var out *sdk.BatchWriteItemOutput
		err := s.withRetry(ctx, "BatchWriteItem", func() error {
			var bErr error
			out, bErr = s.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					s.tableName: pending,
				},
			})
			return bErr
		})
		if err != nil {
			return err
		}
		pending = out.UnprocessedItems[s.tableName]
	}
	return nil
}

// withRetry runs a DynamoDB call with linear-backoff retries on transient
// failures.
func (s *Sink) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, maxRetries+1, lastErr)
}
