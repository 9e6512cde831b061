/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package medallion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/docstore"
	"github.com/clansou/medallion/docstore/memory"
)

func TestSinkRegistry(t *testing.T) {
	reg := NewSinkRegistry()
	opened := 0
	open := func(ctx context.Context, cfg config.Config) (docstore.Sink, func(), error) {
		opened++
		return memory.New(), nil, nil
	}

	require.NoError(t, reg.Register("memory", open))
	assert.Error(t, reg.Register("memory", open))

	sink, cleanup, err := reg.Open(context.Background(), "memory", config.Config{})
	require.NoError(t, err)
	require.NotNil(t, sink)
	require.NotNil(t, cleanup)
	cleanup()
	assert.Equal(t, 1, opened)

	_, _, err = reg.Open(context.Background(), "absent", config.Config{})
	assert.Error(t, err)

	assert.ElementsMatch(t, []string{"memory"}, reg.Keys())
}

func TestSinkRegistryResolvesByConfigKey(t *testing.T) {
	reg := NewSinkRegistry()
	var gotTable string
	open := func(ctx context.Context, cfg config.Config) (docstore.Sink, func(), error) {
		gotTable = cfg.DynamoDB.Table
		return memory.New(), func() {}, nil
	}
	require.NoError(t, reg.Register(config.SinkDynamoDB, open))

	cfg := config.Default()
	cfg.Sink = config.SinkDynamoDB
	cfg.DynamoDB.Table = "analytics-gold"

	sink, cleanup, err := reg.Open(context.Background(), cfg.Sink, cfg)
	require.NoError(t, err)
	require.NotNil(t, sink)
	cleanup()
	assert.Equal(t, "analytics-gold", gotTable)
}
