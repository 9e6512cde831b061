/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:9000", cfg.ObjectStore.Endpoint)
	assert.Equal(t, "minioadmin", cfg.ObjectStore.AccessKey)
	assert.False(t, cfg.ObjectStore.Secure)
	assert.Equal(t, 27017, cfg.Mongo.Port)
	assert.Equal(t, "analytics", cfg.Mongo.Database)
	assert.Equal(t, "localhost:8000", cfg.API.Addr())
	assert.Equal(t, SinkMongo, cfg.Sink)
	assert.Equal(t, BucketBronze, cfg.Buckets.Bronze)
	assert.Equal(t, float64(3), cfg.Cleaning.IQRMultiplier)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "minio.internal:9900")
	t.Setenv("MINIO_SECURE", "TRUE")
	t.Setenv("MONGODB_PORT", "27018")
	t.Setenv("API_PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "minio.internal:9900", cfg.ObjectStore.Endpoint)
	assert.True(t, cfg.ObjectStore.Secure)
	assert.Equal(t, 27018, cfg.Mongo.Port)
	assert.Equal(t, 8081, cfg.API.Port)
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("MONGODB_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 27017, cfg.Mongo.Port)
}

func TestMongoURI(t *testing.T) {
	m := Mongo{Host: "db", Port: 27017, Username: "admin", Password: "secret"}
	assert.Equal(t, "mongodb://admin:secret@db:27017", m.URI())
}

func TestDynamoSinkRequiresTable(t *testing.T) {
	t.Setenv("MEDALLION_SINK", SinkDynamoDB)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_DDB_TABLE")

	t.Setenv("AWS_DDB_TABLE", "analytics-gold")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SinkDynamoDB, cfg.Sink)
}

func TestUnknownSinkRejected(t *testing.T) {
	t.Setenv("MEDALLION_SINK", "redis")

	_, err := Load()
	require.Error(t, err)
}

func TestYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medallion.yaml")
	overlay := `
buckets:
  bronze: raw
  gold: curated
cleaning:
  iqr_multiplier: 1.5
generate:
  clients: 10
  purchases: 50
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))
	t.Setenv("MEDALLION_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "raw", cfg.Buckets.Bronze)
	assert.Equal(t, "curated", cfg.Buckets.Gold)
	// Untouched keys keep their defaults.
	assert.Equal(t, "silver", cfg.Buckets.Silver)
	assert.Equal(t, 1.5, cfg.Cleaning.IQRMultiplier)
	assert.Equal(t, 10, cfg.Generate.Clients)
}

func TestZeroGenerateVolumeRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medallion.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generate:\n  clients: 0\n"), 0o644))
	t.Setenv("MEDALLION_CONFIG", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate volumes")
}

func TestYAMLOverlayMissingFile(t *testing.T) {
	t.Setenv("MEDALLION_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}
