/*
Package medallion is a sales analytics platform built on the medallion lake
architecture: synthetic source CSVs land in an S3-compatible object store,
are cleaned into a validated silver layer, aggregated into business-ready
gold tables, and published to a document store served over HTTP.

Layout:
  - datagen: deterministic synthetic clients and purchases
  - objectstore: S3-compatible lake access (MinIO in the local stack)
  - pipeline: bronze ingestion, silver cleaning, gold aggregation, publish
  - docstore: serving store backends (MongoDB, DynamoDB, in-memory)
  - api: the read-only analytics HTTP API
  - cmd/medallion: the CLI entrypoint

Basic Usage:

	cfg, _ := config.Load()
	store, _ := s3.New(cfg.ObjectStore)
	sink, _ := mongo.Connect(ctx, cfg.Mongo)

	runner := &pipeline.Runner{Store: store, Sink: sink, Config: cfg}
	report, err := runner.Run(ctx, pipeline.Options{})
*/
package medallion
