/*
Package objectstore defines the object storage interface for the medallion
buckets (sources, bronze, silver, gold).

Implementations:
  - s3: S3-compatible backend (MinIO in the documented local stack)
  - memory: in-memory backend for tests
*/
package objectstore
