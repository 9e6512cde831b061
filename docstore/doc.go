/*
Package docstore defines the serving store contracts: Sink, the write side the
pipeline publishes gold records into, and Analytics, the read side the API
queries.

Implementations:
  - mongo: MongoDB, the default backend, implements both sides
  - ddb: DynamoDB publish sink (write side only)
  - memory: in-memory implementation of both sides for tests
*/
package docstore
