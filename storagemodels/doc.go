/*
Package storagemodels holds the record types that cross storage boundaries:
gold-layer summaries published to the serving store and the query shapes the
API reads back. Timestamps use strfmt.DateTime so the same struct marshals
cleanly to JSON, BSON and DynamoDB attribute values.
*/
package storagemodels
