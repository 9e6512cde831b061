/*
Package errors provides semantic error types for the medallion platform.

Sentinel errors support errors.Is checks across package boundaries:

	record, err := store.Client(ctx, id)
	if errors.IsNotFound(err) {
	    // serve a 404
	}

Typed errors carry context (dataset names, failed checks, backend names) while
still matching their sentinel through an Is method, so callers can branch on
category without losing detail.
*/
package errors
