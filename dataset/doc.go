/*
Package dataset defines the domain records of the platform and their codecs.

Source and bronze objects are CSV with fixed headers; silver and gold objects
are newline-delimited JSON. Raw rows are decoded to string-typed row structs so
the silver stage can classify every defect (missing value, bad date, bad
amount) instead of failing a whole file on the first malformed field.

Rows can also be consumed as a stream:

	rows := dataset.StreamPurchaseRows(ctx, reader,
	    dataset.WithBufferSize(512),
	    dataset.WithProgressHandler(func(p dataset.StreamProgress) {
	        log.Printf("read %d rows", p.RowsProcessed)
	    }),
	)
	for res := range rows {
	    if res.Error != nil { ... }
	    use(res.Item)
	}
*/
package dataset
