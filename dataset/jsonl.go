/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSONLines encodes records as newline-delimited JSON. Silver and gold
// objects use this encoding.
func WriteJSONLines[T any](w io.Writer, records []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadJSONLines decodes newline-delimited JSON records.
func ReadJSONLines[T any](r io.Reader) ([]T, error) {
	var out []T
	dec := json.NewDecoder(r)
	for i := 0; ; i++ {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		out = append(out, rec)
	}
}
