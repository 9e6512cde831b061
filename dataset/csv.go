/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Column orders match the source generators; bronze objects are copied
// verbatim, so the silver stage depends on these exact headers.
var (
	clientHeader   = []string{"client_id", "name", "email", "date_inscription", "country"}
	purchaseHeader = []string{"purchase_id", "client_id", "date_purchase", "amount", "product"}
)

// WriteClients encodes cleaned clients as CSV with the canonical header.
func WriteClients(w io.Writer, clients []Client) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(clientHeader); err != nil {
		return fmt.Errorf("write client header: %w", err)
	}
	for _, c := range clients {
		rec := []string{
			strconv.Itoa(c.ID),
			c.Name,
			c.Email,
			c.Inscribed.Format(DateLayout),
			c.Country,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write client %d: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePurchases encodes cleaned purchases as CSV with the canonical header.
func WritePurchases(w io.Writer, purchases []Purchase) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(purchaseHeader); err != nil {
		return fmt.Errorf("write purchase header: %w", err)
	}
	for _, p := range purchases {
		rec := []string{
			strconv.Itoa(p.ID),
			strconv.Itoa(p.ClientID),
			p.Date.Format(DateLayout),
			strconv.FormatFloat(p.Amount, 'f', 2, 64),
			p.Product,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write purchase %d: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadClientRows decodes raw client rows. Field values are not validated here;
// short rows are padded with empty strings so cleaning can count them as
// missing values rather than failing the whole file.
func ReadClientRows(r io.Reader) ([]ClientRow, error) {
	records, err := readAll(r, len(clientHeader))
	if err != nil {
		return nil, fmt.Errorf("read client rows: %w", err)
	}
	rows := make([]ClientRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ClientRow{
			ID:        rec[0],
			Name:      rec[1],
			Email:     rec[2],
			Inscribed: rec[3],
			Country:   rec[4],
		})
	}
	return rows, nil
}

// ReadPurchaseRows decodes raw purchase rows.
func ReadPurchaseRows(r io.Reader) ([]PurchaseRow, error) {
	records, err := readAll(r, len(purchaseHeader))
	if err != nil {
		return nil, fmt.Errorf("read purchase rows: %w", err)
	}
	rows := make([]PurchaseRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, PurchaseRow{
			ID:       rec[0],
			ClientID: rec[1],
			Date:     rec[2],
			Amount:   rec[3],
			Product:  rec[4],
		})
	}
	return rows, nil
}

// readAll consumes a CSV stream, skips the header, and pads or truncates each
// record to want fields.
func readAll(r io.Reader, want int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var out [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pad(rec, want))
	}
	return out, nil
}

func pad(rec []string, want int) []string {
	if len(rec) == want {
		return rec
	}
	padded := make([]string, want)
	copy(padded, rec)
	return padded
}
