/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package dataset

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestWriteReadClients(t *testing.T) {
	clients := []Client{
		{ID: 1, Name: "Ada Lovelace", Email: "ada@example.com", Inscribed: date(t, "2023-04-01"), Country: "UK"},
		{ID: 2, Name: "Blaise Pascal", Email: "blaise@example.com", Inscribed: date(t, "2024-11-12"), Country: "France"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteClients(&buf, clients))

	rows, err := ReadClientRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].ID)
	assert.Equal(t, "ada@example.com", rows[0].Email)
	assert.Equal(t, "2024-11-12", rows[1].Inscribed)
	assert.Equal(t, "France", rows[1].Country)
}

func TestReadPurchaseRowsPadsShortRecords(t *testing.T) {
	in := "purchase_id,client_id,date_purchase,amount,product\n" +
		"1,2,2024-01-15,99.90,Laptop\n" +
		"2,3,2024-01-16\n"

	rows, err := ReadPurchaseRows(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Laptop", rows[0].Product)
	// Short row: missing fields come back empty, not as a read error.
	assert.Equal(t, "2", rows[1].ID)
	assert.Empty(t, rows[1].Amount)
	assert.Empty(t, rows[1].Product)
}

func TestReadClientRowsEmptyInput(t *testing.T) {
	rows, err := ReadClientRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestJSONLinesRoundTrip(t *testing.T) {
	purchases := []Purchase{
		{ID: 1, ClientID: 7, Date: date(t, "2024-03-01"), Amount: 19.99, Product: "Mouse"},
		{ID: 2, ClientID: 8, Date: date(t, "2024-03-02"), Amount: 450, Product: "Monitor"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSONLines(&buf, purchases))

	got, err := ReadJSONLines[Purchase](&buf)
	require.NoError(t, err)
	assert.Equal(t, purchases, got)
}

func TestStreamPurchaseRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("purchase_id,client_id,date_purchase,amount,product\n")
	for i := 0; i < 100; i++ {
		sb.WriteString("1,2,2024-01-15,10.00,Laptop\n")
	}

	var progressCalls int
	ch := StreamPurchaseRows(context.Background(), strings.NewReader(sb.String()),
		WithBufferSize(8),
		WithProgressEvery(25),
		WithProgressHandler(func(p StreamProgress) { progressCalls++ }),
	)

	var count int64
	for res := range ch {
		require.NoError(t, res.Error)
		assert.Equal(t, count, res.Meta.Index)
		count++
	}
	assert.Equal(t, int64(100), count)
	// 4 periodic reports plus the final one.
	assert.Equal(t, 5, progressCalls)
}

func TestStreamClientRowsCancel(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("client_id,name,email,date_inscription,country\n")
	for i := 0; i < 1000; i++ {
		sb.WriteString("1,Ada,ada@example.com,2023-04-01,UK\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := StreamClientRows(ctx, strings.NewReader(sb.String()), WithBufferSize(1))

	// Consume a few rows then cancel; the channel must close.
	for i := 0; i < 3; i++ {
		<-ch
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancel")
		}
	}
}
