/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package pipeline

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clansou/medallion/dataset"
)

var cleanNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

const clientsCSV = `client_id,name,email,date_inscription,country
1,Alice Martin,alice@example.com,2024-01-15,France
2,,bob@example.com,2024-02-01,
3,Carol Jones,not-an-email,2024-03-01,UK
4,Dan Smith,dan@example.com,bad-date,USA
5,Eve Adams,eve@example.com,2030-01-01,Canada
6,Frank Moore,FRANK@Example.COM ,2024-04-01,Germany
6,Frank Dupe,frank2@example.com,2024-04-02,Germany
7,Grace Lee,frank@example.com,2024-05-01,France
,missing,missing@example.com,2024-01-01,UK
`

func TestCleanClients(t *testing.T) {
	clients, stats, err := BufferedEngine{}.CleanClients(context.Background(), strings.NewReader(clientsCSV), cleanNow)
	require.NoError(t, err)

	// Survivors: 1, 2 (name/country filled), 6 (email lowercased).
	// Dropped: 3 (email), 4 (date), 5 (future date), dup 6 (id), 7 (email dup
	// of 6 after lowering), last row (missing id).
	require.Len(t, clients, 3)
	assert.Equal(t, []int{1, 2, 6}, []int{clients[0].ID, clients[1].ID, clients[2].ID})

	assert.Equal(t, "Unknown", clients[1].Name)
	assert.Equal(t, "Unknown", clients[1].Country)
	assert.Equal(t, "frank@example.com", clients[2].Email)

	assert.Equal(t, 9, stats.InitialRows)
	assert.Equal(t, 1, stats.RemovedNullCritical)
	assert.Equal(t, 2, stats.RemovedInvalidDates)
	assert.Equal(t, 1, stats.RemovedInvalidEmail)
	assert.Equal(t, 2, stats.RemovedDuplicates)
	assert.Equal(t, 3, stats.FinalRows)
	assert.InDelta(t, 66.67, stats.DataLossPct, 0.01)
}

const purchasesCSV = `purchase_id,client_id,date_purchase,amount,product
1,1,2024-05-01,100.00,Laptop
2,1,2024-05-02,-5.00,Phone
3,2,2024-05-03,0,Tablet
4,99,2024-05-04,50.00,Mouse
5,1,2024-05-05,120.00,
6,1,bad-date,80.00,Monitor
7,2,2030-01-01,80.00,Monitor
8,2,2024-05-06,abc,Keyboard
9,,2024-05-07,90.00,Speaker
9,2,2024-05-08,95.00,Speaker
9,2,2024-05-09,96.00,Speaker
10,2,2024-05-10,110.00,Charger
`

func TestCleanPurchases(t *testing.T) {
	valid := map[int]bool{1: true, 2: true}
	purchases, stats, err := BufferedEngine{}.CleanPurchases(context.Background(), strings.NewReader(purchasesCSV), valid, 3, cleanNow)
	require.NoError(t, err)

	// Survivors: 1, 5 (product filled), 9 (first occurrence), 10.
	require.Len(t, purchases, 4)
	assert.Equal(t, []int{1, 5, 9, 10}, []int{purchases[0].ID, purchases[1].ID, purchases[2].ID, purchases[3].ID})
	assert.Equal(t, "Unknown Product", purchases[1].Product)

	assert.Equal(t, 12, stats.InitialRows)
	assert.Equal(t, 1, stats.RemovedNullCritical)
	assert.Equal(t, 2, stats.RemovedInvalidDates)
	assert.Equal(t, 3, stats.RemovedInvalidAmts)
	assert.Equal(t, 1, stats.RemovedInvalidRefs)
	assert.Equal(t, 1, stats.RemovedDuplicates)
	assert.Equal(t, 4, stats.FinalRows)
}

func TestInitialQualityReports(t *testing.T) {
	rows, err := dataset.ReadClientRows(strings.NewReader(clientsCSV))
	require.NoError(t, err)
	report := inspectClientRows(rows)
	assert.Equal(t, 9, report.Rows)
	assert.Equal(t, 1, report.DuplicateIDs)
	assert.Equal(t, map[string]int{"client_id": 1, "name": 1, "country": 1}, report.MissingValues)

	prows, err := dataset.ReadPurchaseRows(strings.NewReader(purchasesCSV))
	require.NoError(t, err)
	preport := inspectPurchaseRows(prows)
	assert.Equal(t, 12, preport.Rows)
	assert.Equal(t, 2, preport.DuplicateIDs)
	assert.Equal(t, map[string]int{"client_id": 1, "product": 1}, preport.MissingValues)
}

func TestOutlierTrimming(t *testing.T) {
	rows := []dataset.PurchaseRow{}
	for i := 1; i <= 20; i++ {
		rows = append(rows, dataset.PurchaseRow{
			ID:       strconv.Itoa(i),
			ClientID: "1",
			Date:     "2024-05-01",
			Amount:   "100.00",
			Product:  "Laptop",
		})
	}
	rows = append(rows, dataset.PurchaseRow{ID: "21", ClientID: "1", Date: "2024-05-01", Amount: "1000000.00", Product: "Laptop"})

	var sb strings.Builder
	sb.WriteString("purchase_id,client_id,date_purchase,amount,product\n")
	for _, r := range rows {
		sb.WriteString(strings.Join([]string{r.ID, r.ClientID, r.Date, r.Amount, r.Product}, ","))
		sb.WriteString("\n")
	}

	purchases, stats, err := BufferedEngine{}.CleanPurchases(context.Background(), strings.NewReader(sb.String()), map[int]bool{1: true}, 3, cleanNow)
	require.NoError(t, err)

	assert.Len(t, purchases, 20)
	assert.Equal(t, 1, stats.RemovedOutliers)
}

func TestStreamingEngineMatchesBuffered(t *testing.T) {
	ctx := context.Background()

	bufClients, bufStats, err := BufferedEngine{}.CleanClients(ctx, strings.NewReader(clientsCSV), cleanNow)
	require.NoError(t, err)
	strClients, strStats, err := StreamingEngine{}.CleanClients(ctx, strings.NewReader(clientsCSV), cleanNow)
	require.NoError(t, err)

	assert.Equal(t, bufClients, strClients)
	assert.Equal(t, bufStats, strStats)

	valid := map[int]bool{1: true, 2: true}
	bufPurchases, bufPStats, err := BufferedEngine{}.CleanPurchases(ctx, strings.NewReader(purchasesCSV), valid, 3, cleanNow)
	require.NoError(t, err)
	strPurchases, strPStats, err := StreamingEngine{}.CleanPurchases(ctx, strings.NewReader(purchasesCSV), valid, 3, cleanNow)
	require.NoError(t, err)

	assert.Equal(t, bufPurchases, strPurchases)
	assert.Equal(t, bufPStats, strPStats)
}

func TestQuantileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, quantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 2.5, quantile(sorted, 0.5), 1e-9)
	assert.InDelta(t, 3.25, quantile(sorted, 0.75), 1e-9)
	assert.Equal(t, 4.0, quantile(sorted, 1))
}
