/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package pipeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/clansou/medallion/dataset"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Fallbacks for non-critical missing values.
const (
	unknownName    = "Unknown"
	unknownCountry = "Unknown"
	unknownProduct = "Unknown Product"
)

// QualityReport summarizes a raw dataset before cleaning: row volume,
// duplicate ids, and missing values per column.
type QualityReport struct {
	Rows          int            `json:"rows"`
	DuplicateIDs  int            `json:"duplicate_ids"`
	MissingValues map[string]int `json:"missing_values,omitempty"`
}

// inspectClientRows computes the pre-clean quality report for raw client rows.
func inspectClientRows(rows []dataset.ClientRow) QualityReport {
	report := QualityReport{Rows: len(rows), MissingValues: make(map[string]int)}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		markMissing(report.MissingValues, "client_id", row.ID)
		markMissing(report.MissingValues, "name", row.Name)
		markMissing(report.MissingValues, "email", row.Email)
		markMissing(report.MissingValues, "date_inscription", row.Inscribed)
		markMissing(report.MissingValues, "country", row.Country)

		if id := strings.TrimSpace(row.ID); id != "" {
			if seen[id] {
				report.DuplicateIDs++
			}
			seen[id] = true
		}
	}
	return report
}

// inspectPurchaseRows computes the pre-clean quality report for raw purchase
// rows.
func inspectPurchaseRows(rows []dataset.PurchaseRow) QualityReport {
	report := QualityReport{Rows: len(rows), MissingValues: make(map[string]int)}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		markMissing(report.MissingValues, "purchase_id", row.ID)
		markMissing(report.MissingValues, "client_id", row.ClientID)
		markMissing(report.MissingValues, "date_purchase", row.Date)
		markMissing(report.MissingValues, "amount", row.Amount)
		markMissing(report.MissingValues, "product", row.Product)

		if id := strings.TrimSpace(row.ID); id != "" {
			if seen[id] {
				report.DuplicateIDs++
			}
			seen[id] = true
		}
	}
	return report
}

func markMissing(m map[string]int, column, value string) {
	if strings.TrimSpace(value) == "" {
		m[column]++
	}
}

// CleaningStats accounts for every row removed during a cleaning pass, by
// reason.
type CleaningStats struct {
	InitialRows         int     `json:"initial_rows"`
	RemovedNullCritical int     `json:"removed_null_critical"`
	RemovedInvalidDates int     `json:"removed_invalid_dates"`
	RemovedInvalidEmail int     `json:"removed_invalid_emails,omitempty"`
	RemovedInvalidAmts  int     `json:"removed_invalid_amounts,omitempty"`
	RemovedInvalidRefs  int     `json:"removed_invalid_clients,omitempty"`
	RemovedOutliers     int     `json:"removed_outliers,omitempty"`
	RemovedDuplicates   int     `json:"removed_duplicates"`
	FinalRows           int     `json:"final_rows"`
	DataLossPct         float64 `json:"data_loss_percentage"`
}

func (s *CleaningStats) finish() {
	if s.InitialRows > 0 {
		s.DataLossPct = float64(s.InitialRows-s.FinalRows) / float64(s.InitialRows) * 100
	}
}

// cleanClientRow validates a single raw client row. Invalid rows return false
// after bumping the matching removal counter.
func cleanClientRow(row dataset.ClientRow, now time.Time, stats *CleaningStats) (dataset.Client, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(row.ID))
	if strings.TrimSpace(row.ID) == "" || strings.TrimSpace(row.Email) == "" || err != nil {
		stats.RemovedNullCritical++
		return dataset.Client{}, false
	}

	inscribed, err := time.Parse(dataset.DateLayout, strings.TrimSpace(row.Inscribed))
	if err != nil || inscribed.After(now) {
		stats.RemovedInvalidDates++
		return dataset.Client{}, false
	}

	email := strings.ToLower(strings.TrimSpace(row.Email))
	if !emailPattern.MatchString(email) {
		stats.RemovedInvalidEmail++
		return dataset.Client{}, false
	}

	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = unknownName
	}
	country := strings.TrimSpace(row.Country)
	if country == "" {
		country = unknownCountry
	}

	return dataset.Client{
		ID:        id,
		Name:      name,
		Email:     email,
		Inscribed: inscribed,
		Country:   country,
	}, true
}

// finalizeClients deduplicates by id, then by email, keeping the first
// occurrence, and sorts by id.
func finalizeClients(clients []dataset.Client, stats *CleaningStats) []dataset.Client {
	before := len(clients)
	seenID := make(map[int]bool, len(clients))
	seenEmail := make(map[string]bool, len(clients))

	out := clients[:0]
	for _, c := range clients {
		if seenID[c.ID] || seenEmail[c.Email] {
			continue
		}
		seenID[c.ID] = true
		seenEmail[c.Email] = true
		out = append(out, c)
	}
	stats.RemovedDuplicates = before - len(out)

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	stats.FinalRows = len(out)
	stats.finish()
	return out
}

// cleanPurchaseRow validates a single raw purchase row against the set of
// surviving client ids.
func cleanPurchaseRow(row dataset.PurchaseRow, validClients map[int]bool, now time.Time, stats *CleaningStats) (dataset.Purchase, bool) {
	idRaw := strings.TrimSpace(row.ID)
	clientRaw := strings.TrimSpace(row.ClientID)
	amountRaw := strings.TrimSpace(row.Amount)
	dateRaw := strings.TrimSpace(row.Date)

	if idRaw == "" || clientRaw == "" || amountRaw == "" || dateRaw == "" {
		stats.RemovedNullCritical++
		return dataset.Purchase{}, false
	}

	id, err := strconv.Atoi(idRaw)
	if err != nil {
		stats.RemovedNullCritical++
		return dataset.Purchase{}, false
	}
	clientID, err := strconv.Atoi(clientRaw)
	if err != nil {
		stats.RemovedNullCritical++
		return dataset.Purchase{}, false
	}

	date, err := time.Parse(dataset.DateLayout, dateRaw)
	if err != nil || date.After(now) {
		stats.RemovedInvalidDates++
		return dataset.Purchase{}, false
	}

	amount, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil || amount <= 0 {
		stats.RemovedInvalidAmts++
		return dataset.Purchase{}, false
	}

	if !validClients[clientID] {
		stats.RemovedInvalidRefs++
		return dataset.Purchase{}, false
	}

	product := strings.TrimSpace(row.Product)
	if product == "" {
		product = unknownProduct
	}

	return dataset.Purchase{
		ID:       id,
		ClientID: clientID,
		Date:     date,
		Amount:   amount,
		Product:  product,
	}, true
}

// finalizePurchases trims amount outliers outside [Q1 - k*IQR, Q3 + k*IQR],
// deduplicates by purchase id keeping the first occurrence, and sorts by id.
func finalizePurchases(purchases []dataset.Purchase, iqrMultiplier float64, stats *CleaningStats) []dataset.Purchase {
	if len(purchases) > 0 {
		amounts := make([]float64, len(purchases))
		for i, p := range purchases {
			amounts[i] = p.Amount
		}
		sort.Float64s(amounts)
		q1 := quantile(amounts, 0.25)
		q3 := quantile(amounts, 0.75)
		iqr := q3 - q1
		lower := q1 - iqrMultiplier*iqr
		upper := q3 + iqrMultiplier*iqr

		before := len(purchases)
		kept := purchases[:0]
		for _, p := range purchases {
			if p.Amount >= lower && p.Amount <= upper {
				kept = append(kept, p)
			}
		}
		purchases = kept
		stats.RemovedOutliers = before - len(purchases)
	}

	before := len(purchases)
	seen := make(map[int]bool, len(purchases))
	out := purchases[:0]
	for _, p := range purchases {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	stats.RemovedDuplicates = before - len(out)

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	stats.FinalRows = len(out)
	stats.finish()
	return out
}

// quantile computes a linearly interpolated quantile over a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
