/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package dataset

import "time"

// DateLayout is the wire format for dates in source CSV files.
const DateLayout = "2006-01-02"

// Client is a cleaned client record.
type Client struct {
	ID        int       `json:"client_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Inscribed time.Time `json:"date_inscription"`
	Country   string    `json:"country"`
}

// Purchase is a cleaned purchase record.
type Purchase struct {
	ID       int       `json:"purchase_id"`
	ClientID int       `json:"client_id"`
	Date     time.Time `json:"date_purchase"`
	Amount   float64   `json:"amount"`
	Product  string    `json:"product"`
}

// ClientRow is a raw client CSV row before cleaning. All fields are kept as
// strings so the silver stage can account for every removal reason.
type ClientRow struct {
	ID        string
	Name      string
	Email     string
	Inscribed string
	Country   string
}

// PurchaseRow is a raw purchase CSV row before cleaning.
type PurchaseRow struct {
	ID       string
	ClientID string
	Date     string
	Amount   string
	Product  string
}
