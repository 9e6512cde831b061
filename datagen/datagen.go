/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

// Package datagen produces the synthetic source datasets the pipeline ingests.
// Generation is fully deterministic for a given seed.
package datagen

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/clansou/medallion/dataset"
	mederrors "github.com/clansou/medallion/errors"
)

// Countries assigned to generated clients.
var Countries = []string{"USA", "Canada", "UK", "Germany", "France", "Australia"}

// Products assigned to generated purchases.
var Products = []string{"Laptop", "Phone", "Tablet", "Headphones", "Monitor", "Keyboard", "Mouse", "Webcam", "Speaker", "Charger"}

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda",
	"William", "Elizabeth", "David", "Barbara", "Richard", "Susan", "Joseph", "Jessica",
	"Thomas", "Sarah", "Charles", "Karen", "Daniel", "Nancy", "Matthew", "Lisa",
	"Anthony", "Betty", "Mark", "Margaret", "Paul", "Sandra", "Steven", "Ashley",
	"Andrew", "Emily", "Kenneth", "Donna", "Joshua", "Michelle", "Kevin", "Carol",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
	"White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker",
	"Young", "Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
}

var emailDomains = []string{"example.com", "example.org", "example.net", "mail.com", "fastmail.io"}

// Generator emits deterministic client and purchase datasets. The purchase
// window mirrors the client inscription window, three years back to one month
// back from the reference time.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

// New creates a Generator anchored on the current time.
func New(seed int64) *Generator {
	return NewAt(seed, time.Now())
}

// NewAt creates a Generator anchored on a fixed reference time, for tests.
func NewAt(seed int64, now time.Time) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: now.Truncate(24 * time.Hour),
	}
}

// Clients generates n clients with sequential ids starting at 1.
func (g *Generator) Clients(n int) []dataset.Client {
	clients := make([]dataset.Client, 0, n)
	for i := 1; i <= n; i++ {
		first := firstNames[g.rng.Intn(len(firstNames))]
		last := lastNames[g.rng.Intn(len(lastNames))]
		clients = append(clients, dataset.Client{
			ID:        i,
			Name:      first + " " + last,
			Email:     g.email(first, last),
			Inscribed: g.dateInWindow(),
			Country:   Countries[g.rng.Intn(len(Countries))],
		})
	}
	return clients
}

// Purchases generates n purchases referencing the given clients. Every
// purchase points at an existing client id, so the client set must not be
// empty.
func (g *Generator) Purchases(n int, clients []dataset.Client) ([]dataset.Purchase, error) {
	if len(clients) == 0 {
		return nil, mederrors.NewValidationError("clients", "purchase generation needs at least one client")
	}
	purchases := make([]dataset.Purchase, 0, n)
	for i := 1; i <= n; i++ {
		client := clients[g.rng.Intn(len(clients))]
		purchases = append(purchases, dataset.Purchase{
			ID:       i,
			ClientID: client.ID,
			Date:     g.dateInWindow(),
			Amount:   round2(10.0 + g.rng.Float64()*990.0),
			Product:  Products[g.rng.Intn(len(Products))],
		})
	}
	return purchases, nil
}

// dateInWindow picks a day between three years and one month before the
// reference time.
func (g *Generator) dateInWindow() time.Time {
	start := g.now.AddDate(-3, 0, 0)
	end := g.now.AddDate(0, -1, 0)
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, g.rng.Intn(days+1))
}

func (g *Generator) email(first, last string) string {
	domain := emailDomains[g.rng.Intn(len(emailDomains))]
	local := strings.ToLower(first) + "." + strings.ToLower(last)
	// Suffix most addresses so distinct clients rarely collide.
	if g.rng.Intn(10) > 0 {
		local = fmt.Sprintf("%s%d", local, g.rng.Intn(1000))
	}
	return local + "@" + domain
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
