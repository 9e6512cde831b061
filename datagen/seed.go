/*
 * Copyright © 2025 Clansou, All rights reserved.
 */

package datagen

import (
	"bytes"
	"context"
	"fmt"

	"github.com/clansou/medallion/config"
	"github.com/clansou/medallion/ctxlog"
	"github.com/clansou/medallion/dataset"
	"github.com/clansou/medallion/objectstore"
)

// Source object keys under the sources bucket.
const (
	ClientsObject   = "clients.csv"
	PurchasesObject = "purchases.csv"
)

// Seed generates both datasets and uploads them as CSV to the sources bucket.
func Seed(ctx context.Context, store objectstore.Store, bucket string, gen config.Generate) error {
	log := ctxlog.FromContext(ctx)

	if err := store.EnsureBucket(ctx, bucket); err != nil {
		return fmt.Errorf("ensure bucket %s: %w", bucket, err)
	}

	g := New(gen.Seed)

	clients := g.Clients(gen.Clients)
	var buf bytes.Buffer
	if err := dataset.WriteClients(&buf, clients); err != nil {
		return fmt.Errorf("encode clients: %w", err)
	}
	if err := store.Put(ctx, bucket, ClientsObject, &buf, "text/csv"); err != nil {
		return fmt.Errorf("upload %s: %w", ClientsObject, err)
	}
	log.Info("generated clients", "count", len(clients), "bucket", bucket, "key", ClientsObject)

	purchases, err := g.Purchases(gen.Purchases, clients)
	if err != nil {
		return fmt.Errorf("generate purchases: %w", err)
	}
	buf.Reset()
	if err := dataset.WritePurchases(&buf, purchases); err != nil {
		return fmt.Errorf("encode purchases: %w", err)
	}
	if err := store.Put(ctx, bucket, PurchasesObject, &buf, "text/csv"); err != nil {
		return fmt.Errorf("upload %s: %w", PurchasesObject, err)
	}
	log.Info("generated purchases", "count", len(purchases), "bucket", bucket, "key", PurchasesObject)

	return nil
}
