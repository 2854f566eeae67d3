package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storefront-session/internal/models"
	"github.com/storefront-session/internal/queue"
	"github.com/storefront-session/internal/snapshot"
	"github.com/storefront-session/internal/storeapi"
)

type cartFixture struct {
	cart    *CartService
	catalog *CatalogService
	session *Session
	store   *snapshot.MemoryStore
	server  *httptest.Server
}

func newCartFixture(t *testing.T, handler http.Handler) *cartFixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api := storeapi.NewClient(storeapi.Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	store := snapshot.NewMemoryStore()
	session := NewSession()
	writer := NewSnapshotWriter(store)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client: %v", err)
	}
	syncService := NewSyncService(api, session, time.Millisecond)
	cart := NewCartService(api, syncService, writer, queueClient)
	catalog := NewCatalogService(api, writer)
	writer.Bind(session, cart, catalog)

	return &cartFixture{cart: cart, catalog: catalog, session: session, store: store, server: server}
}

func testProduct(id uint, price float64) models.Product {
	return models.Product{
		ID:    id,
		Title: "product",
		Price: models.NewMoneyFromFloat(price),
	}
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())

	p := testProduct(7, 9.99)
	if err := f.cart.AddItem(p); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := f.cart.AddItem(p); err != nil {
		t.Fatalf("add item again: %v", err)
	}

	items := f.cart.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
	if got := items[0].TotalPrice.String(); got != "19.98" {
		t.Fatalf("expected total 19.98, got %s", got)
	}
}

func TestAddItemRejectsMissingID(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())

	if err := f.cart.AddItem(models.Product{Title: "no id"}); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("expected ErrProductInvalid, got %v", err)
	}
	if f.cart.Count() != 0 {
		t.Fatalf("cart should stay empty")
	}
}

func TestSetQuantityRejectsNonPositive(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())
	if err := f.cart.AddItem(testProduct(1, 2.50)); err != nil {
		t.Fatalf("add item: %v", err)
	}

	for _, quantity := range []int{0, -3} {
		if err := f.cart.SetQuantity(1, quantity); !errors.Is(err, ErrQuantityInvalid) {
			t.Fatalf("quantity %d: expected ErrQuantityInvalid, got %v", quantity, err)
		}
	}

	if err := f.cart.SetQuantity(1, 4); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	items := f.cart.Items()
	if items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", items[0].Quantity)
	}
	if got := items[0].TotalPrice.String(); got != "10.00" {
		t.Fatalf("expected total 10.00, got %s", got)
	}
}

func TestSetQuantityUnknownProductIsNoop(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())

	if err := f.cart.SetQuantity(99, 3); err != nil {
		t.Fatalf("set quantity on empty cart: %v", err)
	}
	if f.cart.Count() != 0 {
		t.Fatalf("cart should stay empty")
	}
}

func TestDecrementFloorsAtOne(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())
	if err := f.cart.AddItem(testProduct(5, 1.00)); err != nil {
		t.Fatalf("add item: %v", err)
	}

	f.cart.Decrement(5)
	f.cart.Decrement(5)

	items := f.cart.Items()
	if items[0].Quantity != 1 {
		t.Fatalf("expected quantity floored at 1, got %d", items[0].Quantity)
	}

	f.cart.Increment(5)
	f.cart.Decrement(5)
	items = f.cart.Items()
	if items[0].Quantity != 1 {
		t.Fatalf("expected quantity 1 after increment/decrement, got %d", items[0].Quantity)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())
	if err := f.cart.AddItem(testProduct(3, 4.20)); err != nil {
		t.Fatalf("add item: %v", err)
	}

	f.cart.RemoveItem(3)
	f.cart.RemoveItem(3)

	if f.cart.Count() != 0 {
		t.Fatalf("expected empty cart, got %d items", f.cart.Count())
	}
}

func TestTotalAmountSumsLineTotals(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())
	if err := f.cart.AddItem(testProduct(1, 9.99)); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := f.cart.SetQuantity(1, 3); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := f.cart.AddItem(testProduct(2, 0.10)); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if got := f.cart.TotalAmount(); got != "30.07" {
		t.Fatalf("expected total 30.07, got %s", got)
	}

	f.cart.Clear()
	if got := f.cart.TotalAmount(); got != "0.00" {
		t.Fatalf("expected empty total 0.00, got %s", got)
	}
}

func mergeHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/carts/user/1", func(w http.ResponseWriter, r *http.Request) {
		carts := []models.RemoteCart{
			{ID: 10, UserID: 1, Products: []models.RemoteCartLine{{ProductID: 1, Quantity: 1}}},
			{ID: 11, UserID: 1, Products: []models.RemoteCartLine{{ProductID: 2, Quantity: 3}}},
		}
		json.NewEncoder(w).Encode(carts)
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testProduct(1, 9.99))
	})
	mux.HandleFunc("/products/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testProduct(2, 5.00))
	})
	return mux
}

func TestMergeRemoteAddsQuantitiesAndKeepsLocalOnly(t *testing.T) {
	f := newCartFixture(t, mergeHandler(t))

	if err := f.cart.AddItem(testProduct(1, 9.99)); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := f.cart.SetQuantity(1, 2); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := f.cart.AddItem(testProduct(9, 1.50)); err != nil {
		t.Fatalf("add local-only item: %v", err)
	}

	if err := f.cart.MergeRemote(context.Background(), 1); err != nil {
		t.Fatalf("merge remote: %v", err)
	}

	items := f.cart.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 line items, got %d", len(items))
	}

	byID := make(map[uint]models.LineItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	if byID[1].Quantity != 3 {
		t.Fatalf("product 1: expected quantity 3, got %d", byID[1].Quantity)
	}
	if got := byID[1].TotalPrice.String(); got != "29.97" {
		t.Fatalf("product 1: expected total 29.97, got %s", got)
	}
	if byID[2].Quantity != 3 {
		t.Fatalf("product 2: expected quantity 3, got %d", byID[2].Quantity)
	}
	if byID[9].Quantity != 1 {
		t.Fatalf("local-only product 9 should survive merge")
	}

	if f.store.Empty() {
		t.Fatalf("merge should persist a snapshot")
	}
}

func TestMergeRemoteCombinesDuplicateRemoteLines(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/carts/user/1", func(w http.ResponseWriter, r *http.Request) {
		carts := []models.RemoteCart{
			{ID: 10, UserID: 1, Products: []models.RemoteCartLine{{ProductID: 1, Quantity: 2}}},
			{ID: 11, UserID: 1, Products: []models.RemoteCartLine{{ProductID: 1, Quantity: 5}}},
		}
		json.NewEncoder(w).Encode(carts)
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testProduct(1, 2.00))
	})
	f := newCartFixture(t, mux)

	if err := f.cart.MergeRemote(context.Background(), 1); err != nil {
		t.Fatalf("merge remote: %v", err)
	}

	items := f.cart.Items()
	if len(items) != 1 {
		t.Fatalf("expected duplicates combined into 1 line, got %d", len(items))
	}
	if items[0].Quantity != 7 {
		t.Fatalf("expected quantity 7, got %d", items[0].Quantity)
	}
	if got := items[0].TotalPrice.String(); got != "14.00" {
		t.Fatalf("expected total 14.00, got %s", got)
	}
}

func TestMergeRemoteSkipsFailingItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/carts/user/1", func(w http.ResponseWriter, r *http.Request) {
		carts := []models.RemoteCart{
			{ID: 10, UserID: 1, Products: []models.RemoteCartLine{
				{ProductID: 1, Quantity: 1},
				{ProductID: 2, Quantity: 4},
			}},
		}
		json.NewEncoder(w).Encode(carts)
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testProduct(1, 3.00))
	})
	mux.HandleFunc("/products/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	f := newCartFixture(t, mux)

	if err := f.cart.MergeRemote(context.Background(), 1); err != nil {
		t.Fatalf("merge remote: %v", err)
	}

	items := f.cart.Items()
	if len(items) != 1 {
		t.Fatalf("expected only the resolvable item, got %d lines", len(items))
	}
	if items[0].ID != 1 {
		t.Fatalf("expected product 1, got %d", items[0].ID)
	}
}

func TestMergeRemoteFetchFailureKeepsLocalCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/carts/user/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	f := newCartFixture(t, mux)

	if err := f.cart.AddItem(testProduct(4, 2.00)); err != nil {
		t.Fatalf("add item: %v", err)
	}

	if err := f.cart.MergeRemote(context.Background(), 1); !errors.Is(err, ErrMergeAborted) {
		t.Fatalf("expected ErrMergeAborted, got %v", err)
	}

	items := f.cart.Items()
	if len(items) != 1 || items[0].ID != 4 || items[0].Quantity != 1 {
		t.Fatalf("local cart should be untouched on merge failure, got %+v", items)
	}
}

func TestRestoreDoesNotTriggerSideEffects(t *testing.T) {
	f := newCartFixture(t, http.NotFoundHandler())

	f.cart.Restore([]models.LineItem{models.NewLineItem(testProduct(1, 1.00), 2)})

	if f.cart.Count() != 1 {
		t.Fatalf("expected restored cart")
	}
	if !f.store.Empty() {
		t.Fatalf("restore must not write snapshots")
	}
}
