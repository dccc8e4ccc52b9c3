package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/fetcher"
)

func newServer(t *testing.T, handler http.HandlerFunc) *fetcher.HTTPFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return fetcher.NewHTTPFetcher(srv.URL, 2*time.Second, nil)
}

func TestHTTPFetcher_Success(t *testing.T) {
	f := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wishlists/somestreamer" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"items":[
			{"id":"p1","name":"Mug","price":12.5},
			{"product_id":"p2","external_id":"e2","name":"Chair"}
		]}`))
	})

	snap, err := f.Fetch(context.Background(), "SomeStreamer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Success || len(snap.Items) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Items[0].Key.ProductID != "p1" {
		t.Fatalf("expected id to fall back to product id, got %+v", snap.Items[0].Key)
	}
	if snap.Items[1].Key != (domain.ItemKey{ProductID: "p2", ExternalID: "e2"}) {
		t.Fatalf("unexpected key %+v", snap.Items[1].Key)
	}
}

func TestHTTPFetcher_RateLimited(t *testing.T) {
	f := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := f.Fetch(context.Background(), "x")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestHTTPFetcher_ServerError(t *testing.T) {
	f := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := f.Fetch(context.Background(), "x")
	if !errors.Is(err, domain.ErrFetchFailed) || errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected plain ErrFetchFailed, got %v", err)
	}
}

func TestHTTPFetcher_Unsuccessful(t *testing.T) {
	f := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	snap, err := f.Fetch(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Success {
		t.Fatal("expected unsuccessful snapshot")
	}
}
