package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
	gets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   time.Duration
		ok     bool
	}{
		{"register", http.MethodPost, "/api/v1/auth/register", defaultIdempotencyTTL, true},
		{"order create", http.MethodPost, "/api/v1/orders/create", criticalIdempotencyTTL, true},
		{"order create cod", http.MethodPost, "/api/v1/orders/create-cod", criticalIdempotencyTTL, true},
		{"order cancel", http.MethodPut, "/api/v1/orders/7b9c/cancel", criticalIdempotencyTTL, true},
		{"cancel wrong method", http.MethodPost, "/api/v1/orders/7b9c/cancel", 0, false},
		{"login", http.MethodPost, "/api/v1/auth/login", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.path)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

// The middleware is attached with a group-level Use above mounted subrouters,
// so it must recognize the creation routes before chi resolves the full
// route pattern.
func TestIdempotencyReplaysThroughMountedSubrouter(t *testing.T) {
	store := newFakeStore()
	handlerRuns := 0

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(Idempotency(store, nil))
			r.Route("/orders", func(r chi.Router) {
				r.Post("/create", func(w http.ResponseWriter, req *http.Request) {
					handlerRuns++
					w.WriteHeader(http.StatusCreated)
					_, _ = w.Write([]byte(`{"success":true}`))
				})
			})
		})
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/create", strings.NewReader(`{"delivery_type":"pickup"}`))
		req.Header.Set("Idempotency-Key", "key-1")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}
	if store.gets == 0 {
		t.Fatal("store was never consulted")
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if handlerRuns != 1 {
		t.Fatalf("expected handler to run once, ran %d times", handlerRuns)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("replayed body mismatch: %q vs %q", second.Body.String(), first.Body.String())
	}
}

func TestIdempotencyKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()

	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/create", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-2")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	if code := send(`{"delivery_type":"pickup"}`).Code; code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", code)
	}
	if code := send(`{"delivery_type":"delivery"}`).Code; code != http.StatusConflict {
		t.Fatalf("expected 409 on reused key with new body, got %d", code)
	}
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	store := newFakeStore()
	handlerRuns := 0

	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handlerRuns++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/create", strings.NewReader(`{}`))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
	}
	if handlerRuns != 2 {
		t.Fatalf("expected both requests to reach the handler, got %d", handlerRuns)
	}
	if store.gets != 0 {
		t.Fatal("store should not be consulted without a key")
	}
}
