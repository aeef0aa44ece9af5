package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/orderfall/orderfall/pkg/api"
)

func testConfig() Config {
	return Config{
		ShopDomain:  "test-shop.myshopify.com",
		AccessToken: "token",
		StartDate:   "2024-03-01",
		EndDate:     "2024-03-31",
	}
}

func newTestSource(t *testing.T, handler http.HandlerFunc) (*Source, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := New(server.Client(), testConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src.endpoint = server.URL
	return src, server
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func pageResponse(hasNext bool, cursor string, orderIDs ...string) string {
	edges := make([]string, 0, len(orderIDs))
	for _, id := range orderIDs {
		edges = append(edges, fmt.Sprintf(`{"node": {
			"id": %q, "name": "#%s", "createdAt": "2024-03-15T10:00:00Z",
			"subtotalPriceSet": {"shopMoney": {"amount": "100.00"}},
			"totalPriceSet": {"shopMoney": {"amount": "110.00"}},
			"lineItems": {"edges": []}
		}}`, id, id))
	}
	return fmt.Sprintf(`{"data": {"orders": {
		"edges": [%s],
		"pageInfo": {"hasNextPage": %v, "endCursor": %q}
	}}}`, strings.Join(edges, ","), hasNext, cursor)
}

func collectOrders(t *testing.T, src *Source) []*api.Order {
	t.Helper()
	out := make(chan *api.Order, 100)
	errCh := make(chan error, 1)
	go func() {
		errCh <- src.Fetch(context.Background(), out)
	}()

	var orders []*api.Order
	for order := range out {
		orders = append(orders, order)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	return orders
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing domain", func(c *Config) { c.ShopDomain = "" }},
		{"missing token", func(c *Config) { c.AccessToken = "" }},
		{"missing start date", func(c *Config) { c.StartDate = "" }},
		{"bad end date", func(c *Config) { c.EndDate = "03/31/2024" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := New(nil, cfg, nil); err == nil {
				t.Error("New: expected error")
			}
		})
	}
}

func TestNewStripsScheme(t *testing.T) {
	cfg := testConfig()
	cfg.ShopDomain = "https://test-shop.myshopify.com/"

	src, err := New(nil, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := "https://test-shop.myshopify.com/admin/api/" + DefaultAPIVersion + "/graphql.json"
	if src.endpoint != want {
		t.Errorf("endpoint: got %q, want %q", src.endpoint, want)
	}
}

func TestFetch_Paginates(t *testing.T) {
	var requests []gqlRequest
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		requests = append(requests, req)

		if r.Header.Get("X-Shopify-Access-Token") != "token" {
			t.Error("missing access token header")
		}

		if len(requests) == 1 {
			fmt.Fprint(w, pageResponse(true, "cursor-1", "1", "2"))
		} else {
			fmt.Fprint(w, pageResponse(false, "", "3"))
		}
	})

	orders := collectOrders(t, src)

	if len(orders) != 3 {
		t.Fatalf("orders: got %d, want 3", len(orders))
	}
	if orders[2].OrderNumber != "3" {
		t.Errorf("last order: got %q, want 3", orders[2].OrderNumber)
	}

	if len(requests) != 2 {
		t.Fatalf("requests: got %d, want 2", len(requests))
	}
	if _, ok := requests[0].Variables["after"]; ok {
		t.Error("first request should have no cursor")
	}
	if got := requests[1].Variables["after"]; got != "cursor-1" {
		t.Errorf("second request cursor: got %v, want cursor-1", got)
	}

	search, _ := requests[0].Variables["query"].(string)
	want := "created_at:>=2024-03-01 AND created_at:<2024-04-01"
	if search != want {
		t.Errorf("search filter: got %q, want %q", search, want)
	}
}

func TestFetch_HalvesPageSizeOnCostExceeded(t *testing.T) {
	var firsts []float64
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		first, _ := req.Variables["first"].(float64)
		firsts = append(firsts, first)

		if len(firsts) == 1 {
			fmt.Fprint(w, `{"errors": [{"message": "too expensive", "extensions": {"code": "MAX_COST_EXCEEDED"}}]}`)
			return
		}
		fmt.Fprint(w, pageResponse(false, "", "1"))
	})

	orders := collectOrders(t, src)

	if len(orders) != 1 {
		t.Fatalf("orders: got %d, want 1", len(orders))
	}
	if len(firsts) != 2 || firsts[0] != 50 || firsts[1] != 25 {
		t.Errorf("page sizes: got %v, want [50 25]", firsts)
	}
}

func TestFetch_FallsBackWithoutCostQuery(t *testing.T) {
	var queries []string
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		queries = append(queries, req.Query)

		if len(queries) == 1 {
			fmt.Fprint(w, `{"errors": [{"message": "Access denied for unitCost field", "extensions": {"code": "ACCESS_DENIED"}}]}`)
			return
		}
		fmt.Fprint(w, pageResponse(false, "", "1"))
	})

	orders := collectOrders(t, src)

	if len(orders) != 1 {
		t.Fatalf("orders: got %d, want 1", len(orders))
	}
	if len(queries) != 2 {
		t.Fatalf("requests: got %d, want 2", len(queries))
	}
	if !strings.Contains(queries[0], "unitCost") {
		t.Error("first query should request unit costs")
	}
	if strings.Contains(queries[1], "unitCost") {
		t.Error("fallback query should not request unit costs")
	}
}

func TestFetch_UnauthorizedFailsFast(t *testing.T) {
	var requests int
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusUnauthorized)
	})

	out := make(chan *api.Order, 1)
	err := src.Fetch(context.Background(), out)
	if err == nil {
		t.Fatal("Fetch: expected error")
	}
	if requests != 1 {
		t.Errorf("requests: got %d, want 1 (no retries on auth failure)", requests)
	}
}
