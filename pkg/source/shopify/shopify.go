// Package shopify implements a Source that fetches orders from the
// Shopify GraphQL Admin API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/orderfall/orderfall/pkg/api"
)

// DefaultAPIVersion is the Admin API version queried when none is
// configured.
const DefaultAPIVersion = "2025-10"

const (
	defaultPageSize = 50
	minPageSize     = 10
)

// Config holds the Shopify source configuration.
type Config struct {
	// ShopDomain is the myshopify domain, with or without scheme.
	ShopDomain string
	// AccessToken is the Admin API access token.
	AccessToken string
	// APIVersion overrides DefaultAPIVersion.
	APIVersion string
	// StartDate and EndDate bound the fetch, inclusive, YYYY-MM-DD.
	StartDate string
	EndDate   string
	// PageSize is the initial page size; it is halved automatically when
	// the API reports query cost limits.
	PageSize int
}

// Source fetches orders page by page from the Admin API.
type Source struct {
	httpClient *http.Client
	cfg        Config
	endpoint   string
	logger     *slog.Logger
}

// New creates a new Shopify source.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	if cfg.ShopDomain == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("shopify source: shop domain and access token are required")
	}
	if cfg.StartDate == "" || cfg.EndDate == "" {
		return nil, fmt.Errorf("shopify source: start and end dates are required")
	}
	if _, err := time.Parse("2006-01-02", cfg.StartDate); err != nil {
		return nil, fmt.Errorf("shopify source: invalid start date %q: %w", cfg.StartDate, err)
	}
	if _, err := time.Parse("2006-01-02", cfg.EndDate); err != nil {
		return nil, fmt.Errorf("shopify source: invalid end date %q: %w", cfg.EndDate, err)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}

	domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(cfg.ShopDomain, "https://"), "http://"), "/")
	cfg.ShopDomain = domain

	return &Source{
		httpClient: httpClient,
		cfg:        cfg,
		endpoint:   fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, cfg.APIVersion),
		logger:     logger,
	}, nil
}

// Fetch pages through the configured date range and sends transformed
// orders to out. The channel is closed when the fetch finishes or fails.
func (s *Source) Fetch(ctx context.Context, out chan<- *api.Order) error {
	defer close(out)

	end, _ := time.Parse("2006-01-02", s.cfg.EndDate)
	// The range filter uses < next-day rather than <= end so orders from
	// the day after the end date are excluded regardless of time zone.
	search := fmt.Sprintf("created_at:>=%s AND created_at:<%s",
		s.cfg.StartDate, end.AddDate(0, 0, 1).Format("2006-01-02"))

	pageSize := s.cfg.PageSize
	withCost := true
	cursor := ""
	fetched := 0

	// Buffered until a full restart is no longer possible: page-size and
	// cost-query downgrades restart pagination from the beginning, so
	// orders are only emitted once the page that produced them cannot be
	// re-fetched.
	var pending []*api.Order

	for {
		page, err := s.queryPage(ctx, search, pageSize, cursor, withCost)
		if err != nil {
			var qerr *queryError
			switch {
			case errors.As(err, &qerr) && qerr.costExceeded && pageSize > minPageSize:
				pageSize = max(minPageSize, pageSize/2)
				cursor = ""
				pending = pending[:0]
				s.logger.Warn("query cost exceeded, reducing page size", "page_size", pageSize)
				continue
			case errors.As(err, &qerr) && qerr.costAccessDenied && withCost:
				withCost = false
				cursor = ""
				pending = pending[:0]
				s.logger.Warn("no access to product costs, retrying without cost data")
				continue
			default:
				return fmt.Errorf("fetching orders: %w", err)
			}
		}

		for _, edge := range page.Edges {
			order := transformOrder(edge.Node)
			pending = append(pending, &order)
		}

		if page.PageInfo.HasNextPage {
			cursor = page.PageInfo.EndCursor
			continue
		}

		for _, order := range pending {
			select {
			case out <- order:
				fetched++
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		s.logger.Info("order fetch complete",
			"orders", fetched,
			"start", s.cfg.StartDate,
			"end", s.cfg.EndDate,
			"with_cost", withCost,
		)
		return nil
	}
}

// queryError carries the GraphQL error classification the fetch loop
// reacts to.
type queryError struct {
	costExceeded     bool
	costAccessDenied bool
	messages         []string
}

func (e *queryError) Error() string {
	if len(e.messages) > 0 {
		return "graphql errors: " + strings.Join(e.messages, "; ")
	}
	switch {
	case e.costExceeded:
		return "graphql query cost exceeded"
	case e.costAccessDenied:
		return "graphql access denied on cost fields"
	}
	return "graphql error"
}

type ordersPage struct {
	Edges []struct {
		Node orderNode `json:"node"`
	} `json:"edges"`
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
}

type gqlResponse struct {
	Data struct {
		Orders *ordersPage `json:"orders"`
	} `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

func (s *Source) queryPage(ctx context.Context, search string, pageSize int, cursor string, withCost bool) (*ordersPage, error) {
	query := queryWithoutCost
	if withCost {
		query = queryWithCost
	}

	variables := map[string]any{
		"first": pageSize,
		"query": search,
	}
	if cursor != "" {
		variables["after"] = cursor
	}

	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var body []byte
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Shopify-Access-Token", s.cfg.AccessToken)

			resp, err := s.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("reading response: %w", err)
			}

			switch {
			case resp.StatusCode == http.StatusUnauthorized:
				return retry.Unrecoverable(fmt.Errorf("access denied: invalid access token or insufficient permissions"))
			case resp.StatusCode == http.StatusForbidden:
				return retry.Unrecoverable(fmt.Errorf("access forbidden: token is missing the read_orders scope"))
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(fmt.Errorf("shop not found: check the shop domain %q", s.cfg.ShopDomain))
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("HTTP %d from shopify", resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(body), 200)))
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	var decoded gqlResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w (body: %s)", err, truncate(string(body), 500))
	}

	if len(decoded.Errors) > 0 {
		qerr := &queryError{}
		for _, gqlErr := range decoded.Errors {
			msg := gqlErr.Message
			switch {
			case gqlErr.Extensions.Code == "MAX_COST_EXCEEDED":
				qerr.costExceeded = true
			case strings.Contains(msg, "inventoryItem") || strings.Contains(msg, "unitCost"):
				qerr.costAccessDenied = true
			case gqlErr.Extensions.Code == "ACCESS_DENIED":
				qerr.messages = append(qerr.messages, "access denied: "+msg)
			default:
				qerr.messages = append(qerr.messages, msg)
			}
		}
		// Cost classification errors are recoverable by the fetch loop;
		// anything else fails the fetch.
		if len(qerr.messages) > 0 || qerr.costExceeded || qerr.costAccessDenied {
			return nil, qerr
		}
	}

	if decoded.Data.Orders == nil {
		return nil, fmt.Errorf("unexpected response shape: no orders in data (body: %s)", truncate(string(body), 500))
	}
	return decoded.Data.Orders, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
