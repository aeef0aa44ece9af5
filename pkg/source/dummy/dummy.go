// Package dummy implements a Source that generates sample orders for
// offline runs and testing, used whenever no Shopify credentials are
// configured.
package dummy

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/orderfall/orderfall/pkg/api"
)

// DefaultCount is the number of orders generated when none is configured.
const DefaultCount = 15

type product struct {
	title       string
	price       float64
	vendor      string
	productType string
	tags        []string
	collections []string
}

var catalog = []product{
	{"Consignment Art Piece", 150.00, "Monsoon Chocolate", "Art", []string{"Consignment", "Art"}, []string{"Art Collection"}},
	{"Standard Furniture", 299.99, "Furniture Co", "Furniture", []string{"Inventory"}, []string{"Furniture"}},
	{"Consignment Vintage Lamp", 89.50, "Vintage Store", "Lighting", []string{"Consignment", "Vintage"}, []string{"Vintage Collection"}},
	{"Premium Sofa", 599.99, "Furniture Co", "Furniture", []string{"Premium"}, []string{"Furniture"}},
	{"Art Consignment Collection", 250.00, "Monsoon Chocolate", "Art", []string{"Consignment", "Art"}, []string{"Art Collection"}},
}

// Config holds the dummy source configuration.
type Config struct {
	// StartDate and EndDate bound the generated order dates, YYYY-MM-DD.
	StartDate string
	EndDate   string
	// Count is the number of orders to generate. Defaults to DefaultCount.
	Count int
	// Seed fixes the random sequence; zero seeds from the clock.
	Seed int64
}

// Source generates sample orders spread across a date range.
type Source struct {
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger
}

// New creates a new dummy source.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	if cfg.StartDate == "" || cfg.EndDate == "" {
		return nil, fmt.Errorf("dummy source: start and end dates are required")
	}
	if _, err := time.Parse("2006-01-02", cfg.StartDate); err != nil {
		return nil, fmt.Errorf("dummy source: invalid start date %q: %w", cfg.StartDate, err)
	}
	if _, err := time.Parse("2006-01-02", cfg.EndDate); err != nil {
		return nil, fmt.Errorf("dummy source: invalid end date %q: %w", cfg.EndDate, err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Source{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}, nil
}

// Fetch generates the configured number of orders and sends them to out.
func (s *Source) Fetch(ctx context.Context, out chan<- *api.Order) error {
	defer close(out)

	start, _ := time.Parse("2006-01-02", s.cfg.StartDate)
	end, _ := time.Parse("2006-01-02", s.cfg.EndDate)
	rangeDays := int(end.Sub(start).Hours() / 24)

	for i := 0; i < s.cfg.Count; i++ {
		order := s.generate(i, start, rangeDays)
		select {
		case out <- order:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Info("generated sample orders", "count", s.cfg.Count)
	return nil
}

func (s *Source) generate(i int, start time.Time, rangeDays int) *api.Order {
	// Spread order dates evenly across the range.
	var dayOffset int
	if s.cfg.Count > 1 {
		dayOffset = (i * rangeDays) / (s.cfg.Count - 1)
	}
	createdAt := start.AddDate(0, 0, dayOffset)

	numItems := 1 + s.rng.Intn(3)
	if numItems > len(catalog) {
		numItems = len(catalog)
	}
	picks := s.rng.Perm(len(catalog))[:numItems]

	var subtotal, totalCost float64
	lineItems := make([]api.LineItem, 0, numItems)
	for j, pick := range picks {
		p := catalog[pick]
		subtotal += p.price
		// Sample cost of goods is half the sale price.
		cost := p.price * 0.5
		totalCost += cost

		lineItems = append(lineItems, api.LineItem{
			ID:          strconv.Itoa(10000 + i*10 + j),
			Title:       p.title,
			Name:        p.title,
			Quantity:    1,
			Price:       money(p.price),
			Cost:        money(cost),
			Vendor:      p.vendor,
			ProductType: p.productType,
			Tags:        p.tags,
			Collections: p.collections,
		})
	}

	tax := subtotal * 0.10

	return &api.Order{
		ID:          strconv.Itoa(1000 + i),
		OrderNumber: strconv.Itoa(2000 + i),
		CreatedAt:   createdAt.Format(time.RFC3339),
		Email:       fmt.Sprintf("customer%d@example.com", i),
		Customer: api.Customer{
			FirstName: fmt.Sprintf("Customer%d", i),
			LastName:  "Test",
		},
		LineItems:     lineItems,
		SubtotalPrice: money(subtotal),
		TotalTax:      money(tax),
		TaxLines: []api.TaxLine{
			{Title: "Sales Tax", Amount: money(tax), RatePercentage: "10", RateDisplay: "10%"},
		},
		TotalPrice: money(subtotal + tax),
		TotalCost:  money(totalCost),
		Currency:   "USD",
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
