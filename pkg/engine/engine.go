package engine

import (
	"log/slog"
	"sync"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/rules"
)

// Config holds the engine configuration for a batch run.
type Config struct {
	// Rules is the ordered rule set. It must not be mutated while a batch
	// is in flight; the engine copies the slice header but not the rules.
	Rules []rules.Rule
	// Base selects the starting amount for the waterfall.
	Base BaseSource
	// Workers bounds parallel order processing in ProcessAll. Zero or one
	// keeps processing sequential. Orders are independent, so parallel
	// runs need no synchronization beyond collecting results.
	Workers int
}

// Engine matches rules and calculates breakdowns over a fixed rule set.
type Engine struct {
	rules   []rules.Rule
	base    BaseSource
	workers int
	logger  *slog.Logger
}

// New creates an engine. The rule set is assumed validated
// (rules.ValidateAll) by the caller.
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		rules:   cfg.Rules,
		base:    cfg.Base,
		workers: workers,
		logger:  logger,
	}
}

// Process matches and calculates a single order.
func (e *Engine) Process(order api.Order) (*api.Breakdown, error) {
	rule, _ := MatchOrder(e.rules, order)
	return Calculate(order, rule, e.base)
}

// ProcessAll computes breakdowns for a batch of orders and the batch
// statistics. Output order matches input order regardless of Workers. An
// order whose breakdown cannot be computed is logged with its reason and
// skipped; the rest of the batch completes.
func (e *Engine) ProcessAll(orders []api.Order) ([]*api.Breakdown, api.Stats) {
	results := make([]*api.Breakdown, len(orders))

	if e.workers <= 1 {
		for i, order := range orders {
			results[i] = e.processLogged(order)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, e.workers)
		for i := range orders {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				results[i] = e.processLogged(orders[i])
			}(i)
		}
		wg.Wait()
	}

	breakdowns := make([]*api.Breakdown, 0, len(results))
	for _, b := range results {
		if b != nil {
			breakdowns = append(breakdowns, b)
		}
	}
	return breakdowns, ComputeStats(breakdowns)
}

func (e *Engine) processLogged(order api.Order) *api.Breakdown {
	b, err := e.Process(order)
	if err != nil {
		e.logger.Error("skipping order, breakdown failed",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
			"error", err,
		)
		return nil
	}
	return b
}

// ComputeStats counts matched and unmatched breakdowns.
func ComputeStats(breakdowns []*api.Breakdown) api.Stats {
	stats := api.Stats{Total: len(breakdowns)}
	for _, b := range breakdowns {
		if b.Matched() {
			stats.Matched++
		} else {
			stats.Unmatched++
		}
	}
	return stats
}
