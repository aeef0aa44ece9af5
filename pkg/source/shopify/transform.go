package shopify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orderfall/orderfall/pkg/api"
)

type moneySet struct {
	ShopMoney struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currencyCode"`
	} `json:"shopMoney"`
}

type lineItemNode struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Name                 string `json:"name"`
	Quantity             int    `json:"quantity"`
	OriginalUnitPriceSet moneySet `json:"originalUnitPriceSet"`
	Variant              *struct {
		ID            string `json:"id"`
		InventoryItem *struct {
			ID       string `json:"id"`
			UnitCost *struct {
				Amount string `json:"amount"`
			} `json:"unitCost"`
		} `json:"inventoryItem"`
	} `json:"variant"`
	Product *struct {
		ID          string   `json:"id"`
		Vendor      string   `json:"vendor"`
		ProductType string   `json:"productType"`
		Tags        []string `json:"tags"`
		Collections struct {
			Edges []struct {
				Node struct {
					Title string `json:"title"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"collections"`
	} `json:"product"`
}

type taxLineNode struct {
	Title          string   `json:"title"`
	PriceSet       moneySet `json:"priceSet"`
	Rate           float64  `json:"rate"`
	RatePercentage float64  `json:"ratePercentage"`
}

type orderNode struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Email     string `json:"email"`
	Customer  *struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"customer"`
	LineItems struct {
		Edges []struct {
			Node lineItemNode `json:"node"`
		} `json:"edges"`
	} `json:"lineItems"`
	SubtotalPriceSet moneySet      `json:"subtotalPriceSet"`
	TotalTaxSet      moneySet      `json:"totalTaxSet"`
	TaxLines         []taxLineNode `json:"taxLines"`
	TotalPriceSet    moneySet      `json:"totalPriceSet"`
	CurrencyCode     string        `json:"currencyCode"`
}

// transformOrder flattens a GraphQL order node into the api.Order shape
// the engine consumes.
func transformOrder(node orderNode) api.Order {
	lineItems := make([]api.LineItem, 0, len(node.LineItems.Edges))
	var totalCost float64

	for _, edge := range node.LineItems.Edges {
		item := edge.Node

		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		// Line cost is unit cost times quantity; absent inventory data
		// leaves the item costless.
		var itemCost float64
		if item.Variant != nil && item.Variant.InventoryItem != nil && item.Variant.InventoryItem.UnitCost != nil {
			itemCost = api.Amount(item.Variant.InventoryItem.UnitCost.Amount) * float64(quantity)
			totalCost += itemCost
		}
		cost := ""
		if itemCost > 0 {
			cost = formatAmount(itemCost)
		}

		li := api.LineItem{
			ID:       item.ID,
			Title:    item.Title,
			Name:     item.Name,
			Quantity: quantity,
			Price:    item.OriginalUnitPriceSet.ShopMoney.Amount,
			Cost:     cost,
		}

		if item.Product != nil {
			li.Vendor = item.Product.Vendor
			li.ProductType = item.Product.ProductType
			li.Tags = item.Product.Tags
			for _, collEdge := range item.Product.Collections.Edges {
				if collEdge.Node.Title != "" {
					li.Collections = append(li.Collections, collEdge.Node.Title)
				}
			}
		}

		lineItems = append(lineItems, li)
	}

	var customer api.Customer
	if node.Customer != nil {
		customer = api.Customer{FirstName: node.Customer.FirstName, LastName: node.Customer.LastName}
	}

	taxLines := make([]api.TaxLine, 0, len(node.TaxLines))
	for _, tl := range node.TaxLines {
		taxLines = append(taxLines, transformTaxLine(tl))
	}

	// Order numbers come through as "#1001".
	orderNumber := strings.TrimPrefix(node.Name, "#")

	return api.Order{
		ID:            node.ID,
		OrderNumber:   orderNumber,
		CreatedAt:     node.CreatedAt,
		Email:         node.Email,
		Customer:      customer,
		LineItems:     lineItems,
		SubtotalPrice: node.SubtotalPriceSet.ShopMoney.Amount,
		TotalTax:      node.TotalTaxSet.ShopMoney.Amount,
		TaxLines:      taxLines,
		TotalPrice:    node.TotalPriceSet.ShopMoney.Amount,
		TotalCost:     formatAmount(totalCost),
		Currency:      node.CurrencyCode,
	}
}

func transformTaxLine(tl taxLineNode) api.TaxLine {
	out := api.TaxLine{
		Title:  tl.Title,
		Amount: tl.PriceSet.ShopMoney.Amount,
	}
	if out.Title == "" {
		out.Title = "Tax"
	}

	if tl.Rate > 0 {
		out.Rate = strconv.FormatFloat(tl.Rate, 'f', -1, 64)
	} else {
		out.Rate = "0"
	}
	if tl.RatePercentage > 0 {
		out.RatePercentage = strconv.FormatFloat(tl.RatePercentage, 'f', -1, 64)
	}

	switch {
	case tl.RatePercentage > 0:
		out.RateDisplay = fmt.Sprintf("%g%%", tl.RatePercentage)
	case tl.Rate > 0:
		out.RateDisplay = fmt.Sprintf("%.2f%%", tl.Rate*100)
	}

	return out
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
