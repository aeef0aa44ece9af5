package shopify

// The two order queries differ only in the line item fragment: the cost
// query walks variant → inventoryItem → unitCost, which needs inventory
// read access. When the token lacks it the fetch falls back to the
// cost-free query and total cost stays zero.

const queryWithCost = `
query GetOrders($first: Int!, $query: String!, $after: String) {
  orders(first: $first, query: $query, after: $after) {
    edges {
      node {
        id
        name
        createdAt
        email
        customer {
          firstName
          lastName
        }
        lineItems(first: 50) {
          edges {
            node {
              id
              title
              name
              quantity
              originalUnitPriceSet {
                shopMoney {
                  amount
                  currencyCode
                }
              }
              variant {
                id
                inventoryItem {
                  id
                  unitCost {
                    amount
                    currencyCode
                  }
                }
              }
              product {
                id
                vendor
                productType
                tags
                collections(first: 5) {
                  edges {
                    node {
                      title
                    }
                  }
                }
              }
            }
          }
        }
        subtotalPriceSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        totalTaxSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        taxLines {
          title
          priceSet {
            shopMoney {
              amount
              currencyCode
            }
          }
          rate
          ratePercentage
        }
        totalPriceSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        currencyCode
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}
`

const queryWithoutCost = `
query GetOrders($first: Int!, $query: String!, $after: String) {
  orders(first: $first, query: $query, after: $after) {
    edges {
      node {
        id
        name
        createdAt
        email
        customer {
          firstName
          lastName
        }
        lineItems(first: 50) {
          edges {
            node {
              id
              title
              name
              quantity
              originalUnitPriceSet {
                shopMoney {
                  amount
                  currencyCode
                }
              }
              variant {
                id
              }
              product {
                id
                vendor
                productType
                tags
                collections(first: 5) {
                  edges {
                    node {
                      title
                    }
                  }
                }
              }
            }
          }
        }
        subtotalPriceSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        totalTaxSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        taxLines {
          title
          priceSet {
            shopMoney {
              amount
              currencyCode
            }
          }
          rate
          ratePercentage
        }
        totalPriceSet {
          shopMoney {
            amount
            currencyCode
          }
        }
        currencyCode
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}
`
