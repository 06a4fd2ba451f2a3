package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DigitalContent is a sellable catalog item owned by a model.
type DigitalContent struct {
	ID           int64           `json:"id"`
	ModelID      int64           `json:"model_id"`
	Type         string          `json:"content_type"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	IsActive     bool            `json:"is_active"`
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ContentPurchase is the immutable record of a client buying content at a
// snapshot price.
type ContentPurchase struct {
	ID          int64           `json:"id"`
	ContentID   int64           `json:"content_id"`
	ClientID    int64           `json:"client_id"`
	PricePaid   decimal.Decimal `json:"price_paid"`
	PurchasedAt time.Time       `json:"purchased_at"`
}
