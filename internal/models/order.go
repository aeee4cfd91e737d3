package models

import "time"

// TimestampLayout is the layout used by every timestamp column in the source tables.
const TimestampLayout = "2006-01-02 15:04:05"

type Order struct {
	ID                  string    `json:"order_id"`
	CustomerID          string    `json:"customer_id"`
	Status              string    `json:"order_status"` // e.g., "delivered", "shipped", "canceled"
	PurchasedAt         time.Time `json:"order_purchase_timestamp"`
	ApprovedAt          time.Time `json:"order_approved_at"`
	DeliveredCarrierAt  time.Time `json:"order_delivered_carrier_date"`
	DeliveredCustomerAt time.Time `json:"order_delivered_customer_date"`
	EstimatedDeliveryAt time.Time `json:"order_estimated_delivery_date"`
}

type OrderItem struct {
	OrderID       string    `json:"order_id"`
	ItemID        int       `json:"order_item_id"`
	ProductID     string    `json:"product_id"`
	SellerID      string    `json:"seller_id"`
	ShippingLimit time.Time `json:"shipping_limit_date"`
	Price         float64   `json:"price"`
	FreightValue  float64   `json:"freight_value"`
}

type Payment struct {
	OrderID      string  `json:"order_id"`
	Sequential   int     `json:"payment_sequential"`
	Type         string  `json:"payment_type"` // e.g., "credit_card", "boleto", "voucher"
	Installments int     `json:"payment_installments"`
	Value        float64 `json:"payment_value"`
}
