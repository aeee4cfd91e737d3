package models

import "time"

// Record is one reviewed order after joining and feature derivation.
// Numeric fields hold NaN when the source value is missing; categorical
// fields hold "".
type Record struct {
	OrderID     string    `json:"order_id"`
	PurchasedAt time.Time `json:"purchased_at"`
	ReviewScore int32     `json:"review_score"`
	Label       int32     `json:"label"`

	ApprovalHours          float64 `json:"approval_hours"`
	CarrierDays            float64 `json:"carrier_days"`
	DeliveryDays           float64 `json:"delivery_days"`
	DeliveryVsEstimateDays float64 `json:"delivery_vs_estimate_days"`
	ResponseHours          float64 `json:"response_hours"`
	IsDelivered            float64 `json:"is_delivered"`

	PaymentValue        float64 `json:"payment_value"`
	PaymentInstallments float64 `json:"payment_installments"`
	Price               float64 `json:"price"`
	FreightValue        float64 `json:"freight_value"`
	FreightRatio        float64 `json:"freight_ratio"`

	ItemCount                float64 `json:"item_count"`
	SellerCount              float64 `json:"seller_count"`
	ProductMeanRating        float64 `json:"product_mean_rating"`
	ProductPhotosQty         float64 `json:"product_photos_qty"`
	ProductDescriptionLength float64 `json:"product_description_length"`
	ProductWeightG           float64 `json:"product_weight_g"`

	DistanceKm float64 `json:"distance_km"`
	SameState  float64 `json:"same_state"`

	PaymentType     string `json:"payment_type"`
	ProductCategory string `json:"product_category"`
	CustomerState   string `json:"customer_state"`
}

type NumericFeature struct {
	Name string
	Get  func(r *Record) float64
}

type CategoricalFeature struct {
	Name string
	Get  func(r *Record) string
}

// NumericFeatures lists the model inputs in their fixed column order.
var NumericFeatures = []NumericFeature{
	{"approval_hours", func(r *Record) float64 { return r.ApprovalHours }},
	{"carrier_days", func(r *Record) float64 { return r.CarrierDays }},
	{"delivery_days", func(r *Record) float64 { return r.DeliveryDays }},
	{"delivery_vs_estimate_days", func(r *Record) float64 { return r.DeliveryVsEstimateDays }},
	{"response_hours", func(r *Record) float64 { return r.ResponseHours }},
	{"is_delivered", func(r *Record) float64 { return r.IsDelivered }},
	{"payment_value", func(r *Record) float64 { return r.PaymentValue }},
	{"payment_installments", func(r *Record) float64 { return r.PaymentInstallments }},
	{"price", func(r *Record) float64 { return r.Price }},
	{"freight_value", func(r *Record) float64 { return r.FreightValue }},
	{"freight_ratio", func(r *Record) float64 { return r.FreightRatio }},
	{"item_count", func(r *Record) float64 { return r.ItemCount }},
	{"seller_count", func(r *Record) float64 { return r.SellerCount }},
	{"product_mean_rating", func(r *Record) float64 { return r.ProductMeanRating }},
	{"product_photos_qty", func(r *Record) float64 { return r.ProductPhotosQty }},
	{"product_description_length", func(r *Record) float64 { return r.ProductDescriptionLength }},
	{"product_weight_g", func(r *Record) float64 { return r.ProductWeightG }},
	{"distance_km", func(r *Record) float64 { return r.DistanceKm }},
	{"same_state", func(r *Record) float64 { return r.SameState }},
}

var CategoricalFeatures = []CategoricalFeature{
	{"payment_type", func(r *Record) string { return r.PaymentType }},
	{"product_category", func(r *Record) string { return r.ProductCategory }},
	{"customer_state", func(r *Record) string { return r.CustomerState }},
}
