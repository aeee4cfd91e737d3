package models

// Dataset holds the eight source tables as loaded from disk.
type Dataset struct {
	Orders      []Order
	Items       []OrderItem
	Reviews     []Review
	Products    []Product
	Sellers     []Seller
	Payments    []Payment
	Customers   []Customer
	Geolocation []Geolocation
}

type DatasetCounts struct {
	Orders      int `json:"orders"`
	Items       int `json:"items"`
	Reviews     int `json:"reviews"`
	Products    int `json:"products"`
	Sellers     int `json:"sellers"`
	Payments    int `json:"payments"`
	Customers   int `json:"customers"`
	Geolocation int `json:"geolocation"`
}

func (d *Dataset) Counts() DatasetCounts {
	return DatasetCounts{
		Orders:      len(d.Orders),
		Items:       len(d.Items),
		Reviews:     len(d.Reviews),
		Products:    len(d.Products),
		Sellers:     len(d.Sellers),
		Payments:    len(d.Payments),
		Customers:   len(d.Customers),
		Geolocation: len(d.Geolocation),
	}
}
