package models

import "math"

type Product struct {
	ID                string  `json:"product_id"`
	Category          string  `json:"product_category_name"`
	NameLength        float64 `json:"product_name_lenght"`
	DescriptionLength float64 `json:"product_description_lenght"`
	PhotosQty         float64 `json:"product_photos_qty"`
	WeightG           float64 `json:"product_weight_g"`
	LengthCm          float64 `json:"product_length_cm"`
	HeightCm          float64 `json:"product_height_cm"`
	WidthCm           float64 `json:"product_width_cm"`
}

// VolumeCm3 is NaN when any dimension is missing.
func (p Product) VolumeCm3() float64 {
	if math.IsNaN(p.LengthCm) || math.IsNaN(p.HeightCm) || math.IsNaN(p.WidthCm) {
		return math.NaN()
	}
	return p.LengthCm * p.HeightCm * p.WidthCm
}
