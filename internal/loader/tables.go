package loader

import (
	"context"

	"github.com/chrisdamba/reviewclf/internal/models"
)

func LoadOrders(ctx context.Context, path string) ([]models.Order, error) {
	var orders []models.Order
	err := scan(ctx, path, []string{
		"order_id", "customer_id", "order_status", "order_purchase_timestamp",
		"order_approved_at", "order_delivered_carrier_date",
		"order_delivered_customer_date", "order_estimated_delivery_date",
	}, func(r row) error {
		orders = append(orders, models.Order{
			ID:                  r.str("order_id"),
			CustomerID:          r.str("customer_id"),
			Status:              r.str("order_status"),
			PurchasedAt:         r.timestamp("order_purchase_timestamp"),
			ApprovedAt:          r.timestamp("order_approved_at"),
			DeliveredCarrierAt:  r.timestamp("order_delivered_carrier_date"),
			DeliveredCustomerAt: r.timestamp("order_delivered_customer_date"),
			EstimatedDeliveryAt: r.timestamp("order_estimated_delivery_date"),
		})
		return nil
	})
	return orders, err
}

func LoadItems(ctx context.Context, path string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := scan(ctx, path, []string{
		"order_id", "order_item_id", "product_id", "seller_id", "price", "freight_value",
	}, func(r row) error {
		items = append(items, models.OrderItem{
			OrderID:       r.str("order_id"),
			ItemID:        r.integer("order_item_id"),
			ProductID:     r.str("product_id"),
			SellerID:      r.str("seller_id"),
			ShippingLimit: r.timestamp("shipping_limit_date"),
			Price:         r.number("price"),
			FreightValue:  r.number("freight_value"),
		})
		return nil
	})
	return items, err
}

func LoadReviews(ctx context.Context, path string) ([]models.Review, error) {
	var reviews []models.Review
	err := scan(ctx, path, []string{
		"review_id", "order_id", "review_score", "review_creation_date", "review_answer_timestamp",
	}, func(r row) error {
		reviews = append(reviews, models.Review{
			ID:         r.str("review_id"),
			OrderID:    r.str("order_id"),
			Score:      r.integer("review_score"),
			Title:      r.str("review_comment_title"),
			Message:    r.str("review_comment_message"),
			CreatedAt:  r.timestamp("review_creation_date"),
			AnsweredAt: r.timestamp("review_answer_timestamp"),
		})
		return nil
	})
	return reviews, err
}

// LoadProducts keeps the source's misspelled "lenght" headers.
func LoadProducts(ctx context.Context, path string) ([]models.Product, error) {
	var products []models.Product
	err := scan(ctx, path, []string{
		"product_id", "product_category_name", "product_description_lenght", "product_photos_qty",
	}, func(r row) error {
		products = append(products, models.Product{
			ID:                r.str("product_id"),
			Category:          r.str("product_category_name"),
			NameLength:        r.number("product_name_lenght"),
			DescriptionLength: r.number("product_description_lenght"),
			PhotosQty:         r.number("product_photos_qty"),
			WeightG:           r.number("product_weight_g"),
			LengthCm:          r.number("product_length_cm"),
			HeightCm:          r.number("product_height_cm"),
			WidthCm:           r.number("product_width_cm"),
		})
		return nil
	})
	return products, err
}

func LoadSellers(ctx context.Context, path string) ([]models.Seller, error) {
	var sellers []models.Seller
	err := scan(ctx, path, []string{
		"seller_id", "seller_zip_code_prefix", "seller_state",
	}, func(r row) error {
		sellers = append(sellers, models.Seller{
			ID:            r.str("seller_id"),
			ZipCodePrefix: r.zip("seller_zip_code_prefix"),
			City:          r.str("seller_city"),
			State:         r.str("seller_state"),
		})
		return nil
	})
	return sellers, err
}

func LoadPayments(ctx context.Context, path string) ([]models.Payment, error) {
	var payments []models.Payment
	err := scan(ctx, path, []string{
		"order_id", "payment_type", "payment_value",
	}, func(r row) error {
		payments = append(payments, models.Payment{
			OrderID:      r.str("order_id"),
			Sequential:   r.integer("payment_sequential"),
			Type:         r.str("payment_type"),
			Installments: r.integer("payment_installments"),
			Value:        r.number("payment_value"),
		})
		return nil
	})
	return payments, err
}

func LoadCustomers(ctx context.Context, path string) ([]models.Customer, error) {
	var customers []models.Customer
	err := scan(ctx, path, []string{
		"customer_id", "customer_zip_code_prefix", "customer_state",
	}, func(r row) error {
		customers = append(customers, models.Customer{
			ID:            r.str("customer_id"),
			UniqueID:      r.str("customer_unique_id"),
			ZipCodePrefix: r.zip("customer_zip_code_prefix"),
			City:          r.str("customer_city"),
			State:         r.str("customer_state"),
		})
		return nil
	})
	return customers, err
}

func LoadGeolocation(ctx context.Context, path string) ([]models.Geolocation, error) {
	var points []models.Geolocation
	err := scan(ctx, path, []string{
		"geolocation_zip_code_prefix", "geolocation_lat", "geolocation_lng",
	}, func(r row) error {
		points = append(points, models.Geolocation{
			ZipCodePrefix: r.zip("geolocation_zip_code_prefix"),
			Location: models.Location{
				Lat: r.number("geolocation_lat"),
				Lon: r.number("geolocation_lng"),
			},
			City:  r.str("geolocation_city"),
			State: r.str("geolocation_state"),
		})
		return nil
	})
	return points, err
}
