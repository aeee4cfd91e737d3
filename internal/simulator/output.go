package simulator

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/chrisdamba/reviewclf/internal/models"
	log "github.com/sirupsen/logrus"
)

// CSVOutput writes a dataset as the eight source CSV files.
type CSVOutput struct {
	basePath string
	files    models.DataFiles
	logger   *log.Entry
}

func NewCSVOutput(basePath string, files models.DataFiles) *CSVOutput {
	return &CSVOutput{
		basePath: basePath,
		files:    files,
		logger:   log.WithField("component", "csv-output"),
	}
}

type table struct {
	file    string
	headers []string
	rows    int
	row     func(i int) []string
}

func (c *CSVOutput) tables(ds *models.Dataset) []table {
	return []table{
		{c.files.Orders, []string{
			"order_id", "customer_id", "order_status", "order_purchase_timestamp", "order_approved_at",
			"order_delivered_carrier_date", "order_delivered_customer_date", "order_estimated_delivery_date",
		}, len(ds.Orders), func(i int) []string {
			o := ds.Orders[i]
			return []string{
				o.ID, o.CustomerID, o.Status, formatTime(o.PurchasedAt), formatTime(o.ApprovedAt),
				formatTime(o.DeliveredCarrierAt), formatTime(o.DeliveredCustomerAt), formatTime(o.EstimatedDeliveryAt),
			}
		}},
		{c.files.Items, []string{
			"order_id", "order_item_id", "product_id", "seller_id", "shipping_limit_date", "price", "freight_value",
		}, len(ds.Items), func(i int) []string {
			it := ds.Items[i]
			return []string{
				it.OrderID, strconv.Itoa(it.ItemID), it.ProductID, it.SellerID, formatTime(it.ShippingLimit),
				formatFloat(it.Price, 2), formatFloat(it.FreightValue, 2),
			}
		}},
		{c.files.Reviews, []string{
			"review_id", "order_id", "review_score", "review_comment_title", "review_comment_message",
			"review_creation_date", "review_answer_timestamp",
		}, len(ds.Reviews), func(i int) []string {
			r := ds.Reviews[i]
			return []string{
				r.ID, r.OrderID, strconv.Itoa(r.Score), r.Title, r.Message,
				formatTime(r.CreatedAt), formatTime(r.AnsweredAt),
			}
		}},
		{c.files.Products, []string{
			"product_id", "product_category_name", "product_name_lenght", "product_description_lenght",
			"product_photos_qty", "product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm",
		}, len(ds.Products), func(i int) []string {
			p := ds.Products[i]
			return []string{
				p.ID, p.Category, formatFloat(p.NameLength, 0), formatFloat(p.DescriptionLength, 0),
				formatFloat(p.PhotosQty, 0), formatFloat(p.WeightG, 0), formatFloat(p.LengthCm, 0),
				formatFloat(p.HeightCm, 0), formatFloat(p.WidthCm, 0),
			}
		}},
		{c.files.Sellers, []string{
			"seller_id", "seller_zip_code_prefix", "seller_city", "seller_state",
		}, len(ds.Sellers), func(i int) []string {
			s := ds.Sellers[i]
			return []string{s.ID, s.ZipCodePrefix, s.City, s.State}
		}},
		{c.files.Payments, []string{
			"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value",
		}, len(ds.Payments), func(i int) []string {
			p := ds.Payments[i]
			return []string{
				p.OrderID, strconv.Itoa(p.Sequential), p.Type, strconv.Itoa(p.Installments), formatFloat(p.Value, 2),
			}
		}},
		{c.files.Customers, []string{
			"customer_id", "customer_unique_id", "customer_zip_code_prefix", "customer_city", "customer_state",
		}, len(ds.Customers), func(i int) []string {
			cu := ds.Customers[i]
			return []string{cu.ID, cu.UniqueID, cu.ZipCodePrefix, cu.City, cu.State}
		}},
		{c.files.Geolocation, []string{
			"geolocation_zip_code_prefix", "geolocation_lat", "geolocation_lng", "geolocation_city", "geolocation_state",
		}, len(ds.Geolocation), func(i int) []string {
			g := ds.Geolocation[i]
			return []string{
				g.ZipCodePrefix, formatFloat(g.Location.Lat, -1), formatFloat(g.Location.Lon, -1), g.City, g.State,
			}
		}},
	}
}

// Write creates basePath and writes every table into it.
func (c *CSVOutput) Write(ctx context.Context, ds *models.Dataset) error {
	if err := os.MkdirAll(c.basePath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", c.basePath, err)
	}
	for _, t := range c.tables(ds) {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(c.basePath, t.file)
		if err := writeTable(path, t); err != nil {
			return err
		}
		c.logger.WithFields(log.Fields{"file": path, "rows": t.rows}).Debug("table written")
	}
	c.logger.WithField("dir", c.basePath).Info("dataset written")
	return nil
}

func writeTable(path string, t table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(t.headers); err != nil {
		return fmt.Errorf("failed to write headers to %s: %w", path, err)
	}
	for i := 0; i < t.rows; i++ {
		if err := w.Write(t.row(i)); err != nil {
			return fmt.Errorf("failed to write row %d to %s: %w", i, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return file.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.TimestampLayout)
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
