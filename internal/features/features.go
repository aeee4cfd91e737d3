package features

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/reviewclf/internal/models"
	log "github.com/sirupsen/logrus"
)

var ErrEmptyTable = errors.New("no labelled orders")

type Options struct {
	// rows whose survey response took longer are dropped; <= 0 disables the filter
	MaxResponseHours float64
}

func DefaultOptions() Options {
	return Options{MaxResponseHours: 240}
}

type BuildStats struct {
	Orders           int `json:"orders"`
	ReviewedOrders   int `json:"reviewed_orders"`
	DuplicateReviews int `json:"duplicate_reviews"`
	UnmatchedReviews int `json:"unmatched_reviews"`
	NeutralDropped   int `json:"neutral_dropped"`
	InvalidScores    int `json:"invalid_scores"`
	ResponseFiltered int `json:"response_filtered"`
	Kept             int `json:"kept"`
	Negatives        int `json:"negatives"`
	Positives        int `json:"positives"`
}

// Table is the flat order-level analytical table.
type Table struct {
	Records []models.Record
}

func (t *Table) Len() int {
	return len(t.Records)
}

func (t *Table) Labels() []float64 {
	labels := make([]float64, len(t.Records))
	for i := range t.Records {
		labels[i] = float64(t.Records[i].Label)
	}
	return labels
}

// NumericColumns lists the numeric feature names in model column order.
func (t *Table) NumericColumns() []string {
	names := make([]string, len(models.NumericFeatures))
	for i, f := range models.NumericFeatures {
		names[i] = f.Name
	}
	return names
}

func (t *Table) CategoricalColumns() []string {
	names := make([]string, len(models.CategoricalFeatures))
	for i, f := range models.CategoricalFeatures {
		names[i] = f.Name
	}
	return names
}

// Subset returns the rows at idx, sharing no slice with t.
func (t *Table) Subset(idx []int) *Table {
	records := make([]models.Record, len(idx))
	for i, j := range idx {
		records[i] = t.Records[j]
	}
	return &Table{Records: records}
}

// Build joins the source tables into one labelled row per reviewed order.
func Build(ds *models.Dataset, opts Options) (*Table, BuildStats, error) {
	logger := log.WithField("component", "features")
	stats := BuildStats{Orders: len(ds.Orders)}

	reviews, duplicates := latestReviews(ds.Reviews)
	stats.DuplicateReviews = duplicates
	stats.ReviewedOrders = len(reviews)

	ordersByID := make(map[string]*models.Order, len(ds.Orders))
	for i := range ds.Orders {
		ordersByID[ds.Orders[i].ID] = &ds.Orders[i]
	}
	for orderID := range reviews {
		if _, ok := ordersByID[orderID]; !ok {
			stats.UnmatchedReviews++
		}
	}

	itemsByOrder := groupItems(ds.Items)
	paymentsByOrder := make(map[string][]models.Payment)
	for _, p := range ds.Payments {
		paymentsByOrder[p.OrderID] = append(paymentsByOrder[p.OrderID], p)
	}
	products := make(map[string]*models.Product, len(ds.Products))
	for i := range ds.Products {
		products[ds.Products[i].ID] = &ds.Products[i]
	}
	sellers := make(map[string]*models.Seller, len(ds.Sellers))
	for i := range ds.Sellers {
		sellers[ds.Sellers[i].ID] = &ds.Sellers[i]
	}
	customers := make(map[string]*models.Customer, len(ds.Customers))
	for i := range ds.Customers {
		customers[ds.Customers[i].ID] = &ds.Customers[i]
	}
	centroids := ZipCentroids(ds.Geolocation)
	history := productHistory(ds.Orders, itemsByOrder, reviews)

	table := &Table{}
	for i := range ds.Orders {
		order := &ds.Orders[i]
		review, ok := reviews[order.ID]
		if !ok {
			continue
		}
		label, ok := models.SentimentFromScore(review.Score)
		if !ok {
			if review.Score == models.NeutralScore {
				stats.NeutralDropped++
			} else {
				stats.InvalidScores++
			}
			continue
		}

		rec := models.Record{
			OrderID:     order.ID,
			PurchasedAt: order.PurchasedAt,
			ReviewScore: int32(review.Score),
			Label:       int32(label),
		}
		applyTiming(&rec, order, review)
		if opts.MaxResponseHours > 0 && rec.ResponseHours > opts.MaxResponseHours {
			stats.ResponseFiltered++
			continue
		}

		items := itemsByOrder[order.ID]
		applyItems(&rec, items, products, history)
		applyPayments(&rec, paymentsByOrder[order.ID])
		applyGeography(&rec, customers[order.CustomerID], items, sellers, centroids)

		if label == models.LabelNegative {
			stats.Negatives++
		} else {
			stats.Positives++
		}
		table.Records = append(table.Records, rec)
	}
	stats.Kept = len(table.Records)

	if stats.Kept == 0 {
		return nil, stats, ErrEmptyTable
	}

	logger.WithFields(log.Fields{
		"kept":              stats.Kept,
		"negatives":         stats.Negatives,
		"neutral_dropped":   stats.NeutralDropped,
		"invalid_scores":    stats.InvalidScores,
		"response_filtered": stats.ResponseFiltered,
		"duplicate_reviews": stats.DuplicateReviews,
	}).Info("feature table built")

	return table, stats, nil
}

// latestReviews keeps one review per order: the one answered last, falling
// back to creation time and then review ID so the choice is deterministic.
func latestReviews(reviews []models.Review) (map[string]models.Review, int) {
	latest := make(map[string]models.Review, len(reviews))
	duplicates := 0
	for _, r := range reviews {
		current, ok := latest[r.OrderID]
		if !ok {
			latest[r.OrderID] = r
			continue
		}
		duplicates++
		if reviewAfter(r, current) {
			latest[r.OrderID] = r
		}
	}
	return latest, duplicates
}

func reviewAfter(a, b models.Review) bool {
	if !a.AnsweredAt.Equal(b.AnsweredAt) {
		return a.AnsweredAt.After(b.AnsweredAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func groupItems(items []models.OrderItem) map[string][]models.OrderItem {
	byOrder := make(map[string][]models.OrderItem)
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for _, list := range byOrder {
		sort.Slice(list, func(i, j int) bool { return list[i].ItemID < list[j].ItemID })
	}
	return byOrder
}

// hoursBetween is NaN when either end is unknown.
func hoursBetween(from, to time.Time) float64 {
	if from.IsZero() || to.IsZero() {
		return math.NaN()
	}
	return to.Sub(from).Hours()
}

func applyTiming(rec *models.Record, order *models.Order, review models.Review) {
	rec.ApprovalHours = hoursBetween(order.PurchasedAt, order.ApprovedAt)
	rec.CarrierDays = hoursBetween(order.PurchasedAt, order.DeliveredCarrierAt) / 24
	rec.DeliveryDays = hoursBetween(order.PurchasedAt, order.DeliveredCustomerAt) / 24
	rec.DeliveryVsEstimateDays = hoursBetween(order.DeliveredCustomerAt, order.EstimatedDeliveryAt) / 24
	rec.ResponseHours = hoursBetween(review.CreatedAt, review.AnsweredAt)

	rec.IsDelivered = 0
	if order.Status == models.OrderStatusDelivered && !order.DeliveredCustomerAt.IsZero() {
		rec.IsDelivered = 1
	}
}

func applyItems(rec *models.Record, items []models.OrderItem, products map[string]*models.Product, history map[historyKey]float64) {
	rec.ItemCount = float64(len(items))
	rec.Price, rec.FreightValue = math.NaN(), math.NaN()
	rec.SellerCount = 0
	rec.FreightRatio = math.NaN()
	rec.ProductMeanRating = math.NaN()
	rec.ProductPhotosQty = math.NaN()
	rec.ProductDescriptionLength = math.NaN()
	rec.ProductWeightG = math.NaN()

	if len(items) == 0 {
		return
	}

	var price, freight float64
	sellerSet := make(map[string]struct{})
	for _, it := range items {
		price += nanToZero(it.Price)
		freight += nanToZero(it.FreightValue)
		sellerSet[it.SellerID] = struct{}{}
	}
	rec.Price = price
	rec.FreightValue = freight
	rec.SellerCount = float64(len(sellerSet))
	if price > 0 {
		rec.FreightRatio = freight / price
	}

	first := items[0]
	if mean, ok := history[historyKey{product: first.ProductID, order: first.OrderID}]; ok {
		rec.ProductMeanRating = mean
	}
	if p, ok := products[first.ProductID]; ok {
		rec.ProductCategory = p.Category
		rec.ProductPhotosQty = p.PhotosQty
		rec.ProductDescriptionLength = p.DescriptionLength
		rec.ProductWeightG = p.WeightG
	}
}

func applyPayments(rec *models.Record, payments []models.Payment) {
	rec.PaymentValue = math.NaN()
	rec.PaymentInstallments = math.NaN()
	if len(payments) == 0 {
		return
	}

	var total float64
	installments := 0
	largest := -1.0
	for _, p := range payments {
		v := nanToZero(p.Value)
		total += v
		if p.Installments > installments {
			installments = p.Installments
		}
		if v > largest {
			largest = v
			rec.PaymentType = p.Type
		}
	}
	rec.PaymentValue = total
	rec.PaymentInstallments = float64(installments)
}

func applyGeography(rec *models.Record, customer *models.Customer, items []models.OrderItem, sellers map[string]*models.Seller, centroids map[string]models.Location) {
	rec.DistanceKm = math.NaN()
	rec.SameState = math.NaN()
	if customer == nil {
		return
	}
	rec.CustomerState = customer.State
	if len(items) == 0 {
		return
	}
	seller, ok := sellers[items[0].SellerID]
	if !ok {
		return
	}

	if customer.State != "" && seller.State != "" {
		rec.SameState = 0
		if customer.State == seller.State {
			rec.SameState = 1
		}
	}

	from, okFrom := centroids[customer.ZipCodePrefix]
	to, okTo := centroids[seller.ZipCodePrefix]
	if okFrom && okTo {
		rec.DistanceKm = from.DistanceKm(to)
	}
}

// ZipCentroids averages every geolocation point of a zip prefix.
func ZipCentroids(points []models.Geolocation) map[string]models.Location {
	type acc struct {
		lat, lon float64
		n        int
	}
	sums := make(map[string]*acc)
	for _, p := range points {
		if math.IsNaN(p.Location.Lat) || math.IsNaN(p.Location.Lon) {
			continue
		}
		a, ok := sums[p.ZipCodePrefix]
		if !ok {
			a = &acc{}
			sums[p.ZipCodePrefix] = a
		}
		a.lat += p.Location.Lat
		a.lon += p.Location.Lon
		a.n++
	}

	centroids := make(map[string]models.Location, len(sums))
	for zip, a := range sums {
		centroids[zip] = models.Location{Lat: a.lat / float64(a.n), Lon: a.lon / float64(a.n)}
	}
	return centroids
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
