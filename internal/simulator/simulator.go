// Package simulator generates a synthetic marketplace dataset with the same
// eight tables and columns as the real one. Review scores are driven by
// delivery delays, freight cost and product quality, so the classifiers
// have real signal to find.
package simulator

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/chrisdamba/reviewclf/internal/factories"
	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

type Simulator struct {
	Config     models.GeneratorConfig
	ScoreModel ScoreModel
	Rng        *rand.Rand
	Progress   bool

	fake      faker.Faker
	customers []models.Customer
	sellers   []models.Seller
	products  []models.Product

	zipLocations   map[string]models.Location
	productPrice   map[string]float64
	productSeller  map[string]int
	productQuality map[string]float64
	sellerHandling []float64

	logger *log.Entry
}

func NewSimulator(config models.GeneratorConfig, seed int64) *Simulator {
	return &Simulator{
		Config:         config,
		ScoreModel:     DefaultScoreModel,
		Rng:            rand.New(rand.NewSource(seed)),
		fake:           faker.NewWithSeed(rand.NewSource(seed)),
		zipLocations:   make(map[string]models.Location),
		productPrice:   make(map[string]float64),
		productSeller:  make(map[string]int),
		productQuality: make(map[string]float64),
		logger:         log.WithField("component", "simulator"),
	}
}

func (s *Simulator) validate() error {
	c := s.Config
	switch {
	case c.Orders <= 0 || c.Customers <= 0 || c.Sellers <= 0 || c.Products <= 0:
		return fmt.Errorf("orders, customers, sellers and products must be positive")
	case !c.EndDate.After(c.StartDate):
		return fmt.Errorf("end date %s is not after start date %s", c.EndDate.Format(time.RFC3339), c.StartDate.Format(time.RFC3339))
	}
	return nil
}

// Generate builds a complete dataset in memory.
func (s *Simulator) Generate(ctx context.Context) (*models.Dataset, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.initializeData()

	ds := &models.Dataset{
		Customers: s.customers,
		Sellers:   s.sellers,
		Products:  s.products,
	}
	ds.Geolocation = s.geolocation()

	bar := s.newBar(s.Config.Orders)
	for i := 0; i < s.Config.Orders; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		s.generateOrder(ds)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	c := ds.Counts()
	s.logger.WithFields(log.Fields{
		"orders":    c.Orders,
		"items":     c.Items,
		"reviews":   c.Reviews,
		"payments":  c.Payments,
		"customers": c.Customers,
	}).Info("synthetic dataset generated")
	return ds, nil
}

func (s *Simulator) newBar(total int) *progressbar.ProgressBar {
	var w io.Writer = io.Discard
	if s.Progress {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("generating orders"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (s *Simulator) initializeData() {
	customerFactory := factories.NewCustomerFactory(s.fake)
	sellerFactory := factories.NewSellerFactory(s.fake)
	productFactory := factories.NewProductFactory(s.fake)

	// initialise customers
	s.customers = make([]models.Customer, s.Config.Customers)
	for i := range s.customers {
		region := factories.PickRegion(s.Rng)
		s.customers[i] = customerFactory.CreateCustomer(region, s.newZip(region))
	}

	// initialise sellers, concentrated in the south-east like the real marketplace
	s.sellers = make([]models.Seller, s.Config.Sellers)
	s.sellerHandling = make([]float64, s.Config.Sellers)
	for i := range s.sellers {
		region := factories.Regions[0]
		if s.Rng.Float64() < 0.35 {
			region = factories.PickRegion(s.Rng)
		}
		s.sellers[i] = sellerFactory.CreateSeller(region, s.newZip(region))
		s.sellerHandling[i] = sellerFactory.HandlingDays()
	}

	// initialise products, each listed by one seller
	s.products = make([]models.Product, s.Config.Products)
	for i := range s.products {
		p, price := productFactory.CreateProduct()
		s.products[i] = p
		s.productPrice[p.ID] = price
		s.productSeller[p.ID] = s.Rng.Intn(len(s.sellers))
		s.productQuality[p.ID] = s.generateNormalizedValue(0, 0.5, -1, 1)
	}
}

// newZip draws a zip prefix in region and pins it to a location near the
// region's reference point.
func (s *Simulator) newZip(region factories.Region) string {
	zip := region.ZipPrefix(s.Rng)
	if _, ok := s.zipLocations[zip]; !ok {
		s.zipLocations[zip] = region.Around(s.Rng, 60)
	}
	return zip
}

// geolocation emits a few jittered points per known zip prefix.
func (s *Simulator) geolocation() []models.Geolocation {
	states := make(map[string]string)
	cities := make(map[string]string)
	for _, c := range s.customers {
		states[c.ZipCodePrefix], cities[c.ZipCodePrefix] = c.State, c.City
	}
	for _, sl := range s.sellers {
		states[sl.ZipCodePrefix], cities[sl.ZipCodePrefix] = sl.State, sl.City
	}

	var points []models.Geolocation
	for _, zip := range sortedKeys(s.zipLocations) {
		loc := s.zipLocations[zip]
		n := 1 + s.Rng.Intn(3)
		for i := 0; i < n; i++ {
			points = append(points, models.Geolocation{
				ZipCodePrefix: zip,
				Location: models.Location{
					Lat: loc.Lat + s.normal(0, 0.01),
					Lon: loc.Lon + s.normal(0, 0.01),
				},
				City:  cities[zip],
				State: states[zip],
			})
		}
	}
	return points
}

func days(d float64) time.Duration {
	return time.Duration(d * float64(24*time.Hour))
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *Simulator) generateOrder(ds *models.Dataset) {
	customer := s.customers[s.Rng.Intn(len(s.customers))]
	order := models.Order{
		ID:          cuid.New(),
		CustomerID:  customer.ID,
		PurchasedAt: s.randomTime(),
	}

	// items
	nItems := 1 + s.pick([]float64{0.86, 0.1, 0.03, 0.01})
	var items []models.OrderItem
	var price, freight, weight, maxDistance float64
	sellers := make(map[int]struct{})
	for k := 0; k < nItems; k++ {
		product := s.products[s.Rng.Intn(len(s.products))]
		sellerIdx := s.productSeller[product.ID]
		seller := s.sellers[sellerIdx]
		sellers[sellerIdx] = struct{}{}

		distance := s.zipLocations[customer.ZipCodePrefix].DistanceKm(s.zipLocations[seller.ZipCodePrefix])
		maxDistance = math.Max(maxDistance, distance)
		itemPrice := math.Round(s.productPrice[product.ID]*s.generateNormalizedValue(1, 0.05, 0.8, 1.2)*100) / 100
		itemFreight := math.Round((7+distance/150+product.WeightG/1000*1.8)*s.generateNormalizedValue(1, 0.25, 0.5, 2.5)*100) / 100

		items = append(items, models.OrderItem{
			OrderID:      order.ID,
			ItemID:       k + 1,
			ProductID:    product.ID,
			SellerID:     seller.ID,
			Price:        itemPrice,
			FreightValue: itemFreight,
		})
		price += itemPrice
		freight += itemFreight
		weight += product.WeightG
	}

	// lifecycle
	handling := 0.0
	for idx := range sellers {
		handling = math.Max(handling, s.sellerHandling[idx])
	}
	approval := s.exponential(10)
	transit := s.generateNormalizedValue(3+maxDistance/350, 2+maxDistance/900, 1, 40)
	expected := approval/24 + handling + transit
	order.EstimatedDeliveryAt = midnight(order.PurchasedAt.Add(days(expected + 8 + s.Rng.Float64()*10)))

	switch s.pick([]float64{0.94, 0.025, 0.015, 0.01, 0.01}) {
	case 0:
		order.Status = models.OrderStatusDelivered
	case 1:
		order.Status = models.OrderStatusShipped
	case 2:
		order.Status = models.OrderStatusCanceled
	case 3:
		order.Status = models.OrderStatusUnavailable
	default:
		order.Status = models.OrderStatusInvoiced
	}

	if order.Status != models.OrderStatusCanceled || s.Rng.Float64() < 0.5 {
		order.ApprovedAt = order.PurchasedAt.Add(hours(approval))
	}
	for k := range items {
		items[k].ShippingLimit = order.PurchasedAt.Add(hours(approval) + days(6))
	}
	if order.Status == models.OrderStatusDelivered || order.Status == models.OrderStatusShipped {
		order.DeliveredCarrierAt = order.PurchasedAt.Add(hours(approval) + days(handling*s.generateNormalizedValue(1, 0.3, 0.2, 4)))
	}

	// a small share of late deliveries are badly late: lost parcels, strikes
	if s.Rng.Float64() < 0.05 {
		transit += s.exponential(12)
	}
	if order.Status == models.OrderStatusDelivered {
		order.DeliveredCustomerAt = order.DeliveredCarrierAt.Add(days(transit))
	}

	ds.Orders = append(ds.Orders, order)
	ds.Items = append(ds.Items, items...)
	ds.Payments = append(ds.Payments, s.payments(order.ID, price+freight)...)

	// one percent of orders never get a survey answer
	if s.Rng.Float64() < 0.01 {
		return
	}
	var quality float64
	for _, it := range items {
		quality += s.productQuality[it.ProductID]
	}
	exp := orderExperience{
		delivered:    order.Status == models.OrderStatusDelivered,
		freightRatio: freight / price,
		quality:      quality / float64(len(items)),
		sellers:      len(sellers),
	}
	if exp.delivered {
		exp.lateDays = order.DeliveredCustomerAt.Sub(order.EstimatedDeliveryAt).Hours() / 24
	}

	review := s.review(order, exp)
	ds.Reviews = append(ds.Reviews, review)
	if s.Rng.Float64() < 0.01 {
		// customer answered the survey again later
		again := s.review(order, exp)
		again.CreatedAt = review.CreatedAt
		again.AnsweredAt = review.AnsweredAt.Add(hours(1 + s.exponential(48)))
		ds.Reviews = append(ds.Reviews, again)
	}
}

func (s *Simulator) review(order models.Order, exp orderExperience) models.Review {
	created := order.EstimatedDeliveryAt.Add(days(1))
	if exp.delivered {
		created = midnight(order.DeliveredCustomerAt).Add(days(1))
	}

	response := s.exponential(50)
	if s.Rng.Float64() < s.ScoreModel.ResponseOutlier {
		response = 240 + s.exponential(200)
	}

	r := models.Review{
		ID:         cuid.New(),
		OrderID:    order.ID,
		Score:      s.reviewScore(exp),
		CreatedAt:  created,
		AnsweredAt: created.Add(hours(response)).Truncate(time.Second),
	}
	// unhappy customers write comments far more often
	commentRate := 0.3
	if r.Score <= 2 {
		commentRate = 0.8
	}
	if s.Rng.Float64() < commentRate {
		r.Message = s.fake.Lorem().Sentence(s.fake.IntBetween(4, 20))
		if s.Rng.Float64() < 0.3 {
			r.Title = s.fake.Lorem().Word()
		}
	}
	return r
}

// payments splits total across one or two payment rows.
func (s *Simulator) payments(orderID string, total float64) []models.Payment {
	total = math.Round(total*100) / 100
	switch s.pick([]float64{0.74, 0.19, 0.05, 0.02}) {
	case 0:
		installments := 1
		if s.Rng.Float64() < 0.5 {
			installments = 2 + s.Rng.Intn(9)
		}
		return []models.Payment{{OrderID: orderID, Sequential: 1, Type: models.PaymentCreditCard, Installments: installments, Value: total}}
	case 1:
		return []models.Payment{{OrderID: orderID, Sequential: 1, Type: models.PaymentBoleto, Installments: 1, Value: total}}
	case 2:
		voucher := math.Round(total*s.generateNormalizedValue(0.3, 0.15, 0.05, 0.9)*100) / 100
		return []models.Payment{
			{OrderID: orderID, Sequential: 1, Type: models.PaymentCreditCard, Installments: 1, Value: math.Round((total-voucher)*100) / 100},
			{OrderID: orderID, Sequential: 2, Type: models.PaymentVoucher, Installments: 1, Value: voucher},
		}
	default:
		return []models.Payment{{OrderID: orderID, Sequential: 1, Type: models.PaymentDebitCard, Installments: 1, Value: total}}
	}
}
