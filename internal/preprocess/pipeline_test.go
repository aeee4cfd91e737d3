package preprocess

import (
	"errors"
	"math"
	"testing"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func record(delivery float64, payment, category string) models.Record {
	r := models.Record{DeliveryDays: delivery, PaymentType: payment, ProductCategory: category}
	for _, f := range []*float64{
		&r.ApprovalHours, &r.CarrierDays, &r.DeliveryVsEstimateDays, &r.ResponseHours, &r.IsDelivered,
		&r.PaymentValue, &r.PaymentInstallments, &r.Price, &r.FreightValue, &r.FreightRatio, &r.ItemCount,
		&r.SellerCount, &r.ProductMeanRating, &r.ProductPhotosQty, &r.ProductDescriptionLength,
		&r.ProductWeightG, &r.DistanceKm, &r.SameState,
	} {
		*f = 1
	}
	return r
}

func column(t *testing.T, p *Pipeline, x *mat.Dense, name string) []float64 {
	t.Helper()
	for j, n := range p.FeatureNames() {
		if n == name {
			return mat.Col(nil, j, x)
		}
	}
	t.Fatalf("column %q not found in %v", name, p.FeatureNames())
	return nil
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input is not reordered")
}

func TestPipelineImputesTrainingMedian(t *testing.T) {
	train := []models.Record{
		record(2, "credit_card", "a"),
		record(math.NaN(), "credit_card", "a"),
		record(10, "boleto", "b"),
		record(4, "voucher", "a"),
	}
	p := NewPipeline(Options{TopK: 2})
	x, err := p.FitTransform(train)
	require.NoError(t, err)

	assert.Equal(t, 4.0, p.Medians()["delivery_days"])
	assert.Equal(t, []float64{2, 4, 10, 4}, column(t, p, x, "delivery_days"))

	// test rows are imputed with the training median, not their own
	test := []models.Record{record(math.NaN(), "debit_card", ""), record(100, "boleto", "b")}
	xt, err := p.Transform(test)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 100}, column(t, p, xt, "delivery_days"))
}

func TestPipelineOneHotTopLevels(t *testing.T) {
	train := []models.Record{
		record(1, "credit_card", "a"),
		record(1, "credit_card", "a"),
		record(1, "boleto", "b"),
		record(1, "voucher", "c"),
		record(1, "", "c"),
	}
	p := NewPipeline(Options{TopK: 2})
	require.NoError(t, p.Fit(train))

	names := p.FeatureNames()
	assert.Contains(t, names, "payment_type=credit_card")
	assert.Contains(t, names, "payment_type=boleto")
	assert.NotContains(t, names, "payment_type=voucher")
	assert.Contains(t, names, "payment_type=other")
	assert.Contains(t, names, "product_category=a")
	assert.Contains(t, names, "product_category=c")

	x, err := p.Transform([]models.Record{record(1, "voucher", "zzz"), record(1, "boleto", "a")})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, column(t, p, x, "payment_type=other"))
	assert.Equal(t, []float64{0, 1}, column(t, p, x, "payment_type=boleto"))
	assert.Equal(t, []float64{1, 0}, column(t, p, x, "product_category=other"))

	// every categorical column contributes exactly one hot cell per row
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		row := mat.Row(nil, i, x)
		assert.Equal(t, float64(len(models.NumericFeatures)+len(models.CategoricalFeatures)), floats.Sum(row))
	}
	assert.Equal(t, len(names), cols)
}

func TestPipelineScaling(t *testing.T) {
	train := []models.Record{
		record(1, "credit_card", "a"),
		record(2, "credit_card", "a"),
		record(3, "boleto", "a"),
	}
	p := NewPipeline(Options{Scale: true})
	x, err := p.FitTransform(train)
	require.NoError(t, err)

	delivery := column(t, p, x, "delivery_days")
	assert.InDelta(t, 0, floats.Sum(delivery), 1e-9)
	assert.InDelta(t, -math.Sqrt(1.5), delivery[0], 1e-9)

	// constant columns are centred but not divided by zero
	for _, v := range column(t, p, x, "price") {
		assert.Equal(t, 0.0, v)
	}
}

func TestPipelineNotFitted(t *testing.T) {
	_, err := NewPipeline(Options{}).Transform([]models.Record{record(1, "", "")})
	assert.True(t, errors.Is(err, ErrNotFitted))
}
