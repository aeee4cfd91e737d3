package eda

import (
	"math"
	"testing"

	"github.com/chrisdamba/reviewclf/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(label int32, delivery float64, payment string) models.Record {
	r := models.Record{Label: label, DeliveryDays: delivery, PaymentType: payment}
	return r
}

func TestScoreDistribution(t *testing.T) {
	reviews := []models.Review{{Score: 1}, {Score: 5}, {Score: 5}, {Score: 0}, {Score: 3}}
	counts := ScoreDistribution(reviews)
	assert.Equal(t, map[int]int{1: 1, 2: 0, 3: 1, 4: 0, 5: 2}, counts)
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, 3, 2}, 2)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 2, s.Missing)
	assert.Equal(t, models.Number(2.5), s.Mean)
	assert.Equal(t, models.Number(1), s.Min)
	assert.Equal(t, models.Number(4), s.Max)
	assert.Equal(t, models.Number(2.5), s.Median)

	empty := Describe(nil, 3)
	assert.Equal(t, 3, empty.Missing)
	assert.True(t, math.IsNaN(float64(empty.Mean)))
	assert.True(t, math.IsNaN(float64(empty.Median)))

	single := Describe([]float64{7}, 0)
	assert.Equal(t, models.Number(0), single.Std)
}

func TestAnalyze(t *testing.T) {
	records := []models.Record{
		record(models.LabelNegative, 20, "boleto"),
		record(models.LabelNegative, 18, "credit_card"),
		record(models.LabelPositive, 5, "credit_card"),
		record(models.LabelPositive, 6, "credit_card"),
		record(models.LabelPositive, math.NaN(), ""),
	}
	s := Analyze([]models.Review{{Score: 1}, {Score: 2}, {Score: 5}}, records, 10)

	assert.Equal(t, 5, s.Rows)
	assert.Equal(t, 2, s.Negatives)
	assert.InDelta(t, 0.4, s.NegativeRate, 1e-12)
	assert.Equal(t, 1, s.ScoreCounts[2])
	assert.Len(t, s.Numeric, len(models.NumericFeatures))
	assert.Len(t, s.Categorical, len(models.CategoricalFeatures))

	delivery, ok := s.Feature("delivery_days")
	require.True(t, ok)
	assert.Equal(t, 4, delivery.All.Count)
	assert.Equal(t, 1, delivery.All.Missing)
	assert.Equal(t, models.Number(19), delivery.Negative.Mean)
	assert.Equal(t, models.Number(5.5), delivery.Positive.Mean)
	assert.Equal(t, 1, delivery.Positive.Missing)
	// longer deliveries go with negative reviews
	assert.Greater(t, float64(delivery.Correlation), 0.9)

	_, ok = s.Feature("nope")
	assert.False(t, ok)

	payment := s.Categorical[0]
	assert.Equal(t, "payment_type", payment.Name)
	require.Len(t, payment.Levels, 3)
	assert.Equal(t, LevelRate{Level: "credit_card", Count: 3, NegativeRate: 1.0 / 3.0}, payment.Levels[0])
	assert.Equal(t, "(missing)", payment.Levels[1].Level)
	assert.Equal(t, "boleto", payment.Levels[2].Level)
	assert.Equal(t, 1.0, payment.Levels[2].NegativeRate)
}

func TestAnalyzeCapsLevels(t *testing.T) {
	records := []models.Record{
		record(models.LabelNegative, 1, "a"),
		record(models.LabelPositive, 1, "b"),
		record(models.LabelPositive, 1, "c"),
	}
	s := Analyze(nil, records, 2)
	assert.Len(t, s.Categorical[0].Levels, 2)
}
